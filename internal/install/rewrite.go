package install

import (
	"bytes"
	"strings"

	"github.com/promptdeck/promptdeck/internal/bundle"
)

const textAssetExt = ".md"

// IsTextAsset reports whether rel names a text asset subject to placeholder
// rewriting. Everything else is copied byte-for-byte.
func IsTextAsset(rel string) bool {
	return strings.HasSuffix(rel, textAssetExt)
}

// RewriteContent replaces every placeholder token occurrence with the
// symbolic prefix followed by "/", returning the result and the occurrence
// count. Replacement is literal byte substitution, so no character in the
// prefix can be misread as replacement syntax. A zero count returns data
// unchanged.
func RewriteContent(data []byte, symbolicPrefix string) ([]byte, int) {
	token := []byte(bundle.PlaceholderToken)
	count := bytes.Count(data, token)
	if count == 0 {
		return data, 0
	}
	return bytes.ReplaceAll(data, token, []byte(symbolicPrefix+"/")), count
}
