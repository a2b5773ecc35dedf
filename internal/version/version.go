// Package version normalizes bundle versions and owns the per-root version
// file.
package version

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/promptdeck/promptdeck/internal/fsutil"
)

// FileName is the version file written at the top of every installed root.
const FileName = "pd.version"

// Normalize parses raw as an X.Y.Z version, tolerating a leading "v" and a
// missing patch segment, and returns the canonical X.Y.Z form.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "v"))
	if trimmed == "" {
		return "", fmt.Errorf("version is empty")
	}
	parts := strings.Split(trimmed, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return "", fmt.Errorf("invalid version %q", raw)
	}
	if len(parts) == 2 {
		parts = append(parts, "0")
	}
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return "", fmt.Errorf("invalid version segment %q in %q", part, raw)
		}
		nums[i] = n
	}
	return fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2]), nil
}

// ReadRoot returns the normalized version recorded in root's version file.
// A missing file yields an empty version and no error.
func ReadRoot(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return Normalize(string(data))
}

// WriteRoot records v in root's version file atomically.
func WriteRoot(root string, v string) error {
	normalized, err := Normalize(v)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(filepath.Join(root, FileName), []byte(normalized+"\n"), 0o644)
}
