// Package layout defines the namespace directory layout and classifies the
// structure state of an installation root.
package layout

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/promptdeck/promptdeck/internal/version"
)

// Namespace layout constants. The command tree is the only part with a
// legacy/current duality: legacy roots keep command files directly under
// commands/, current roots keep them under commands/pd/.
const (
	CommandsDir        = "commands"
	CurrentCommandsRel = "commands/pd"
	StateDir           = "state"
	BackupsDir         = "backups"
)

// Subtrees lists the namespace subtrees copied verbatim from a bundle, in
// addition to the command tree.
var Subtrees = []string{"agents", "core", "modes"}

// BundleSubtrees lists every whitelisted subtree of a bundle, current
// command layout included.
func BundleSubtrees() []string {
	out := make([]string, 0, len(Subtrees)+1)
	out = append(out, Subtrees...)
	return append(out, CurrentCommandsRel)
}

// State classifies a root's directory layout. It is derived, never stored.
type State string

const (
	// StateNone means no command tree exists in either layout.
	StateNone State = "none"
	// StateLegacy means command files sit directly under commands/.
	StateLegacy State = "legacy"
	// StateCurrent means command files sit under commands/pd/.
	StateCurrent State = "current"
	// StateMixed means both layouts are present. Mixed is a legitimate
	// recoverable state after an interrupted migration, not corruption.
	StateMixed State = "mixed"
)

// Detect classifies root. It is read-only and safe to call repeatedly and
// concurrently. A missing root is StateNone.
func Detect(root string) (State, error) {
	legacy, err := hasLegacyCommands(root)
	if err != nil {
		return StateNone, err
	}
	current, err := hasCurrentCommands(root)
	if err != nil {
		return StateNone, err
	}
	switch {
	case legacy && current:
		return StateMixed, nil
	case legacy:
		return StateLegacy, nil
	case current:
		return StateCurrent, nil
	default:
		return StateNone, nil
	}
}

func hasLegacyCommands(root string) (bool, error) {
	entries, err := os.ReadDir(filepath.Join(root, CommandsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			return true, nil
		}
	}
	return false, nil
}

func hasCurrentCommands(root string) (bool, error) {
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(CurrentCommandsRel)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// OwnsRel reports whether the slash-normalized relative path rel is
// namespace-owned: part of a whitelisted subtree, the command tree, or one
// of the files this distribution writes at the root.
func OwnsRel(rel string) bool {
	rel = path.Clean(strings.TrimPrefix(rel, "./"))
	if rel == "" || rel == "." || strings.HasPrefix(rel, "../") {
		return false
	}
	if rel == version.FileName {
		return true
	}
	owned := make([]string, 0, len(Subtrees)+4)
	owned = append(owned, Subtrees...)
	owned = append(owned, CurrentCommandsRel, StateDir, BackupsDir)
	for _, prefix := range owned {
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	// Legacy command files remain owned so pre-migration manifests validate.
	if strings.HasPrefix(rel, CommandsDir+"/") && !strings.Contains(strings.TrimPrefix(rel, CommandsDir+"/"), "/") && strings.HasSuffix(rel, ".md") {
		return true
	}
	return false
}
