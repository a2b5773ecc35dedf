// Package bundle embeds the default PromptDeck asset tree and locates the
// bundle directory an operation should install or repair from.
package bundle

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed all:assets
var assetsFS embed.FS

const assetsRoot = "assets"

// PlaceholderToken is the literal embedded in bundled text assets. Install
// rewrites every occurrence to the resolved symbolic prefix plus "/".
const PlaceholderToken = "__PROMPTDECK_DIR__"

// Materialize writes the embedded asset tree into dest, which must already
// exist as a directory.
func Materialize(dest string) error {
	return fs.WalkDir(assetsFS, assetsRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(path, assetsRoot)
		rel = strings.TrimPrefix(rel, "/")
		if rel == "" {
			return nil
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, readErr := assetsFS.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read embedded asset %s: %w", path, readErr)
		}
		if mkErr := os.MkdirAll(filepath.Dir(target), 0o755); mkErr != nil {
			return mkErr
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// Locate resolves the bundle directory for an operation: an explicit path
// wins, then a configured override, then the embedded bundle materialized
// into a temporary directory. The returned cleanup is always safe to call.
func Locate(explicit string, configured string) (string, func(), error) {
	noop := func() {}
	if strings.TrimSpace(explicit) != "" {
		return explicit, noop, nil
	}
	if strings.TrimSpace(configured) != "" {
		return configured, noop, nil
	}
	tmp, err := os.MkdirTemp("", "pd-bundle-*")
	if err != nil {
		return "", noop, fmt.Errorf("allocate bundle directory: %w", err)
	}
	cleanup := func() {
		_ = os.RemoveAll(tmp)
	}
	if err := Materialize(tmp); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("materialize embedded bundle: %w", err)
	}
	return tmp, cleanup, nil
}
