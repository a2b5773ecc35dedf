// Package testutil holds fixture helpers shared by engine and CLI tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/promptdeck/promptdeck/internal/bundle"
	"github.com/promptdeck/promptdeck/internal/integrity"
	"github.com/promptdeck/promptdeck/internal/layout"
	"github.com/promptdeck/promptdeck/internal/manifest"
	"github.com/promptdeck/promptdeck/internal/scope"
	"github.com/promptdeck/promptdeck/internal/version"
)

// WriteFile writes content at root/rel, creating parent directories.
// t is the active test; rel is slash-separated.
func WriteFile(t *testing.T, root string, rel string, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadFile reads root/rel and fails the test on error.
func ReadFile(t *testing.T, root string, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// Exists reports whether root/rel exists.
func Exists(t *testing.T, root string, rel string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

// BundleFile is one file in a fixture bundle.
type BundleFile struct {
	Rel     string
	Content string
}

// WriteBundle lays out a bundle source directory under a fresh temp dir and
// returns its path. Files use the placeholder token as given in Content.
func WriteBundle(t *testing.T, files []BundleFile) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		WriteFile(t, dir, f.Rel, f.Content)
	}
	return dir
}

// DefaultBundle returns a three-asset bundle exercising the placeholder
// rewrite: one file with the token twice, one with it once, one without.
func DefaultBundle(t *testing.T) string {
	t.Helper()
	return WriteBundle(t, []BundleFile{
		{Rel: "agents/reviewer.md", Content: "Read " + bundle.PlaceholderToken + "core/principles.md first.\n"},
		{Rel: layout.CurrentCommandsRel + "/explain.md", Content: "See " + bundle.PlaceholderToken + "agents/reviewer.md and " + bundle.PlaceholderToken + "modes/concise.md.\n"},
		{Rel: "core/principles.md", Content: "Be specific.\n"},
		{Rel: "modes/concise.md", Content: "Prefer brevity.\n"},
		{Rel: version.FileName, Content: "1.4.0\n"},
	})
}

// LocalRoot returns a project-local root rooted in a fresh temp dir. The
// directory itself is not created; install does that.
func LocalRoot(t *testing.T) scope.Root {
	t.Helper()
	root, err := scope.At(scope.Local, filepath.Join(t.TempDir(), scope.RootDirName))
	if err != nil {
		t.Fatalf("resolve local root: %v", err)
	}
	return root
}

// WriteLegacyRoot lays out a legacy-layout root with direct command files and
// a matching manifest, returning the root path.
func WriteLegacyRoot(t *testing.T, commands map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), scope.RootDirName)
	m := manifest.New(root)
	for name, content := range commands {
		rel := layout.CommandsDir + "/" + name
		path := WriteFile(t, root, rel, content)
		m.Add(manifest.Record{
			Path:      path,
			RelPath:   rel,
			SizeBytes: int64(len(content)),
			Digest:    integrity.Bytes([]byte(content)),
		})
	}
	if err := manifest.Save(root, m); err != nil {
		t.Fatalf("save manifest: %v", err)
	}
	return root
}

// RefreshRecord repoints the manifest record for rel at the file's current
// content. Used by tests that mutate installed files directly.
func RefreshRecord(t *testing.T, root string, rel string) {
	t.Helper()
	m, err := manifest.Load(root)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	m.Add(manifest.Record{
		Path:      path,
		RelPath:   rel,
		SizeBytes: int64(len(data)),
		Digest:    integrity.Bytes(data),
	})
	if err := manifest.Save(root, m); err != nil {
		t.Fatalf("save manifest: %v", err)
	}
}
