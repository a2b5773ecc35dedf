package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMaterializeWritesEmbeddedTree(t *testing.T) {
	dest := t.TempDir()
	if err := Materialize(dest); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	versionData, err := os.ReadFile(filepath.Join(dest, "pd.version"))
	if err != nil {
		t.Fatalf("read pd.version: %v", err)
	}
	if strings.TrimSpace(string(versionData)) == "" {
		t.Fatalf("pd.version is empty")
	}
	reviewer, err := os.ReadFile(filepath.Join(dest, "agents", "reviewer.md"))
	if err != nil {
		t.Fatalf("read reviewer.md: %v", err)
	}
	if !strings.Contains(string(reviewer), PlaceholderToken) {
		t.Fatalf("embedded asset lost its placeholder token")
	}
}

func TestLocateExplicitWins(t *testing.T) {
	dir, cleanup, err := Locate("/explicit/bundle", "/configured/bundle")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	defer cleanup()
	if dir != "/explicit/bundle" {
		t.Fatalf("dir = %q", dir)
	}
}

func TestLocateFallsBackToConfigured(t *testing.T) {
	dir, cleanup, err := Locate("", "/configured/bundle")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	defer cleanup()
	if dir != "/configured/bundle" {
		t.Fatalf("dir = %q", dir)
	}
}

func TestLocateMaterializesEmbeddedBundle(t *testing.T) {
	dir, cleanup, err := Locate("", "")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "agents", "reviewer.md")); err != nil {
		t.Fatalf("materialized bundle incomplete: %v", err)
	}
	cleanup()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("cleanup left %s behind", dir)
	}
}
