package scope

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func init() {
	// The home lookup caches; tests swap HOME per case.
	homedir.DisableCache = true
}

func TestResolveGlobalHonorsHomeOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv(HomeEnv, override)

	root, err := Resolve(Global, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if root.Scope != Global {
		t.Fatalf("scope = %q", root.Scope)
	}
	if root.Path != override {
		t.Fatalf("path = %q, want %q", root.Path, override)
	}
	if root.SymbolicPrefix != override {
		t.Fatalf("prefix = %q, want the absolute root", root.SymbolicPrefix)
	}
}

func TestResolveGlobalDefaultsToHome(t *testing.T) {
	t.Setenv(HomeEnv, "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	root, err := Resolve(Global, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(home, RootDirName)
	if root.Path != want {
		t.Fatalf("path = %q, want %q", root.Path, want)
	}
}

func TestResolveLocal(t *testing.T) {
	project := t.TempDir()
	root, err := Resolve(Local, project)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if root.Path != filepath.Join(project, RootDirName) {
		t.Fatalf("path = %q", root.Path)
	}
	if root.SymbolicPrefix != "./"+RootDirName {
		t.Fatalf("prefix = %q, want relative dotted path", root.SymbolicPrefix)
	}
}

func TestResolveUnknownScope(t *testing.T) {
	if _, err := Resolve(Scope("remote"), ""); err == nil {
		t.Fatalf("expected error for unknown scope")
	}
}

func TestAt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), RootDirName)
	local, err := At(Local, dir)
	if err != nil {
		t.Fatalf("At local: %v", err)
	}
	if local.SymbolicPrefix != "./"+RootDirName {
		t.Fatalf("local prefix = %q", local.SymbolicPrefix)
	}
	global, err := At(Global, dir)
	if err != nil {
		t.Fatalf("At global: %v", err)
	}
	if global.SymbolicPrefix != global.Path {
		t.Fatalf("global prefix = %q, want %q", global.SymbolicPrefix, global.Path)
	}
}
