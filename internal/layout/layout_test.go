package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestDetect(t *testing.T) {
	t.Run("missing root is none", func(t *testing.T) {
		state, err := Detect(filepath.Join(t.TempDir(), "absent"))
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if state != StateNone {
			t.Fatalf("state = %q, want none", state)
		}
	})

	t.Run("direct command files are legacy", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "commands/review.md")
		state, err := Detect(root)
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if state != StateLegacy {
			t.Fatalf("state = %q, want legacy", state)
		}
	})

	t.Run("command subdirectory is current", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, CurrentCommandsRel+"/review.md")
		state, err := Detect(root)
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if state != StateCurrent {
			t.Fatalf("state = %q, want current", state)
		}
	})

	t.Run("both layouts are mixed", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "commands/old.md")
		writeFile(t, root, CurrentCommandsRel+"/new.md")
		state, err := Detect(root)
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if state != StateMixed {
			t.Fatalf("state = %q, want mixed", state)
		}
	})

	t.Run("foreign files under commands are none", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "commands/notes.txt")
		state, err := Detect(root)
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		if state != StateNone {
			t.Fatalf("state = %q, want none", state)
		}
	})
}

func TestOwnsRel(t *testing.T) {
	owned := []string{
		"agents/reviewer.md",
		"core/principles.md",
		"modes/concise.md",
		CurrentCommandsRel + "/explain.md",
		"commands/legacy.md",
		"state/manifest.json",
		"backups/1700000000000/backup.json",
		"pd.version",
	}
	for _, rel := range owned {
		if !OwnsRel(rel) {
			t.Errorf("OwnsRel(%q) = false, want true", rel)
		}
	}
	foreign := []string{
		"",
		".",
		"../escape.md",
		"notes.txt",
		"commands/sub/other.md",
		"commands/notes.txt",
		"agentsx/file.md",
		"/etc/passwd",
	}
	for _, rel := range foreign {
		if OwnsRel(rel) {
			t.Errorf("OwnsRel(%q) = true, want false", rel)
		}
	}
}
