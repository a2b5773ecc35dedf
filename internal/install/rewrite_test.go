package install

import (
	"bytes"
	"testing"

	"github.com/promptdeck/promptdeck/internal/bundle"
)

func TestRewriteContent(t *testing.T) {
	in := []byte("see " + bundle.PlaceholderToken + "agents/a.md and " + bundle.PlaceholderToken + "core/b.md\n")
	out, count := RewriteContent(in, "./.promptdeck")
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if bytes.Contains(out, []byte(bundle.PlaceholderToken)) {
		t.Fatalf("token survived rewrite: %s", out)
	}
	want := "see ./.promptdeck/agents/a.md and ./.promptdeck/core/b.md\n"
	if string(out) != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
}

func TestRewriteContentNoToken(t *testing.T) {
	in := []byte("plain content\n")
	out, count := RewriteContent(in, "/home/u/.promptdeck")
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
	if string(out) != "plain content\n" {
		t.Fatalf("content changed: %q", out)
	}
}

func TestIsTextAsset(t *testing.T) {
	cases := map[string]bool{
		"agents/reviewer.md": true,
		"commands/pd/x.md":   true,
		"core/data.bin":      false,
		"pd.version":         false,
		"agents/readme.MD":   false,
	}
	for rel, want := range cases {
		if got := IsTextAsset(rel); got != want {
			t.Errorf("IsTextAsset(%q) = %v, want %v", rel, got, want)
		}
	}
}
