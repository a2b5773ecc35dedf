package integrity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBytes(t *testing.T) {
	digest := Bytes([]byte("hello"))
	if !strings.HasPrefix(digest, Algorithm+":") {
		t.Fatalf("digest %q lacks %s prefix", digest, Algorithm)
	}
	if digest != Bytes([]byte("hello")) {
		t.Fatalf("digest is not deterministic")
	}
	if digest == Bytes([]byte("hello!")) {
		t.Fatalf("distinct content produced identical digests")
	}
}

func TestFileMatchesBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if got != Bytes([]byte("content")) {
		t.Fatalf("File = %q, Bytes = %q", got, Bytes([]byte("content")))
	}
}

func TestValid(t *testing.T) {
	if !Valid(Bytes(nil)) {
		t.Fatalf("digest of empty content should be valid")
	}
	for _, bad := range []string{"", "sha256:", "md5:abcd", "sha256:zzzz", Bytes(nil) + "00"} {
		if Valid(bad) {
			t.Fatalf("Valid(%q) = true, want false", bad)
		}
	}
}
