// Package integrity computes content digests for installed files.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Algorithm is the digest algorithm prefix recorded in manifests.
const Algorithm = "sha256"

// Bytes returns the digest of data in "sha256:<hex>" form.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return Algorithm + ":" + hex.EncodeToString(sum[:])
}

// File returns the digest of the file at path in "sha256:<hex>" form.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return Algorithm + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// Valid reports whether digest has the expected "<algorithm>:<hex>" shape.
func Valid(digest string) bool {
	algo, rest, ok := strings.Cut(digest, ":")
	if !ok || algo != Algorithm {
		return false
	}
	if len(rest) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(rest)
	return err == nil
}
