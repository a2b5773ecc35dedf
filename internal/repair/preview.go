package repair

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// previewMaxLines caps the per-file diff preview attached to drift items.
const previewMaxLines = 40

func renderPreview(rel string, current string, expected string) string {
	diff := udiff.Unified(rel+" (current)", rel+" (expected)", current, expected)
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	if len(lines) <= previewMaxLines {
		return ensureTrailingNewline(strings.Join(lines, "\n"))
	}
	truncated := append(lines[:previewMaxLines], fmt.Sprintf("... (truncated to %d lines)", previewMaxLines))
	return ensureTrailingNewline(strings.Join(truncated, "\n"))
}

func ensureTrailingNewline(content string) string {
	if content == "" || strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}
