package backup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/promptdeck/promptdeck/internal/layout"
)

func writeFile(t *testing.T, root string, rel string, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestCreateSnapshotsFilesAndDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "commands/review.md", "review")
	writeFile(t, root, "commands/explain.md", "explain")
	writeFile(t, root, "state/manifest.json", "{}")

	set, err := NewVault(root).Create("migration", []string{"commands", "state/manifest.json", "pd.version"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(set.Files) != 3 {
		t.Fatalf("saved %d files, want 3 (absent paths skipped)", len(set.Files))
	}
	if set.Reason != "migration" {
		t.Fatalf("reason = %q", set.Reason)
	}
	data, err := os.ReadFile(filepath.Join(set.Dir, "commands", "review.md"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "review" {
		t.Fatalf("saved content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(set.Dir, "backup.json")); err != nil {
		t.Fatalf("metadata missing: %v", err)
	}
}

func TestRestoreBringsFilesBack(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "commands/review.md", "original")

	vault := NewVault(root)
	set, err := vault.Create("repair", []string{"commands/review.md"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	writeFile(t, root, "commands/review.md", "mutated")
	if err := vault.Restore(set); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(root, "commands", "review.md"))
	if string(data) != "original" {
		t.Fatalf("restored content = %q, want original", data)
	}
}

func TestListNewestFirstSkipsMalformed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "commands/a.md", "a")
	vault := NewVault(root)

	first, err := vault.Create("repair", []string{"commands/a.md"})
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second, err := vault.Create("uninstall", []string{"commands/a.md"})
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	// A directory without metadata must not abort the listing.
	if err := os.MkdirAll(filepath.Join(root, layout.BackupsDir, "garbage"), 0o755); err != nil {
		t.Fatalf("mkdir garbage: %v", err)
	}

	sets, err := vault.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("listed %d sets, want 2", len(sets))
	}
	if sets[0].TimestampMS != second.TimestampMS || sets[1].TimestampMS != first.TimestampMS {
		t.Fatalf("not newest first: %d, %d", sets[0].TimestampMS, sets[1].TimestampMS)
	}
}

func TestPruneRemovesOnlyOldSets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "commands/a.md", "a")
	vault := NewVault(root)

	old, err := vault.Create("repair", []string{"commands/a.md"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	backdate(t, old, time.Now().Add(-60*24*time.Hour))
	recent, err := vault.Create("repair", []string{"commands/a.md"})
	if err != nil {
		t.Fatalf("Create recent: %v", err)
	}

	pruned, err := vault.Prune(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned %d sets, want 1", pruned)
	}
	if _, err := os.Stat(recent.Dir); err != nil {
		t.Fatalf("recent set removed: %v", err)
	}
	sets, err := vault.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("listed %d sets after prune, want 1", len(sets))
	}
}

// backdate rewrites a set's recorded timestamp so retention tests do not
// depend on wall-clock sleeps.
func backdate(t *testing.T, set *Set, to time.Time) {
	t.Helper()
	set.TimestampMS = to.UnixMilli()
	set.CreatedAtUTC = to.UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		t.Fatalf("encode metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(set.Dir, "backup.json"), data, 0o644); err != nil {
		t.Fatalf("rewrite metadata: %v", err)
	}
}
