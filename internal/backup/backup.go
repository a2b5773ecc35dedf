// Package backup creates and restores timestamped, write-once snapshots of
// files inside an installation root. Sets are never deleted by the engines;
// pruning is an explicit, caller-scheduled action.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/promptdeck/promptdeck/internal/fsutil"
	"github.com/promptdeck/promptdeck/internal/layout"
	"github.com/promptdeck/promptdeck/internal/messages"
)

const (
	schemaVersion = 1
	metaFileName  = "backup.json"
)

// FileEntry maps a saved file back to its origin.
type FileEntry struct {
	RelPath   string `json:"rel_path"`
	SavedPath string `json:"saved_path"`
}

// Set is one write-once backup: a millisecond-timestamp directory mirroring
// the relative paths of everything it saved, plus a metadata record.
type Set struct {
	SchemaVersion int         `json:"schema_version"`
	TimestampMS   int64       `json:"timestamp_ms"`
	CreatedAtUTC  string      `json:"created_at_utc"`
	Reason        string      `json:"reason"`
	OriginRoot    string      `json:"origin_root"`
	Files         []FileEntry `json:"files"`

	// Dir is the on-disk set directory, derived on create/load.
	Dir string `json:"-"`
}

// Vault manages the backup sets of one root.
type Vault struct {
	root string
	now  func() time.Time
}

// NewVault returns a vault over root's backups directory.
func NewVault(root string) *Vault {
	return &Vault{root: root, now: time.Now}
}

// Create snapshots every regular file reachable from the given root-relative
// paths into a fresh timestamped set. Paths that do not exist are skipped;
// directories are walked recursively.
func (v *Vault) Create(reason string, relPaths []string) (*Set, error) {
	if strings.TrimSpace(v.root) == "" {
		return nil, fmt.Errorf(messages.BackupRootRequired)
	}
	now := v.now().UTC()
	dir, ts, err := v.allocateSetDir(now)
	if err != nil {
		return nil, fmt.Errorf(messages.BackupSetDirFmt, v.backupsDir(), err)
	}
	set := &Set{
		SchemaVersion: schemaVersion,
		TimestampMS:   ts,
		CreatedAtUTC:  now.Format(time.RFC3339),
		Reason:        reason,
		OriginRoot:    v.root,
		Dir:           dir,
	}
	for _, rel := range relPaths {
		if err := v.saveTarget(set, rel); err != nil {
			return nil, err
		}
	}
	sort.Slice(set.Files, func(i, j int) bool {
		return set.Files[i].RelPath < set.Files[j].RelPath
	})
	if err := writeMeta(set); err != nil {
		return nil, err
	}
	return set, nil
}

// allocateSetDir claims a fresh millisecond-timestamp directory. A taken
// timestamp is bumped until an unused one is found, so set directories are
// never reused.
func (v *Vault) allocateSetDir(now time.Time) (string, int64, error) {
	if err := os.MkdirAll(v.backupsDir(), 0o755); err != nil {
		return "", 0, err
	}
	ts := now.UnixMilli()
	for {
		dir := filepath.Join(v.backupsDir(), strconv.FormatInt(ts, 10))
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, ts, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", 0, err
		}
		ts++
	}
}

func (v *Vault) saveTarget(set *Set, rel string) error {
	origin := filepath.Join(v.root, filepath.FromSlash(rel))
	info, err := os.Stat(origin)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf(messages.BackupSaveFileFmt, origin, err)
	}
	if !info.IsDir() {
		return v.saveFile(set, rel, origin)
	}
	return filepath.WalkDir(origin, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		fileRel, relErr := filepath.Rel(v.root, path)
		if relErr != nil {
			return relErr
		}
		return v.saveFile(set, filepath.ToSlash(fileRel), path)
	})
}

func (v *Vault) saveFile(set *Set, rel string, origin string) error {
	saved := filepath.Join(set.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(saved), 0o755); err != nil {
		return fmt.Errorf(messages.BackupSaveFileFmt, origin, err)
	}
	if err := fsutil.CopyFile(origin, saved); err != nil {
		return fmt.Errorf(messages.BackupSaveFileFmt, origin, err)
	}
	set.Files = append(set.Files, FileEntry{RelPath: rel, SavedPath: saved})
	return nil
}

// Restore copies every saved file back to its origin location, creating
// directories as needed. The set itself is left untouched.
func (v *Vault) Restore(set *Set) error {
	for _, entry := range set.Files {
		origin := filepath.Join(set.OriginRoot, filepath.FromSlash(entry.RelPath))
		if err := os.MkdirAll(filepath.Dir(origin), 0o755); err != nil {
			return fmt.Errorf(messages.BackupRestoreFileFmt, entry.RelPath, err)
		}
		if err := fsutil.CopyFile(entry.SavedPath, origin); err != nil {
			return fmt.Errorf(messages.BackupRestoreFileFmt, entry.RelPath, err)
		}
	}
	return nil
}

// List returns every readable set, newest first. Malformed sets are skipped
// rather than aborting the listing.
func (v *Vault) List() ([]*Set, error) {
	entries, err := os.ReadDir(v.backupsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sets := make([]*Set, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		set, loadErr := loadSet(filepath.Join(v.backupsDir(), entry.Name()))
		if loadErr != nil {
			continue
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool {
		return sets[i].TimestampMS > sets[j].TimestampMS
	})
	return sets, nil
}

// Prune removes sets older than maxAge. It is never invoked by the engines.
func (v *Vault) Prune(maxAge time.Duration) (int, error) {
	sets, err := v.List()
	if err != nil {
		return 0, err
	}
	cutoff := v.now().UTC().Add(-maxAge).UnixMilli()
	removed := 0
	for _, set := range sets {
		if set.TimestampMS >= cutoff {
			continue
		}
		if err := os.RemoveAll(set.Dir); err != nil {
			return removed, fmt.Errorf(messages.BackupPruneRemoveFmt, set.Dir, err)
		}
		removed++
	}
	return removed, nil
}

func (v *Vault) backupsDir() string {
	return filepath.Join(v.root, layout.BackupsDir)
}

func writeMeta(set *Set) error {
	if err := validate(set); err != nil {
		return err
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup metadata: %w", err)
	}
	data = append(data, '\n')
	path := filepath.Join(set.Dir, metaFileName)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.BackupMetaWriteFmt, path, err)
	}
	return nil
}

func loadSet(dir string) (*Set, error) {
	path := filepath.Join(dir, metaFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.BackupMetaReadFmt, path, err)
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf(messages.BackupMetaReadFmt, path, err)
	}
	set.Dir = dir
	if err := validate(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

func validate(set *Set) error {
	if set.SchemaVersion != schemaVersion {
		return fmt.Errorf("unsupported backup schema_version %d", set.SchemaVersion)
	}
	if set.TimestampMS <= 0 {
		return fmt.Errorf("timestamp_ms is required")
	}
	if _, err := time.Parse(time.RFC3339, set.CreatedAtUTC); err != nil {
		return fmt.Errorf("invalid created_at_utc %q: %w", set.CreatedAtUTC, err)
	}
	if strings.TrimSpace(set.Reason) == "" {
		return fmt.Errorf("reason is required")
	}
	if strings.TrimSpace(set.OriginRoot) == "" {
		return fmt.Errorf("origin_root is required")
	}
	seen := make(map[string]struct{}, len(set.Files))
	for _, entry := range set.Files {
		if strings.TrimSpace(entry.RelPath) == "" || strings.TrimSpace(entry.SavedPath) == "" {
			return fmt.Errorf("backup file entry requires rel_path and saved_path")
		}
		if _, exists := seen[entry.RelPath]; exists {
			return fmt.Errorf("duplicate backup rel_path %q", entry.RelPath)
		}
		seen[entry.RelPath] = struct{}{}
	}
	return nil
}
