package repair

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/promptdeck/promptdeck/internal/backup"
	"github.com/promptdeck/promptdeck/internal/fsutil"
	"github.com/promptdeck/promptdeck/internal/health"
	"github.com/promptdeck/promptdeck/internal/install"
	"github.com/promptdeck/promptdeck/internal/integrity"
	"github.com/promptdeck/promptdeck/internal/manifest"
	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/scope"
)

const backupReason = "repair"

// Progress reports per-item repair activity. The engine has no opinion on
// how progress is rendered.
type Progress func(index int, total int, operation string, item string)

// ItemResult is the outcome of healing one issue.
type ItemResult struct {
	Operation string
	RelPath   string
	Err       error
}

// Stats aggregates a repair run.
type Stats struct {
	Total    int
	Repaired int
	Failed   int
}

// Report is the outcome of a repair run. Success is true only when zero
// items failed.
type Report struct {
	Stats     Stats
	Items     []ItemResult
	BackupRef string
	Success   bool
}

// Repair heals issues in two fixed phases: first the non-destructive
// recreation of missing paths, then the backed-up overwrite of corrupted and
// drifted files. Items are independent; one failure never aborts the batch.
func (e *Engine) Repair(target scope.Root, issues IssueSet, progress Progress) (Report, error) {
	report := Report{}
	report.Stats.Total = issues.Total()
	if report.Stats.Total == 0 {
		report.Success = true
		return report, nil
	}
	if progress == nil {
		progress = func(int, int, string, string) {}
	}

	m, manifestErr := manifest.Load(target.Path)
	if manifestErr != nil {
		m = nil
	}

	index := 0
	record := func(item ItemResult) {
		report.Items = append(report.Items, item)
		if item.Err != nil {
			report.Stats.Failed++
		} else {
			report.Stats.Repaired++
		}
	}

	// Phase 1: non-destructive. Nothing existing is touched, so no backup
	// is needed.
	for _, missing := range issues.Missing {
		op := messages.RepairOpRecreateFile
		if missing.Kind == health.PathKindDirectory {
			op = messages.RepairOpRecreateDir
		}
		index++
		progress(index, report.Stats.Total, op, missing.RelPath)
		record(ItemResult{Operation: op, RelPath: missing.RelPath, Err: e.recreateMissing(target, missing, m)})
	}

	// Phase 2: destructive. Snapshot every file about to be overwritten
	// into one backup set first.
	destructiveRels := make([]string, 0, len(issues.Corrupted)+len(issues.PathDrift))
	for _, item := range issues.Corrupted {
		destructiveRels = append(destructiveRels, item.RelPath)
	}
	for _, item := range issues.PathDrift {
		destructiveRels = append(destructiveRels, item.RelPath)
	}
	var backupErr error
	if len(destructiveRels) > 0 {
		vault := backup.NewVault(target.Path)
		set, err := vault.Create(backupReason, destructiveRels)
		if err != nil {
			backupErr = fmt.Errorf(messages.RepairBackupFailedFmt, err)
		} else {
			report.BackupRef = set.Dir
		}
	}
	for _, corrupted := range issues.Corrupted {
		index++
		progress(index, report.Stats.Total, messages.RepairOpRewriteFile, corrupted.RelPath)
		err := backupErr
		if err == nil {
			err = e.restoreFromBundle(target, corrupted.RelPath, m)
		}
		record(ItemResult{Operation: messages.RepairOpRewriteFile, RelPath: corrupted.RelPath, Err: err})
	}
	for _, drifted := range issues.PathDrift {
		index++
		progress(index, report.Stats.Total, messages.RepairOpFixDrift, drifted.RelPath)
		err := backupErr
		if err == nil {
			err = e.fixDrift(target, drifted, m)
		}
		record(ItemResult{Operation: messages.RepairOpFixDrift, RelPath: drifted.RelPath, Err: err})
	}

	if m != nil {
		if err := manifest.Save(target.Path, m); err != nil {
			return report, fmt.Errorf(messages.RepairManifestUpdateFmt, target.Path, err)
		}
	}
	report.Success = report.Stats.Failed == 0
	return report, nil
}

func (e *Engine) recreateMissing(target scope.Root, missing MissingItem, m *manifest.Manifest) error {
	if missing.Kind == health.PathKindDirectory {
		if err := os.MkdirAll(missing.Path, 0o755); err != nil {
			return fmt.Errorf(messages.RepairFailedItemFmt, missing.RelPath, err)
		}
		return nil
	}
	return e.restoreFromBundle(target, missing.RelPath, m)
}

// restoreFromBundle re-copies one file from the bundle source, applying the
// same placeholder rewrite the installer uses, and refreshes its manifest
// record.
func (e *Engine) restoreFromBundle(target scope.Root, rel string, m *manifest.Manifest) error {
	src := filepath.Join(e.bundleRoot, filepath.FromSlash(rel))
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf(messages.RepairSourceMissingFmt, rel)
	}
	if install.IsTextAsset(rel) {
		data, _ = install.RewriteContent(data, target.SymbolicPrefix)
	}
	dst := filepath.Join(target.Path, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf(messages.RepairFailedItemFmt, rel, err)
	}
	if err := fsutil.WriteFileAtomic(dst, data, 0o644); err != nil {
		return fmt.Errorf(messages.RepairFailedItemFmt, rel, err)
	}
	e.refreshRecord(m, dst, rel, data)
	return nil
}

// fixDrift substitutes the placeholder token in the file's existing content.
// Content with no token left (a stale prefix) is restored from the bundle
// source instead.
func (e *Engine) fixDrift(target scope.Root, drifted DriftItem, m *manifest.Manifest) error {
	rewritten, count := install.RewriteContent(drifted.Content, target.SymbolicPrefix)
	if count == 0 {
		return e.restoreFromBundle(target, drifted.RelPath, m)
	}
	if err := fsutil.WriteFileAtomic(drifted.Path, rewritten, 0o644); err != nil {
		return fmt.Errorf(messages.RepairFailedItemFmt, drifted.RelPath, err)
	}
	e.refreshRecord(m, drifted.Path, drifted.RelPath, rewritten)
	return nil
}

func (e *Engine) refreshRecord(m *manifest.Manifest, path string, rel string, data []byte) {
	if m == nil {
		return
	}
	m.Add(manifest.Record{
		Path:      path,
		RelPath:   rel,
		SizeBytes: int64(len(data)),
		Digest:    integrity.Bytes(data),
	})
}
