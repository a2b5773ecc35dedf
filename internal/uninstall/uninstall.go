// Package uninstall removes namespace-owned files from a root while
// preserving everything foreign. Planning is pure; execution requires the
// plan's confirmation token and backs files up unless told not to.
package uninstall

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/promptdeck/promptdeck/internal/backup"
	"github.com/promptdeck/promptdeck/internal/fsutil"
	"github.com/promptdeck/promptdeck/internal/layout"
	"github.com/promptdeck/promptdeck/internal/manifest"
	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/version"
)

const backupReason = "uninstall"

// Mode says where the removal set came from.
type Mode string

const (
	// ModeManifest plans from the root's manifest records.
	ModeManifest Mode = "manifest"
	// ModeConvention plans purely by namespace naming convention when the
	// manifest is absent or unreadable. Strictly more conservative.
	ModeConvention Mode = "convention"
)

// Item is one planned removal.
type Item struct {
	RelPath string
	Path    string
}

// SkippedItem is a candidate the plan refused, with the reason.
type SkippedItem struct {
	RelPath string
	Reason  string
}

// Plan is a pure description of what execute would remove. Producing a plan
// and not executing it is the dry run; the plan is identical either way.
type Plan struct {
	Mode Mode
	// ConfirmToken must be passed back verbatim to Execute.
	ConfirmToken string
	Items        []Item
	// Rejected holds manifest entries that failed re-validation (they
	// would point outside the namespace). They are never executed.
	Rejected []SkippedItem
	// Skipped holds convention-mode candidates that were too ambiguous to
	// touch.
	Skipped []SkippedItem
}

// Options controls execution.
type Options struct {
	// Confirm must equal the plan's ConfirmToken.
	Confirm string
	// SkipBackup executes without snapshotting removed files first.
	SkipBackup bool
}

// ItemFailure is one file that could not be removed.
type ItemFailure struct {
	RelPath string
	Err     error
}

// Report is the outcome of an execution. Success is true only when zero
// items failed.
type Report struct {
	Removed     []string
	RemovedDirs []string
	Failed      []ItemFailure
	BackupRef   string
	Success     bool
}

// Engine plans and executes uninstalls.
type Engine struct{}

// NewEngine returns an uninstall engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Plan computes the removal set for root without touching anything.
func (e *Engine) Plan(root string) (Plan, error) {
	m, err := manifest.Load(root)
	if err != nil {
		// Absent or unreadable manifests both get the conservative
		// fallback; a tampered file must not steer deletions.
		return e.planByConvention(root)
	}
	return e.planFromManifest(root, m)
}

// planFromManifest re-validates every record: entries resolving outside the
// root or outside the namespace are rejected, not executed.
func (e *Engine) planFromManifest(root string, m *manifest.Manifest) (Plan, error) {
	plan := Plan{Mode: ModeManifest, ConfirmToken: confirmToken(root)}
	for _, rec := range m.Files {
		full := filepath.Join(root, filepath.FromSlash(rec.RelPath))
		rel, err := filepath.Rel(root, full)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			plan.Rejected = append(plan.Rejected, SkippedItem{
				RelPath: rec.RelPath,
				Reason:  fmt.Sprintf(messages.UninstallOutsideRootFmt, rec.RelPath, root),
			})
			continue
		}
		if !layout.OwnsRel(rec.RelPath) {
			plan.Rejected = append(plan.Rejected, SkippedItem{
				RelPath: rec.RelPath,
				Reason:  fmt.Sprintf(messages.UninstallNotOwnedFmt, rec.RelPath),
			})
			continue
		}
		plan.Items = append(plan.Items, Item{RelPath: rec.RelPath, Path: full})
	}
	// The manifest itself is namespace state and goes with the install.
	plan.Items = append(plan.Items, Item{
		RelPath: manifest.RelPath,
		Path:    manifest.Path(root),
	})
	sortPlan(&plan)
	return plan, nil
}

// planByConvention walks only the whitelisted namespace subtrees and known
// root files. Text assets are removal candidates; anything else is left
// untouched and reported as skipped.
func (e *Engine) planByConvention(root string) (Plan, error) {
	plan := Plan{Mode: ModeConvention, ConfirmToken: confirmToken(root)}
	subtrees := append([]string{}, layout.Subtrees...)
	subtrees = append(subtrees, layout.CurrentCommandsRel)
	for _, subtree := range subtrees {
		base := filepath.Join(root, filepath.FromSlash(subtree))
		err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if entry.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			relSlash := filepath.ToSlash(rel)
			if !entry.Type().IsRegular() || !strings.HasSuffix(relSlash, ".md") {
				plan.Skipped = append(plan.Skipped, SkippedItem{
					RelPath: relSlash,
					Reason:  messages.UninstallAmbiguous,
				})
				return nil
			}
			plan.Items = append(plan.Items, Item{RelPath: relSlash, Path: path})
			return nil
		})
		if err != nil {
			return Plan{}, err
		}
	}
	for _, rel := range []string{version.FileName, manifest.RelPath} {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(full); err == nil {
			plan.Items = append(plan.Items, Item{RelPath: rel, Path: full})
		}
	}
	sortPlan(&plan)
	return plan, nil
}

// Execute removes the planned files. The caller supplies the confirmation
// token; the engine never prompts. Unless opts.SkipBackup, every file is
// copied into a backup set before deletion. Per-item failures are collected,
// never fatal to the batch.
func (e *Engine) Execute(root string, plan Plan, opts Options) (Report, error) {
	if opts.Confirm != plan.ConfirmToken {
		return Report{}, fmt.Errorf(messages.UninstallConfirmRequiredFmt, plan.ConfirmToken)
	}
	report := Report{}
	if len(plan.Items) == 0 {
		report.Success = true
		return report, nil
	}

	if !opts.SkipBackup {
		rels := make([]string, 0, len(plan.Items))
		for _, item := range plan.Items {
			rels = append(rels, item.RelPath)
		}
		vault := backup.NewVault(root)
		set, err := vault.Create(backupReason, rels)
		if err != nil {
			return Report{}, fmt.Errorf(messages.UninstallBackupFailedFmt, err)
		}
		report.BackupRef = set.Dir
	}

	for _, item := range plan.Items {
		err := os.Remove(item.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			report.Failed = append(report.Failed, ItemFailure{
				RelPath: item.RelPath,
				Err:     fmt.Errorf(messages.UninstallRemoveFailedFmt, item.Path, err),
			})
			continue
		}
		report.Removed = append(report.Removed, item.RelPath)
	}

	report.RemovedDirs = e.removeEmptiedDirs(root)
	report.Success = len(report.Failed) == 0
	return report, nil
}

// removeEmptiedDirs clears directories that became empty from removing
// namespace-owned children. Directories still holding foreign files are
// preserved, as is the root when anything remains in it.
func (e *Engine) removeEmptiedDirs(root string) []string {
	var removed []string
	targets := append([]string{}, layout.Subtrees...)
	targets = append(targets, layout.CommandsDir, layout.StateDir)
	for _, rel := range targets {
		dirs, err := fsutil.RemoveEmptyDirs(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		removed = append(removed, dirs...)
	}
	if entries, err := os.ReadDir(root); err == nil && len(entries) == 0 {
		if os.Remove(root) == nil {
			removed = append(removed, root)
		}
	}
	return removed
}

func confirmToken(root string) string {
	return "uninstall-" + filepath.Base(root)
}

func sortPlan(plan *Plan) {
	sort.Slice(plan.Items, func(i, j int) bool {
		return plan.Items[i].RelPath < plan.Items[j].RelPath
	})
	sort.Slice(plan.Rejected, func(i, j int) bool {
		return plan.Rejected[i].RelPath < plan.Rejected[j].RelPath
	})
	sort.Slice(plan.Skipped, func(i, j int) bool {
		return plan.Skipped[i].RelPath < plan.Skipped[j].RelPath
	})
}
