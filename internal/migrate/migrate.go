// Package migrate transforms a legacy-layout root into the current layout.
// The engine runs DETECT, BACKUP, TRANSFORM, VERIFY, DONE; any failure in
// TRANSFORM or VERIFY rolls the root back to its exact prior state.
package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/promptdeck/promptdeck/internal/backup"
	"github.com/promptdeck/promptdeck/internal/faults"
	"github.com/promptdeck/promptdeck/internal/fsutil"
	"github.com/promptdeck/promptdeck/internal/integrity"
	"github.com/promptdeck/promptdeck/internal/layout"
	"github.com/promptdeck/promptdeck/internal/manifest"
	"github.com/promptdeck/promptdeck/internal/messages"
)

const backupReason = "migration"

// Result reports what a migration did.
type Result struct {
	Migrated bool
	// Reason explains a no-op result.
	Reason string
	// BackupRef is the retained backup set directory for a completed or
	// rolled-back migration.
	BackupRef string
}

// Engine migrates one root at a time.
type Engine struct{}

// NewEngine returns a migration engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Migrate moves root's command tree to the current layout. CURRENT and NONE
// roots are no-ops. The pre-mutation backup is retained on success; on any
// transform or verification failure the backup is restored and the failure
// reported. A rollback that itself fails is reported as a RollbackFailure.
func (e *Engine) Migrate(root string) (Result, error) {
	state, err := layout.Detect(root)
	if err != nil {
		return Result{}, &faults.FilesystemFailure{Op: "detect layout of", Path: root, Err: err}
	}
	switch state {
	case layout.StateCurrent:
		return Result{Migrated: false, Reason: messages.MigrateAlreadyCurrent}, nil
	case layout.StateNone:
		return Result{Migrated: false, Reason: messages.MigrateNothingToMigrate}, nil
	case layout.StateLegacy, layout.StateMixed:
	}

	vault := backup.NewVault(root)
	set, err := vault.Create(backupReason, []string{layout.CommandsDir, manifest.RelPath})
	if err != nil {
		return Result{}, fmt.Errorf(messages.MigrateBackupFailedFmt, root, err)
	}

	if err := e.transform(root, state); err != nil {
		return e.rollback(root, vault, set, err)
	}
	if err := e.verify(root); err != nil {
		return e.rollback(root, vault, set, err)
	}
	return Result{Migrated: true, BackupRef: set.Dir}, nil
}

func (e *Engine) transform(root string, state layout.State) error {
	if state == layout.StateLegacy {
		if err := e.copyLegacyIntoCurrent(root); err != nil {
			return err
		}
	}
	if err := e.rewriteManifest(root); err != nil {
		return fmt.Errorf(messages.MigrateManifestRewriteFmt, root, err)
	}
	return e.deleteLegacyFiles(root)
}

// copyLegacyIntoCurrent assembles the current command directory in a staging
// directory beside its final location and publishes it with one rename.
func (e *Engine) copyLegacyIntoCurrent(root string) error {
	commandsDir := filepath.Join(root, layout.CommandsDir)
	staging := filepath.Join(commandsDir, fmt.Sprintf(".pd.staging-%d-%d", time.Now().UnixMilli(), os.Getpid()))
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf(messages.MigrateStagingFmt, root, err)
	}
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	files, err := legacyCommandFiles(root)
	if err != nil {
		return err
	}
	for _, name := range files {
		src := filepath.Join(commandsDir, name)
		if err := fsutil.CopyFile(src, filepath.Join(staging, name)); err != nil {
			return fmt.Errorf(messages.MigrateCopyLegacyFmt, src, err)
		}
	}
	current := filepath.Join(root, filepath.FromSlash(layout.CurrentCommandsRel))
	if err := os.Rename(staging, current); err != nil {
		return fmt.Errorf(messages.MigratePublishFmt, root, err)
	}
	return nil
}

// rewriteManifest repoints command records from the legacy prefix to the
// current prefix. Records whose rewritten target does not exist are dropped;
// in a mixed root the current subtree is authoritative. A root without a
// manifest gets a fresh one built from the migrated files.
func (e *Engine) rewriteManifest(root string) error {
	m, err := manifest.Load(root)
	if errors.Is(err, fs.ErrNotExist) {
		return e.buildManifestFromCurrent(root)
	}
	if err != nil {
		return err
	}
	rewritten := manifest.New(m.RootPath)
	for _, rec := range m.Files {
		rel := rec.RelPath
		moved := false
		if isLegacyCommandRel(rel) {
			rel = layout.CurrentCommandsRel + "/" + path.Base(rel)
			moved = true
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		if moved {
			if _, statErr := os.Stat(full); errors.Is(statErr, fs.ErrNotExist) {
				// Mixed roots: the current subtree is authoritative, so a
				// legacy-only record has no surviving file to describe.
				continue
			}
		}
		rec.RelPath = rel
		rec.Path = full
		if info, statErr := os.Stat(full); statErr == nil {
			rec.SizeBytes = info.Size()
		}
		if digest, hashErr := integrity.File(full); hashErr == nil {
			rec.Digest = digest
		}
		rewritten.Add(rec)
	}
	return manifest.Save(root, rewritten)
}

func (e *Engine) buildManifestFromCurrent(root string) error {
	m := manifest.New(root)
	current := filepath.Join(root, filepath.FromSlash(layout.CurrentCommandsRel))
	err := filepath.WalkDir(current, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}
		digest, hashErr := integrity.File(p)
		if hashErr != nil {
			return hashErr
		}
		m.Add(manifest.Record{
			Path:      p,
			RelPath:   filepath.ToSlash(rel),
			SizeBytes: info.Size(),
			Digest:    digest,
		})
		return nil
	})
	if err != nil {
		return err
	}
	return manifest.Save(root, m)
}

func (e *Engine) deleteLegacyFiles(root string) error {
	files, err := legacyCommandFiles(root)
	if err != nil {
		return err
	}
	for _, name := range files {
		full := filepath.Join(root, layout.CommandsDir, name)
		if err := os.Remove(full); err != nil {
			return fmt.Errorf(messages.MigrateDeleteLegacyFmt, full, err)
		}
	}
	return nil
}

// verify confirms the root now reports the current layout and that every
// command-namespace manifest record exists with its recorded digest.
func (e *Engine) verify(root string) error {
	state, err := layout.Detect(root)
	if err != nil {
		return err
	}
	if state != layout.StateCurrent {
		return fmt.Errorf(messages.MigrateVerifyStateFmt, root, state, layout.StateCurrent)
	}
	m, err := manifest.Load(root)
	if err != nil {
		return err
	}
	for _, rec := range m.Files {
		if !strings.HasPrefix(rec.RelPath, layout.CommandsDir+"/") {
			continue
		}
		if _, statErr := os.Stat(rec.Path); statErr != nil {
			return fmt.Errorf(messages.MigrateVerifyMissingFmt, rec.Path)
		}
		if rec.Digest == "" {
			continue
		}
		got, hashErr := integrity.File(rec.Path)
		if hashErr != nil {
			return hashErr
		}
		if got != rec.Digest {
			return &faults.IntegrityMismatch{Path: rec.Path, Want: rec.Digest, Got: got}
		}
	}
	return nil
}

// rollback restores the backed-up command tree and manifest, deleting any
// partial current-layout artifacts first. A rollback failure is never
// swallowed: it is reported as its own, more severe class.
func (e *Engine) rollback(root string, vault *backup.Vault, set *backup.Set, cause error) (Result, error) {
	if err := e.restorePriorState(root, vault, set); err != nil {
		return Result{Migrated: false, BackupRef: set.Dir},
			&faults.RollbackFailure{Root: root, BackupRef: set.Dir, Err: errors.Join(cause, err)}
	}
	return Result{Migrated: false, BackupRef: set.Dir},
		fmt.Errorf(messages.MigrateRolledBackFmt, root, set.Dir, cause)
}

func (e *Engine) restorePriorState(root string, vault *backup.Vault, set *backup.Set) error {
	if err := os.RemoveAll(filepath.Join(root, layout.CommandsDir)); err != nil {
		return err
	}
	manifestPath := manifest.Path(root)
	if err := os.Remove(manifestPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return vault.Restore(set)
}

func legacyCommandFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, layout.CommandsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".md") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

func isLegacyCommandRel(rel string) bool {
	if !strings.HasPrefix(rel, layout.CommandsDir+"/") {
		return false
	}
	rest := strings.TrimPrefix(rel, layout.CommandsDir+"/")
	return !strings.Contains(rest, "/") && strings.HasSuffix(rest, ".md")
}
