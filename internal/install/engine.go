package install

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/promptdeck/promptdeck/internal/bundle"
	"github.com/promptdeck/promptdeck/internal/faults"
	"github.com/promptdeck/promptdeck/internal/integrity"
	"github.com/promptdeck/promptdeck/internal/layout"
	"github.com/promptdeck/promptdeck/internal/manifest"
	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/scope"
	"github.com/promptdeck/promptdeck/internal/version"
)

// Precondition reasons surfaced through faults.PreconditionFailure.
const (
	ReasonAlreadyInstalled    = "already installed; run `pd repair` to heal it"
	ReasonLegacyLayoutPresent = "legacy layout present; run `pd migrate` first"
)

// Result summarizes a completed install.
type Result struct {
	FilesCopied        int
	DirectoriesCreated int
	ManifestPath       string
	Version            string
}

// Engine performs atomic installs of a bundle into a fresh root. The set of
// staging directories it currently holds open is instance-scoped; nothing is
// registered globally.
type Engine struct {
	sys System

	mu      sync.Mutex
	staging map[string]struct{}
}

// NewEngine returns an engine backed by sys; nil means the real filesystem.
func NewEngine(sys System) *Engine {
	if sys == nil {
		sys = RealSystem{}
	}
	return &Engine{sys: sys, staging: make(map[string]struct{})}
}

// Install copies the whitelisted bundle subtrees into target, rewriting the
// placeholder token to target's symbolic prefix, and publishes the result
// atomically. The target's structure state must be NONE. Any failure before
// the publish step discards staging entirely; nothing partial survives in
// the target.
func (e *Engine) Install(bundleRoot string, target scope.Root) (Result, error) {
	if strings.TrimSpace(bundleRoot) == "" {
		return Result{}, errors.New(messages.InstallBundleRequired)
	}
	if err := e.checkBundle(bundleRoot); err != nil {
		return Result{}, err
	}
	state, err := layout.Detect(target.Path)
	if err != nil {
		return Result{}, &faults.FilesystemFailure{Op: "detect layout of", Path: target.Path, Err: err}
	}
	switch state {
	case layout.StateNone:
	case layout.StateLegacy:
		return Result{}, &faults.PreconditionFailure{Root: target.Path, Reason: ReasonLegacyLayoutPresent}
	default:
		return Result{}, &faults.PreconditionFailure{Root: target.Path, Reason: ReasonAlreadyInstalled}
	}

	staging, err := e.allocateStaging(target.Path)
	if err != nil {
		return Result{}, fmt.Errorf(messages.InstallFailedStagingFmt, target.Path, err)
	}
	guard := e.acquireCleanup(staging)
	defer guard.Discard()

	m := manifest.New(staging)
	stats, err := e.copyBundle(bundleRoot, staging, target.SymbolicPrefix, m)
	if err != nil {
		return Result{}, fmt.Errorf(messages.InstallStagingDiscardedFmt, staging, err)
	}
	bundleVersion, err := e.stageVersionFile(bundleRoot, staging, m)
	if err != nil {
		return Result{}, fmt.Errorf(messages.InstallStagingDiscardedFmt, staging, err)
	}
	if err := manifest.Save(staging, m); err != nil {
		return Result{}, fmt.Errorf(messages.InstallStagingDiscardedFmt, staging, err)
	}

	if err := e.publish(staging, target.Path); err != nil {
		return Result{}, err
	}
	guard.Release()

	m.Rebase(target.Path)
	if err := manifest.Save(target.Path, m); err != nil {
		return Result{}, fmt.Errorf(messages.InstallFailedManifestFmt, target.Path, err)
	}
	return Result{
		FilesCopied:        stats.files,
		DirectoriesCreated: stats.dirs,
		ManifestPath:       manifest.Path(target.Path),
		Version:            bundleVersion,
	}, nil
}

func (e *Engine) checkBundle(bundleRoot string) error {
	info, err := e.sys.Stat(bundleRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &faults.SourceMissing{Path: bundleRoot, Detail: "does not exist"}
		}
		return &faults.FilesystemFailure{Op: "stat", Path: bundleRoot, Err: err}
	}
	if !info.IsDir() {
		return &faults.SourceMissing{Path: bundleRoot, Detail: "not a directory"}
	}
	return nil
}

// allocateStaging claims a uniquely named staging directory beside the
// target, on the same filesystem, so the publish rename can be atomic.
func (e *Engine) allocateStaging(targetPath string) (string, error) {
	parent := filepath.Dir(targetPath)
	if err := e.sys.MkdirAll(parent, 0o755); err != nil {
		return "", err
	}
	base := filepath.Base(targetPath)
	ts := time.Now().UnixMilli()
	for {
		dir := filepath.Join(parent, fmt.Sprintf(".%s.staging-%d-%d", base, ts, os.Getpid()))
		err := e.sys.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		ts++
	}
}

type copyStats struct {
	files int
	dirs  int
}

// copyBundle copies only the fixed whitelist of namespace subtrees from the
// bundle, skipping everything else it may contain.
func (e *Engine) copyBundle(bundleRoot string, staging string, prefix string, m *manifest.Manifest) (copyStats, error) {
	var stats copyStats
	for _, subtree := range layout.BundleSubtrees() {
		src := filepath.Join(bundleRoot, filepath.FromSlash(subtree))
		if _, err := e.sys.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := e.copySubtree(bundleRoot, src, staging, prefix, m, &stats); err != nil {
			return stats, err
		}
	}
	if stats.files == 0 {
		return stats, &faults.SourceMissing{Path: bundleRoot, Detail: "contains no namespace subtrees"}
	}
	return stats, nil
}

func (e *Engine) copySubtree(bundleRoot string, src string, staging string, prefix string, m *manifest.Manifest, stats *copyStats) error {
	return e.sys.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(bundleRoot, path)
		if relErr != nil {
			return relErr
		}
		relSlash := filepath.ToSlash(rel)
		dst := filepath.Join(staging, rel)
		if entry.IsDir() {
			if mkErr := e.sys.MkdirAll(dst, 0o755); mkErr != nil {
				return &faults.FilesystemFailure{Op: "create directory", Path: dst, Err: mkErr}
			}
			stats.dirs++
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		rec, copyErr := e.stageFile(path, dst, relSlash, prefix)
		if copyErr != nil {
			return copyErr
		}
		m.Add(rec)
		stats.files++
		return nil
	})
}

// stageFile lands one bundle file in staging. Text assets containing the
// placeholder token are rewritten; everything else takes the unmodified
// fast path.
func (e *Engine) stageFile(src string, dst string, relSlash string, prefix string) (manifest.Record, error) {
	if IsTextAsset(relSlash) {
		data, err := e.sys.ReadFile(src)
		if err != nil {
			return manifest.Record{}, &faults.FilesystemFailure{Op: "read", Path: src, Err: err}
		}
		if bytes.Contains(data, []byte(bundle.PlaceholderToken)) {
			rewritten, _ := RewriteContent(data, prefix)
			if err := e.sys.WriteFileAtomic(dst, rewritten, 0o644); err != nil {
				return manifest.Record{}, &faults.FilesystemFailure{Op: "write", Path: dst, Err: err}
			}
			return manifest.Record{
				Path:      dst,
				RelPath:   relSlash,
				SizeBytes: int64(len(rewritten)),
				Digest:    integrity.Bytes(rewritten),
			}, nil
		}
		if err := e.sys.WriteFileAtomic(dst, data, 0o644); err != nil {
			return manifest.Record{}, &faults.FilesystemFailure{Op: "write", Path: dst, Err: err}
		}
		return manifest.Record{
			Path:      dst,
			RelPath:   relSlash,
			SizeBytes: int64(len(data)),
			Digest:    integrity.Bytes(data),
		}, nil
	}
	if err := e.sys.CopyFile(src, dst); err != nil {
		return manifest.Record{}, &faults.FilesystemFailure{Op: "copy", Path: src, Err: err}
	}
	info, err := e.sys.Stat(dst)
	if err != nil {
		return manifest.Record{}, &faults.FilesystemFailure{Op: "stat", Path: dst, Err: err}
	}
	data, err := e.sys.ReadFile(dst)
	if err != nil {
		return manifest.Record{}, &faults.FilesystemFailure{Op: "read", Path: dst, Err: err}
	}
	return manifest.Record{
		Path:      dst,
		RelPath:   relSlash,
		SizeBytes: info.Size(),
		Digest:    integrity.Bytes(data),
	}, nil
}

func (e *Engine) stageVersionFile(bundleRoot string, staging string, m *manifest.Manifest) (string, error) {
	src := filepath.Join(bundleRoot, version.FileName)
	data, err := e.sys.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", &faults.FilesystemFailure{Op: "read", Path: src, Err: err}
	}
	normalized, err := version.Normalize(string(data))
	if err != nil {
		return "", fmt.Errorf(messages.InstallVersionFileInvalidFmt, src, err)
	}
	content := []byte(normalized + "\n")
	dst := filepath.Join(staging, version.FileName)
	if err := e.sys.WriteFileAtomic(dst, content, 0o644); err != nil {
		return "", &faults.FilesystemFailure{Op: "write", Path: dst, Err: err}
	}
	m.Add(manifest.Record{
		Path:      dst,
		RelPath:   version.FileName,
		SizeBytes: int64(len(content)),
		Digest:    integrity.Bytes(content),
	})
	return normalized, nil
}

// publish makes staging visible at target. The preferred path is one atomic
// rename into an absent destination; a destination that exists (a race or
// foreign content) is merged non-destructively instead, overwriting only the
// staged paths.
func (e *Engine) publish(staging string, target string) error {
	_, statErr := e.sys.Stat(target)
	if errors.Is(statErr, fs.ErrNotExist) {
		err := e.sys.MoveDir(staging, target)
		if err == nil {
			return nil
		}
		// The destination may have appeared between the stat and the
		// rename; only that case falls through to the merge.
		if _, againErr := e.sys.Stat(target); againErr != nil {
			return &faults.FilesystemFailure{Op: "publish staging to", Path: target, Err: err}
		}
	} else if statErr != nil {
		return &faults.FilesystemFailure{Op: "stat", Path: target, Err: statErr}
	}
	if err := e.sys.CopyTree(staging, target); err != nil {
		return fmt.Errorf(messages.InstallFailedPublishFmt, staging, target, err)
	}
	if err := e.sys.RemoveAll(staging); err != nil {
		return &faults.FilesystemFailure{Op: "remove staging", Path: staging, Err: err}
	}
	return nil
}

func (e *Engine) trackStaging(dir string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.staging[dir] = struct{}{}
}

func (e *Engine) untrackStaging(dir string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.staging, dir)
}

// ActiveStaging returns the staging directories this engine currently holds
// open. Exposed for tests and diagnostics.
func (e *Engine) ActiveStaging() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.staging))
	for dir := range e.staging {
		out = append(out, dir)
	}
	return out
}
