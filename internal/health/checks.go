// Package health verifies presence, version, and digests of an installed
// root. It never mutates anything; the repair engine consults these checks
// instead of duplicating them, and `pd doctor` renders them.
package health

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/promptdeck/promptdeck/internal/integrity"
	"github.com/promptdeck/promptdeck/internal/layout"
	"github.com/promptdeck/promptdeck/internal/manifest"
	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/version"
)

// Status is the outcome class of a single check result.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// PathKind distinguishes what a failing presence result points at.
type PathKind string

const (
	PathKindFile      PathKind = "file"
	PathKindDirectory PathKind = "directory"
)

// Result is one check outcome. Path and RelPath are set on results that
// concern a concrete filesystem object so callers can act on them.
type Result struct {
	Status         Status
	CheckName      string
	Message        string
	Recommendation string
	Path           string
	RelPath        string
	Kind           PathKind
}

// CheckPresence verifies the namespace directories and every manifest-listed
// file exist.
func CheckPresence(root string) []Result {
	var results []Result
	dirs := append([]string{}, layout.Subtrees...)
	dirs = append(dirs, layout.CurrentCommandsRel)
	for _, rel := range dirs {
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || !info.IsDir() {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      messages.HealthCheckNamePresence,
				Message:        fmt.Sprintf(messages.HealthMissingDirFmt, rel),
				Recommendation: messages.HealthMissingDirRecommend,
				Path:           full,
				RelPath:        rel,
				Kind:           PathKindDirectory,
			})
			continue
		}
		results = append(results, Result{
			Status:    StatusOK,
			CheckName: messages.HealthCheckNamePresence,
			Message:   fmt.Sprintf(messages.HealthDirExistsFmt, rel),
			Path:      full,
			RelPath:   rel,
			Kind:      PathKindDirectory,
		})
	}

	m, err := manifest.Load(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      messages.HealthCheckNamePresence,
				Message:        fmt.Sprintf(messages.HealthManifestUnreadableFmt, err),
				Recommendation: messages.HealthManifestRecommend,
			})
		}
		return results
	}
	for _, rec := range m.Files {
		if _, err := os.Stat(rec.Path); err != nil {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      messages.HealthCheckNamePresence,
				Message:        fmt.Sprintf(messages.HealthMissingFileFmt, rec.RelPath),
				Recommendation: messages.HealthMissingFileRecommend,
				Path:           rec.Path,
				RelPath:        rec.RelPath,
				Kind:           PathKindFile,
			})
		}
	}
	return results
}

// CheckVersion verifies the root's version file exists and normalizes.
func CheckVersion(root string) []Result {
	path := filepath.Join(root, version.FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return []Result{{
			Status:         StatusWarn,
			CheckName:      messages.HealthCheckNameVersion,
			Message:        messages.HealthVersionMissing,
			Recommendation: messages.HealthVersionMissingRecommend,
			Path:           path,
			RelPath:        version.FileName,
			Kind:           PathKindFile,
		}}
	}
	normalized, err := version.Normalize(string(data))
	if err != nil {
		return []Result{{
			Status:         StatusFail,
			CheckName:      messages.HealthCheckNameVersion,
			Message:        fmt.Sprintf(messages.HealthVersionInvalidFmt, string(data)),
			Recommendation: messages.HealthVersionMissingRecommend,
			Path:           path,
			RelPath:        version.FileName,
			Kind:           PathKindFile,
		}}
	}
	return []Result{{
		Status:    StatusOK,
		CheckName: messages.HealthCheckNameVersion,
		Message:   fmt.Sprintf(messages.HealthVersionOKFmt, normalized),
		Path:      path,
		RelPath:   version.FileName,
		Kind:      PathKindFile,
	}}
}

// CheckDigests re-hashes every manifest-listed file that still exists and
// compares against the recorded digest. Missing files are CheckPresence's
// concern and are skipped here.
func CheckDigests(root string) []Result {
	m, err := manifest.Load(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return []Result{{
			Status:         StatusFail,
			CheckName:      messages.HealthCheckNameDigest,
			Message:        fmt.Sprintf(messages.HealthManifestUnreadableFmt, err),
			Recommendation: messages.HealthManifestRecommend,
		}}
	}
	var results []Result
	for _, rec := range m.Files {
		if _, statErr := os.Stat(rec.Path); errors.Is(statErr, fs.ErrNotExist) {
			continue
		}
		got, hashErr := integrity.File(rec.Path)
		if hashErr != nil {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      messages.HealthCheckNameDigest,
				Message:        fmt.Sprintf(messages.HealthDigestUnreadableFmt, rec.RelPath, hashErr),
				Recommendation: messages.HealthDigestMismatchRecommend,
				Path:           rec.Path,
				RelPath:        rec.RelPath,
				Kind:           PathKindFile,
			})
			continue
		}
		if got != rec.Digest {
			results = append(results, Result{
				Status:         StatusFail,
				CheckName:      messages.HealthCheckNameDigest,
				Message:        fmt.Sprintf(messages.HealthDigestMismatchFmt, rec.RelPath),
				Recommendation: messages.HealthDigestMismatchRecommend,
				Path:           rec.Path,
				RelPath:        rec.RelPath,
				Kind:           PathKindFile,
			})
			continue
		}
		results = append(results, Result{
			Status:    StatusOK,
			CheckName: messages.HealthCheckNameDigest,
			Message:   fmt.Sprintf(messages.HealthDigestOKFmt, rec.RelPath),
			Path:      rec.Path,
			RelPath:   rec.RelPath,
			Kind:      PathKindFile,
		})
	}
	return results
}

// RunAll runs every check against root.
func RunAll(root string) []Result {
	var results []Result
	results = append(results, CheckPresence(root)...)
	results = append(results, CheckVersion(root)...)
	results = append(results, CheckDigests(root)...)
	return results
}

// Failures filters results down to StatusFail entries.
func Failures(results []Result) []Result {
	var out []Result
	for _, result := range results {
		if result.Status == StatusFail {
			out = append(out, result)
		}
	}
	return out
}
