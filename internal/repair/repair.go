// Package repair detects and heals drift in an installed root: missing
// files, corrupted content, and placeholder tokens that were never (or
// wrongly) rewritten. Detection is pure; healing runs a non-destructive
// phase before a backed-up destructive phase.
package repair

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/promptdeck/promptdeck/internal/bundle"
	"github.com/promptdeck/promptdeck/internal/health"
	"github.com/promptdeck/promptdeck/internal/install"
	"github.com/promptdeck/promptdeck/internal/layout"
	"github.com/promptdeck/promptdeck/internal/manifest"
	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/scope"
)

// driftSamplePerSubtree bounds the token re-scan: the check is a cheap
// representative sample, not an exhaustive sweep.
const driftSamplePerSubtree = 5

// MissingItem is a manifest or whitelist path that no longer exists.
type MissingItem struct {
	Path    string
	RelPath string
	Kind    health.PathKind
}

// CorruptedItem is a file whose digest no longer matches its record.
type CorruptedItem struct {
	Path    string
	RelPath string
	Reason  string
}

// DriftItem is a sampled text asset whose placeholder rewrite is wrong or
// stale. Content is the file's current bytes; Preview is a unified diff
// against the expected rewritten content.
type DriftItem struct {
	Path    string
	RelPath string
	Reason  string
	Content []byte
	Preview string
}

// IssueSet is everything detection found.
type IssueSet struct {
	Missing   []MissingItem
	Corrupted []CorruptedItem
	PathDrift []DriftItem
}

// Total counts all issues.
func (s IssueSet) Total() int {
	return len(s.Missing) + len(s.Corrupted) + len(s.PathDrift)
}

// Empty reports whether detection found nothing.
func (s IssueSet) Empty() bool {
	return s.Total() == 0
}

// Engine heals one root from one bundle source.
type Engine struct {
	bundleRoot string
}

// NewEngine returns a repair engine sourcing replacements from bundleRoot.
func NewEngine(bundleRoot string) *Engine {
	return &Engine{bundleRoot: bundleRoot}
}

// DetectIssues inspects target without changing anything. Presence and
// digest verification come from the health checks; the drift scan samples a
// fixed number of text assets per namespace subtree.
func (e *Engine) DetectIssues(target scope.Root) (IssueSet, error) {
	var issues IssueSet
	flagged := make(map[string]struct{})

	for _, result := range health.Failures(health.CheckPresence(target.Path)) {
		if result.RelPath == "" {
			continue
		}
		issues.Missing = append(issues.Missing, MissingItem{
			Path:    result.Path,
			RelPath: result.RelPath,
			Kind:    result.Kind,
		})
		flagged[result.RelPath] = struct{}{}
	}
	for _, result := range health.Failures(health.CheckDigests(target.Path)) {
		if result.RelPath == "" {
			continue
		}
		issues.Corrupted = append(issues.Corrupted, CorruptedItem{
			Path:    result.Path,
			RelPath: result.RelPath,
			Reason:  result.Message,
		})
		flagged[result.RelPath] = struct{}{}
	}

	drift, err := e.detectDrift(target, flagged)
	if err != nil {
		return IssueSet{}, err
	}
	issues.PathDrift = drift
	return issues, nil
}

// detectDrift re-scans a representative sample of installed text assets for
// the placeholder token left unreplaced, or for a rewrite that no longer
// matches the root's symbolic prefix.
func (e *Engine) detectDrift(target scope.Root, flagged map[string]struct{}) ([]DriftItem, error) {
	m, err := manifest.Load(target.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var drift []DriftItem
	for _, subtree := range layout.BundleSubtrees() {
		sampled := 0
		for _, rec := range sortedRecords(m) {
			if sampled >= driftSamplePerSubtree {
				break
			}
			if !strings.HasPrefix(rec.RelPath, subtree+"/") || !install.IsTextAsset(rec.RelPath) {
				continue
			}
			if _, already := flagged[rec.RelPath]; already {
				continue
			}
			sampled++
			item, found, scanErr := e.scanForDrift(target, rec)
			if scanErr != nil {
				return nil, scanErr
			}
			if found {
				drift = append(drift, item)
			}
		}
	}
	return drift, nil
}

func (e *Engine) scanForDrift(target scope.Root, rec manifest.Record) (DriftItem, bool, error) {
	content, err := os.ReadFile(rec.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DriftItem{}, false, nil
		}
		return DriftItem{}, false, err
	}
	if bytes.Contains(content, []byte(bundle.PlaceholderToken)) {
		return e.driftItem(target, rec, content, messages.RepairDriftTokenPresent), true, nil
	}
	source, err := os.ReadFile(filepath.Join(e.bundleRoot, filepath.FromSlash(rec.RelPath)))
	if err != nil {
		// Without a bundle source there is no expectation to compare
		// against; digest checks cover plain corruption.
		return DriftItem{}, false, nil
	}
	if !bytes.Contains(source, []byte(bundle.PlaceholderToken)) {
		return DriftItem{}, false, nil
	}
	if bytes.Contains(content, []byte(target.SymbolicPrefix+"/")) {
		return DriftItem{}, false, nil
	}
	return e.driftItem(target, rec, content, messages.RepairDriftStalePrefix), true, nil
}

func (e *Engine) driftItem(target scope.Root, rec manifest.Record, content []byte, reason string) DriftItem {
	expected := content
	if source, err := os.ReadFile(filepath.Join(e.bundleRoot, filepath.FromSlash(rec.RelPath))); err == nil {
		expected, _ = install.RewriteContent(source, target.SymbolicPrefix)
	}
	return DriftItem{
		Path:    rec.Path,
		RelPath: rec.RelPath,
		Reason:  reason,
		Content: content,
		Preview: renderPreview(rec.RelPath, string(content), string(expected)),
	}
}

func sortedRecords(m *manifest.Manifest) []manifest.Record {
	out := make([]manifest.Record, len(m.Files))
	copy(out, m.Files)
	sort.Slice(out, func(i, j int) bool {
		return out[i].RelPath < out[j].RelPath
	})
	return out
}
