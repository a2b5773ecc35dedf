// Package manifest persists the installed-file records for one root.
// Manifests are rewritten wholesale and validated on both read and write;
// records are never mutated in place.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/promptdeck/promptdeck/internal/fsutil"
	"github.com/promptdeck/promptdeck/internal/integrity"
	"github.com/promptdeck/promptdeck/internal/layout"
)

const schemaVersion = 1

// RelPath is the well-known manifest location inside a root.
const RelPath = "state/manifest.json"

// Record describes one installed file.
type Record struct {
	// Path is the absolute location, always reflecting the current root.
	Path string `json:"path"`
	// RelPath is namespace-relative and forward-slash normalized.
	RelPath   string `json:"rel_path"`
	SizeBytes int64  `json:"size_bytes"`
	Digest    string `json:"digest"`
}

// Manifest is the ordered record collection for one root.
type Manifest struct {
	SchemaVersion int      `json:"schema_version"`
	RootPath      string   `json:"root_path"`
	Files         []Record `json:"files"`
}

// New returns an empty manifest for rootPath.
func New(rootPath string) *Manifest {
	return &Manifest{SchemaVersion: schemaVersion, RootPath: rootPath}
}

// Path returns the manifest location for root.
func Path(root string) string {
	return filepath.Join(root, filepath.FromSlash(RelPath))
}

// Add appends a record, replacing any existing record with the same RelPath.
func (m *Manifest) Add(rec Record) {
	for i, existing := range m.Files {
		if existing.RelPath == rec.RelPath {
			m.Files[i] = rec
			return
		}
	}
	m.Files = append(m.Files, rec)
}

// Lookup returns the record for rel, if present.
func (m *Manifest) Lookup(rel string) (Record, bool) {
	for _, rec := range m.Files {
		if rec.RelPath == rel {
			return rec, true
		}
	}
	return Record{}, false
}

// Rebase points every record (and the manifest itself) at newRoot. Used
// after the staging tree is published to its final location.
func (m *Manifest) Rebase(newRoot string) {
	m.RootPath = newRoot
	for i, rec := range m.Files {
		m.Files[i].Path = filepath.Join(newRoot, filepath.FromSlash(rec.RelPath))
	}
}

// Sort orders records by RelPath for deterministic output.
func (m *Manifest) Sort() {
	sort.Slice(m.Files, func(i, j int) bool {
		return m.Files[i].RelPath < m.Files[j].RelPath
	})
}

// Load reads and validates the manifest stored under root.
func Load(root string) (*Manifest, error) {
	p := Path(root)
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", p, err)
	}
	if err := validate(&m); err != nil {
		return nil, fmt.Errorf("validate manifest %s: %w", p, err)
	}
	return &m, nil
}

// Save validates m and atomically rewrites the manifest under root.
func Save(root string, m *Manifest) error {
	m.Sort()
	if err := validate(m); err != nil {
		return fmt.Errorf("validate manifest for %s: %w", root, err)
	}
	p := Path(root)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", p, err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')
	return fsutil.WriteFileAtomic(p, data, 0o644)
}

func validate(m *Manifest) error {
	if m.SchemaVersion != schemaVersion {
		return fmt.Errorf("unsupported schema_version %d", m.SchemaVersion)
	}
	if strings.TrimSpace(m.RootPath) == "" {
		return fmt.Errorf("root_path is required")
	}
	seen := make(map[string]struct{}, len(m.Files))
	for _, rec := range m.Files {
		if err := validateRecord(m.RootPath, rec); err != nil {
			return err
		}
		if _, exists := seen[rec.RelPath]; exists {
			return fmt.Errorf("duplicate rel_path %q", rec.RelPath)
		}
		seen[rec.RelPath] = struct{}{}
	}
	return nil
}

func validateRecord(rootPath string, rec Record) error {
	rel := rec.RelPath
	if strings.TrimSpace(rel) == "" {
		return fmt.Errorf("rel_path is required")
	}
	if rel != path.Clean(rel) || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return fmt.Errorf("rel_path %q is not a clean relative path", rel)
	}
	if !layout.OwnsRel(rel) {
		return fmt.Errorf("rel_path %q is not namespace-owned", rel)
	}
	if strings.TrimSpace(rec.Path) == "" {
		return fmt.Errorf("path is required for %q", rel)
	}
	if rec.SizeBytes < 0 {
		return fmt.Errorf("size_bytes for %q must be non-negative", rel)
	}
	if !integrity.Valid(rec.Digest) {
		return fmt.Errorf("digest for %q is malformed", rel)
	}
	return nil
}
