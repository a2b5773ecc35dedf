// Package config loads the optional per-root maintenance settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the optional settings file at the top of a root.
const FileName = "pd.toml"

// DefaultBackupRetentionDays bounds `pd backups prune` when the root has no
// settings file.
const DefaultBackupRetentionDays = 30

// Settings are the caller-tunable maintenance knobs. Engines never read
// these; only the CLI does.
type Settings struct {
	// BackupRetentionDays is the age threshold used by `pd backups prune`.
	BackupRetentionDays int `toml:"backup_retention_days"`
	// BundleDir overrides the embedded bundle as the install/repair source.
	BundleDir string `toml:"bundle_dir"`
}

// Defaults returns the settings used when no file exists.
func Defaults() Settings {
	return Settings{BackupRetentionDays: DefaultBackupRetentionDays}
}

// Load reads root's settings file. A missing file yields Defaults; unknown
// keys are rejected so typos fail loudly.
func Load(root string) (Settings, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	settings := Defaults()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
	}
	if settings.BackupRetentionDays <= 0 {
		return Settings{}, fmt.Errorf("settings %s: backup_retention_days must be positive", path)
	}
	return settings, nil
}
