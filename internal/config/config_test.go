package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, root string, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	settings, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.BackupRetentionDays != DefaultBackupRetentionDays {
		t.Fatalf("retention = %d, want %d", settings.BackupRetentionDays, DefaultBackupRetentionDays)
	}
	if settings.BundleDir != "" {
		t.Fatalf("bundle dir = %q, want empty", settings.BundleDir)
	}
}

func TestLoadParsesSettings(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "backup_retention_days = 7\nbundle_dir = \"/opt/pd-bundle\"\n")
	settings, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.BackupRetentionDays != 7 {
		t.Fatalf("retention = %d, want 7", settings.BackupRetentionDays)
	}
	if settings.BundleDir != "/opt/pd-bundle" {
		t.Fatalf("bundle dir = %q", settings.BundleDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "backup_retention = 7\n")
	if _, err := Load(root); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestLoadRejectsNonPositiveRetention(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "backup_retention_days = 0\n")
	if _, err := Load(root); err == nil {
		t.Fatalf("expected error for zero retention")
	}
}
