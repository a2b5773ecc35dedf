package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/promptdeck/promptdeck/internal/messages"
	"github.com/promptdeck/promptdeck/internal/scope"
	"github.com/promptdeck/promptdeck/internal/testutil"
)

// run executes the CLI against a project directory and returns combined
// output plus the error.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(append([]string{"pd"}, args...), &out, &out)
	return out.String(), err
}

func TestInstallDoctorUninstallFlow(t *testing.T) {
	project := t.TempDir()
	bundleDir := testutil.DefaultBundle(t)

	out, err := run(t, "install", "--project", project, "--bundle", bundleDir)
	if err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}
	if !strings.Contains(out, "installed 4 files") {
		t.Fatalf("install output = %q", out)
	}
	if !strings.Contains(out, "bundle version 1.4.0") {
		t.Fatalf("install output lacks version: %q", out)
	}

	out, err = run(t, "doctor", "--project", project)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	if !strings.Contains(out, messages.DoctorSuccessSummary) {
		t.Fatalf("doctor output = %q", out)
	}

	out, err = run(t, "repair", "--project", project, "--bundle", bundleDir)
	if err != nil {
		t.Fatalf("repair: %v\n%s", err, out)
	}
	if !strings.Contains(out, "healthy") {
		t.Fatalf("repair output = %q", out)
	}

	out, err = run(t, "uninstall", "--project", project, "--dry-run")
	if err != nil {
		t.Fatalf("uninstall dry run: %v\n%s", err, out)
	}
	if !strings.Contains(out, messages.CLIDryRunHeader) {
		t.Fatalf("dry run output = %q", out)
	}
	if !strings.Contains(out, "agents/reviewer.md") {
		t.Fatalf("dry run plan incomplete: %q", out)
	}

	token := "uninstall-" + scope.RootDirName
	out, err = run(t, "uninstall", "--project", project, "--confirm", token, "--skip-backup")
	if err != nil {
		t.Fatalf("uninstall: %v\n%s", err, out)
	}
	if !strings.Contains(out, "removed") {
		t.Fatalf("uninstall output = %q", out)
	}

	out, err = run(t, "doctor", "--project", project)
	if err == nil {
		t.Fatalf("doctor passed on an uninstalled root:\n%s", out)
	}
}

func TestScopeFlagsConflict(t *testing.T) {
	_, err := run(t, "doctor", "--global", "--project", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("err = %v", err)
	}
}

func TestUninstallNonInteractiveNeedsConfirmFlag(t *testing.T) {
	project := t.TempDir()
	bundleDir := testutil.DefaultBundle(t)
	if _, err := run(t, "install", "--project", project, "--bundle", bundleDir); err != nil {
		t.Fatalf("install: %v", err)
	}
	_, err := run(t, "uninstall", "--project", project)
	if err == nil || !strings.Contains(err.Error(), "--confirm") {
		t.Fatalf("err = %v", err)
	}
}

func TestBackupsListEmpty(t *testing.T) {
	out, err := run(t, "backups", "list", "--project", t.TempDir())
	if err != nil {
		t.Fatalf("backups list: %v", err)
	}
	if !strings.Contains(out, "no backup sets") {
		t.Fatalf("output = %q", out)
	}
}

func TestRepairDryRunReportsIssues(t *testing.T) {
	project := t.TempDir()
	bundleDir := testutil.DefaultBundle(t)
	if _, err := run(t, "install", "--project", project, "--bundle", bundleDir); err != nil {
		t.Fatalf("install: %v", err)
	}
	root, err := scope.Resolve(scope.Local, project)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	testutil.WriteFile(t, root.Path, "core/principles.md", "tampered\n")

	out, err := run(t, "repair", "--project", project, "--bundle", bundleDir, "--dry-run")
	if err != nil {
		t.Fatalf("repair --dry-run: %v\n%s", err, out)
	}
	if !strings.Contains(out, "corrupted") || !strings.Contains(out, "core/principles.md") {
		t.Fatalf("output = %q", out)
	}
	// Dry run must not touch the file.
	if got := testutil.ReadFile(t, root.Path, "core/principles.md"); got != "tampered\n" {
		t.Fatalf("dry run modified the root: %q", got)
	}
}
