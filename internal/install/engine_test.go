package install_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/promptdeck/promptdeck/internal/bundle"
	"github.com/promptdeck/promptdeck/internal/faults"
	"github.com/promptdeck/promptdeck/internal/install"
	"github.com/promptdeck/promptdeck/internal/layout"
	"github.com/promptdeck/promptdeck/internal/manifest"
	"github.com/promptdeck/promptdeck/internal/testutil"
)

func TestInstallPublishesCurrentLayout(t *testing.T) {
	target := testutil.LocalRoot(t)
	engine := install.NewEngine(nil)

	result, err := engine.Install(testutil.DefaultBundle(t), target)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if result.FilesCopied != 4 {
		t.Fatalf("FilesCopied = %d, want 4", result.FilesCopied)
	}
	if result.Version != "1.4.0" {
		t.Fatalf("Version = %q, want 1.4.0", result.Version)
	}

	state, err := layout.Detect(target.Path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if state != layout.StateCurrent {
		t.Fatalf("state = %q, want current", state)
	}

	m, err := manifest.Load(target.Path)
	if err != nil {
		t.Fatalf("Load manifest: %v", err)
	}
	if len(m.Files) != 5 {
		t.Fatalf("manifest has %d records, want 5", len(m.Files))
	}
	if m.RootPath != target.Path {
		t.Fatalf("manifest root = %q, want %q", m.RootPath, target.Path)
	}

	if got := testutil.ReadFile(t, target.Path, "pd.version"); got != "1.4.0\n" {
		t.Fatalf("pd.version = %q", got)
	}
	if active := engine.ActiveStaging(); len(active) != 0 {
		t.Fatalf("staging still tracked: %v", active)
	}
	entries, err := os.ReadDir(filepath.Dir(target.Path))
	if err != nil {
		t.Fatalf("readdir parent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("staging directory left beside target: %d entries", len(entries))
	}
}

func TestInstallRewritesPlaceholders(t *testing.T) {
	target := testutil.LocalRoot(t)
	if _, err := install.NewEngine(nil).Install(testutil.DefaultBundle(t), target); err != nil {
		t.Fatalf("Install: %v", err)
	}

	explain := testutil.ReadFile(t, target.Path, layout.CurrentCommandsRel+"/explain.md")
	if strings.Contains(explain, bundle.PlaceholderToken) {
		t.Fatalf("token survived install: %q", explain)
	}
	if got := strings.Count(explain, target.SymbolicPrefix+"/"); got != 2 {
		t.Fatalf("explain.md has %d prefix occurrences, want 2", got)
	}

	reviewer := testutil.ReadFile(t, target.Path, "agents/reviewer.md")
	if got := strings.Count(reviewer, target.SymbolicPrefix+"/"); got != 1 {
		t.Fatalf("reviewer.md has %d prefix occurrences, want 1", got)
	}

	principles := testutil.ReadFile(t, target.Path, "core/principles.md")
	if principles != "Be specific.\n" {
		t.Fatalf("token-free asset changed: %q", principles)
	}
}

func TestInstallRefusesSecondInstall(t *testing.T) {
	target := testutil.LocalRoot(t)
	bundleDir := testutil.DefaultBundle(t)
	engine := install.NewEngine(nil)
	if _, err := engine.Install(bundleDir, target); err != nil {
		t.Fatalf("first Install: %v", err)
	}

	_, err := engine.Install(bundleDir, target)
	var precondition *faults.PreconditionFailure
	if !errors.As(err, &precondition) {
		t.Fatalf("err = %v, want PreconditionFailure", err)
	}
	if precondition.Reason != install.ReasonAlreadyInstalled {
		t.Fatalf("reason = %q", precondition.Reason)
	}
}

func TestInstallLegacyRootRequiresMigration(t *testing.T) {
	target := testutil.LocalRoot(t)
	testutil.WriteFile(t, target.Path, "commands/review.md", "legacy\n")

	_, err := install.NewEngine(nil).Install(testutil.DefaultBundle(t), target)
	var precondition *faults.PreconditionFailure
	if !errors.As(err, &precondition) {
		t.Fatalf("err = %v, want PreconditionFailure", err)
	}
	if precondition.Reason != install.ReasonLegacyLayoutPresent {
		t.Fatalf("reason = %q", precondition.Reason)
	}
}

func TestInstallMissingBundle(t *testing.T) {
	target := testutil.LocalRoot(t)
	_, err := install.NewEngine(nil).Install(filepath.Join(t.TempDir(), "absent"), target)
	var missing *faults.SourceMissing
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want SourceMissing", err)
	}
}

func TestInstallBundleWithoutSubtrees(t *testing.T) {
	target := testutil.LocalRoot(t)
	_, err := install.NewEngine(nil).Install(t.TempDir(), target)
	var missing *faults.SourceMissing
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want SourceMissing", err)
	}
	if _, statErr := os.Stat(target.Path); !os.IsNotExist(statErr) {
		t.Fatalf("failed install left a partial target behind")
	}
}

func TestInstallMergesIntoForeignRoot(t *testing.T) {
	target := testutil.LocalRoot(t)
	testutil.WriteFile(t, target.Path, "notes.txt", "mine\n")

	if _, err := install.NewEngine(nil).Install(testutil.DefaultBundle(t), target); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if got := testutil.ReadFile(t, target.Path, "notes.txt"); got != "mine\n" {
		t.Fatalf("foreign file changed: %q", got)
	}
	if !testutil.Exists(t, target.Path, "agents/reviewer.md") {
		t.Fatalf("bundle content missing after merge publish")
	}
}

func TestInstallThreeFileBundle(t *testing.T) {
	target := testutil.LocalRoot(t)
	bundleDir := testutil.WriteBundle(t, []testutil.BundleFile{
		{Rel: "agents/helper.md", Content: "Helper links " + bundle.PlaceholderToken + "core/a.md and " + bundle.PlaceholderToken + "core/b.md.\n"},
		{Rel: "core/a.md", Content: "a\n"},
		{Rel: "core/b.md", Content: "b\n"},
	})

	result, err := install.NewEngine(nil).Install(bundleDir, target)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if result.FilesCopied != 3 {
		t.Fatalf("FilesCopied = %d, want 3", result.FilesCopied)
	}
	m, err := manifest.Load(target.Path)
	if err != nil {
		t.Fatalf("Load manifest: %v", err)
	}
	if len(m.Files) != 3 {
		t.Fatalf("manifest has %d records, want 3", len(m.Files))
	}
	helper := testutil.ReadFile(t, target.Path, "agents/helper.md")
	if strings.Count(helper, bundle.PlaceholderToken) != 0 {
		t.Fatalf("token remains: %q", helper)
	}
	if got := strings.Count(helper, target.SymbolicPrefix+"/"); got != 2 {
		t.Fatalf("prefix occurs %d times, want exactly 2", got)
	}
}

func TestInstallWithoutVersionFile(t *testing.T) {
	target := testutil.LocalRoot(t)
	bundleDir := testutil.WriteBundle(t, []testutil.BundleFile{
		{Rel: "agents/solo.md", Content: "solo\n"},
	})

	result, err := install.NewEngine(nil).Install(bundleDir, target)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if result.Version != "" {
		t.Fatalf("Version = %q, want empty", result.Version)
	}
	if testutil.Exists(t, target.Path, "pd.version") {
		t.Fatalf("version file appeared from nowhere")
	}
}
