package messages

// CLI usage and summary messages.
const (
	RootUse   = "pd"
	RootShort = "PromptDeck installs and maintains prompt asset trees"
	RootLong  = "pd distributes the bundled PromptDeck asset tree into a user-wide or project-local root and keeps it healthy: atomic install, layout migration, drift repair, and namespace-safe uninstall."

	InstallUse     = "install"
	InstallShort   = "Install the asset bundle into a fresh root"
	MigrateUse     = "migrate"
	MigrateShort   = "Migrate a legacy command layout to the current layout"
	RepairUse      = "repair"
	RepairShort    = "Detect and heal missing, corrupted, or drifted files"
	UninstallUse   = "uninstall"
	UninstallShort = "Remove namespace-owned files, preserving everything else"
	DoctorUse      = "doctor"
	DoctorShort    = "Report installation health without changing anything"
	BackupsUse     = "backups"
	BackupsShort   = "List or prune backup sets"
	BackupsListUse    = "list"
	BackupsListShort  = "List backup sets, newest first"
	BackupsPruneUse   = "prune"
	BackupsPruneShort = "Delete backup sets older than the retention window"

	VersionTemplate = "pd version {{.Version}}\n"
	VersionFullFmt  = "%s (%s)"
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
)

// CLI flag descriptions.
const (
	FlagGlobalDesc     = "operate on the user-wide root instead of the project-local one"
	FlagProjectDesc    = "project directory holding the local root (default: current directory)"
	FlagBundleDesc     = "install or repair from this bundle directory instead of the embedded one"
	FlagVerboseDesc    = "enable debug logging"
	FlagDryRunDesc     = "show what would change without changing anything"
	FlagConfirmDesc    = "confirmation token accepted without prompting"
	FlagSkipBackupDesc = "remove files without snapshotting them first"
	FlagOlderThanDesc  = "prune sets older than this many days (default: configured retention)"
)

// CLI output messages.
const (
	CLIScopeConflict            = "--global and --project are mutually exclusive"
	CLIConfirmPromptFmt         = "Type %q to confirm uninstall: "
	CLIConfirmMismatch          = "confirmation token did not match; aborting"
	CLIConfirmNonInteractiveFmt = "not a terminal; rerun with --confirm %s"
	CLIDryRunHeader             = "Planned removals (dry run):"
	CLIPartialFailure           = "completed with per-item failures"

	InstallDoneFmt        = "installed %d files into %s\n"
	InstallVersionFmt     = "bundle version %s\n"
	MigrateDoneFmt        = "migrated %s to the current layout (backup: %s)\n"
	MigrateNoopFmt        = "%s: %s\n"
	RepairHealthyFmt      = "%s is healthy; nothing to repair\n"
	RepairFoundFmt        = "found %d issue(s) in %s\n"
	RepairProgressFmt     = "[%d/%d] %s %s\n"
	RepairDoneFmt         = "repaired %d of %d issue(s)\n"
	RepairBackupNoteFmt   = "overwritten files were backed up to %s\n"
	RepairIssueLineFmt    = "  %-9s %s (%s)\n"
	RepairIssueMissing    = "missing"
	RepairIssueCorrupted  = "corrupted"
	RepairIssueDrift      = "drift"
	UninstallRemovedFmt   = "removed %d file(s) from %s\n"
	UninstallDirsFmt      = "removed %d emptied directories\n"
	UninstallBackupFmt    = "removed files were backed up to %s\n"
	UninstallPlanLineFmt  = "  %s\n"
	UninstallSkipLineFmt  = "  %s (%s)\n"
	UninstallRejectedHeader = "Rejected manifest entries (left untouched):"
	UninstallSkippedHeader  = "Skipped (not namespace-owned by convention):"

	DoctorHeaderFmt            = "Checking %s\n"
	DoctorResultLineFmt        = "[%s] %s: %s\n"
	DoctorStatusOKLabel        = "OK"
	DoctorStatusWarnLabel      = "WARN"
	DoctorStatusFailLabel      = "FAIL"
	DoctorRecommendationPrefix = "      -> "
	DoctorSuccessSummary       = "All checks passed."
	DoctorFailureSummary       = "Some checks failed."
	DoctorFailureError         = "doctor found failing checks"

	BackupsNoneFmt     = "no backup sets under %s\n"
	BackupsLineFmt     = "%s  %-10s  %d file(s)\n"
	BackupsPrunedFmt   = "pruned %d backup set(s) older than %s\n"
)
