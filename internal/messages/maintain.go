package messages

// Migration messages.
const (
	MigrateNothingToMigrate = "nothing to migrate"
	MigrateAlreadyCurrent   = "already on the current layout"

	MigrateBackupFailedFmt       = "failed to back up %s before migration: %w"
	MigrateCopyLegacyFmt         = "failed to copy legacy command %s: %w"
	MigrateDeleteLegacyFmt       = "failed to delete legacy command %s: %w"
	MigrateVerifyStateFmt        = "migration verification failed: root %s reports layout %s, expected %s"
	MigrateVerifyMissingFmt      = "migration verification failed: %s is missing"
	MigrateRolledBackFmt         = "migration of %s failed and was rolled back using backup %s: %w"
	MigrateManifestRewriteFmt    = "failed to rewrite manifest for %s: %w"
	MigrateStagingFmt            = "failed to stage current layout for %s: %w"
	MigratePublishFmt            = "failed to publish current layout for %s: %w"
)

// Repair messages.
const (
	RepairOpRecreateFile = "recreate file"
	RepairOpRecreateDir  = "recreate directory"
	RepairOpRewriteFile  = "rewrite corrupted file"
	RepairOpFixDrift     = "substitute placeholder token"

	RepairBackupFailedFmt     = "failed to back up files before destructive repair: %w"
	RepairSourceMissingFmt    = "bundle has no source for %s"
	RepairFailedItemFmt       = "failed to repair %s: %w"
	RepairManifestUpdateFmt   = "failed to update manifest after repair of %s: %w"
	RepairDriftTokenPresent = "placeholder token was never rewritten"
	RepairDriftStalePrefix  = "rewritten prefix is stale or missing"
)

// Uninstall messages.
const (
	UninstallConfirmRequiredFmt = "uninstall requires the confirmation token %q"
	UninstallOutsideRootFmt     = "manifest entry %s resolves outside root %s"
	UninstallNotOwnedFmt        = "manifest entry %s is not namespace-owned"
	UninstallAmbiguous          = "skipped — ambiguous"
	UninstallBackupFailedFmt    = "failed to back up files before uninstall: %w"
	UninstallRemoveFailedFmt    = "failed to remove %s: %w"
	UninstallNothingToRemove    = "nothing to remove"
)

// Backup messages.
const (
	BackupRootRequired     = "backup vault requires a root"
	BackupSetDirFmt        = "failed to create backup set directory under %s: %w"
	BackupSaveFileFmt      = "failed to save %s into backup set: %w"
	BackupMetaWriteFmt     = "failed to write backup metadata %s: %w"
	BackupMetaReadFmt      = "failed to read backup metadata %s: %w"
	BackupRestoreFileFmt   = "failed to restore %s from backup: %w"
	BackupPruneRemoveFmt   = "failed to prune backup set %s: %w"
)
