package messages

// Install messages.
const (
	// InstallBundleRequired indicates a bundle directory is required for install.
	InstallBundleRequired = "bundle directory is required"

	InstallFailedStagingFmt      = "failed to allocate staging directory beside %s: %w"
	InstallFailedPublishFmt      = "failed to publish staging %s to %s: %w"
	InstallFailedManifestFmt     = "failed to persist manifest for %s: %w"
	InstallStagingDiscardedFmt   = "install aborted; staging %s discarded: %w"
	InstallVersionFileInvalidFmt = "bundle version file %s is invalid: %w"
)
