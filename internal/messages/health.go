package messages

// Health check messages.
const (
	HealthCheckNamePresence = "presence"
	HealthCheckNameVersion  = "version"
	HealthCheckNameDigest   = "digest"

	HealthDirExistsFmt            = "directory %s exists"
	HealthMissingDirFmt           = "missing namespace directory %s"
	HealthMissingDirRecommend     = "run `pd repair` to recreate it"
	HealthMissingFileFmt          = "manifest-listed file %s is missing"
	HealthMissingFileRecommend    = "run `pd repair` to restore it from the bundle"
	HealthVersionOKFmt            = "installed bundle version %s"
	HealthVersionMissing          = "version file is missing"
	HealthVersionMissingRecommend = "run `pd repair` to rewrite it"
	HealthVersionInvalidFmt       = "version file holds invalid version %q"
	HealthDigestOKFmt             = "%s matches its recorded digest"
	HealthDigestMismatchFmt       = "%s no longer matches its recorded digest"
	HealthDigestMismatchRecommend = "run `pd repair` to restore the recorded content"
	HealthDigestUnreadableFmt     = "%s could not be hashed: %v"
	HealthManifestUnreadableFmt   = "manifest could not be loaded: %v"
	HealthManifestRecommend       = "run `pd repair` to rebuild installation state"
)
