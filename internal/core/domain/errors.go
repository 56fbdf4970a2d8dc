package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidUnit is returned when a build unit is malformed (nil assets, wrong roles, missing renderer).
	ErrInvalidUnit = zerr.New("invalid build unit")

	// ErrDuplicateAuxiliaryName is returned when two auxiliaries of one unit share a name.
	ErrDuplicateAuxiliaryName = zerr.New("duplicate auxiliary name")

	// ErrDuplicateTarget is returned when two build units generate the same output path.
	ErrDuplicateTarget = zerr.New("duplicate build target")

	// ErrGeneratedAsSource is returned when a generated path is also used as a source.
	ErrGeneratedAsSource = zerr.New("generated asset is used as a source")

	// ErrDuplicateAsset is returned when two distinct assets are registered for the same path.
	ErrDuplicateAsset = zerr.New("path is bound to more than one asset")

	// ErrRoleConflict is returned when a path is requested with a role that differs from its registration.
	ErrRoleConflict = zerr.New("asset role conflict")

	// ErrUnknownRenderer is returned when a unit names a renderer kind that is not registered.
	ErrUnknownRenderer = zerr.New("unknown renderer")

	// ErrEmptyPath is returned when an asset path is empty.
	ErrEmptyPath = zerr.New("asset path is empty")

	// ErrSourceUnreadable is returned when a source asset cannot be stat'd or read.
	ErrSourceUnreadable = zerr.New("source asset is unreadable")

	// ErrArtifactMissing is returned when a generated asset does not exist yet.
	ErrArtifactMissing = zerr.New("generated asset does not exist")

	// ErrStatUnresolved is returned when staleness is evaluated before an asset's stat settled.
	ErrStatUnresolved = zerr.New("asset stat has not resolved")

	// ErrContentNotLoaded is returned when asset content is read before it was loaded.
	ErrContentNotLoaded = zerr.New("asset content not loaded")

	// ErrRenderFailed is returned when a renderer fails to produce an artifact.
	ErrRenderFailed = zerr.New("failed to render artifact")

	// ErrWriteFailed is returned when a rendered artifact cannot be written.
	ErrWriteFailed = zerr.New("failed to write artifact")

	// ErrImportNotFound is returned when a stylesheet imports a fragment that is not an auxiliary.
	ErrImportNotFound = zerr.New("stylesheet import not found")

	// ErrImportCycle is returned when stylesheet imports form a cycle.
	ErrImportCycle = zerr.New("stylesheet import cycle")

	// ErrStyleCompilerUnavailable is returned when the Dart Sass compiler cannot be started.
	ErrStyleCompilerUnavailable = zerr.New("stylesheet compiler is unavailable")

	// ErrUnknownHighlightStyle is returned when a markdown unit names a highlight style chroma does not know.
	ErrUnknownHighlightStyle = zerr.New("unknown highlight style")

	// ErrBuildFailed is returned in strict mode when at least one unit failed or was skipped.
	ErrBuildFailed = zerr.New("build failed")

	// ErrConfigNotFound is returned when no manifest can be found.
	ErrConfigNotFound = zerr.New("could not find kiln.yaml, kiln.hcl or kiln.jsonc")

	// ErrConfigReadFailed is returned when the manifest cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the manifest cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnsupportedConfigFormat is returned when the manifest extension is not recognized.
	ErrUnsupportedConfigFormat = zerr.New("unsupported config format")

	// ErrInvalidTimeout is returned when the configured I/O timeout cannot be parsed.
	ErrInvalidTimeout = zerr.New("invalid io timeout")

	// ErrStoreCreateFailed is returned when the build record store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build record store directory")

	// ErrStoreReadFailed is returned when a build record cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build record")

	// ErrStoreUnmarshalFailed is returned when a build record cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build record")

	// ErrStoreMarshalFailed is returned when a build record cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build record")

	// ErrStoreWriteFailed is returned when a build record cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build record")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrWatchFailed is returned when the file watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to start file watcher")
)
