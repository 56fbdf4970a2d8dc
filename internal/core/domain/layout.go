package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal state directory.
	KilnDirName = ".kiln"

	// StoreDirName is the name of the build record store directory.
	StoreDirName = "store"

	// ManifestBaseName is the file name of the manifest without extension.
	ManifestBaseName = "kiln"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// ManifestFileNames returns the recognized manifest file names in lookup order.
func ManifestFileNames() []string {
	return []string{
		ManifestBaseName + ".yaml",
		ManifestBaseName + ".yml",
		ManifestBaseName + ".hcl",
		ManifestBaseName + ".jsonc",
	}
}

// DefaultKilnPath returns the default root directory for kiln metadata.
func DefaultKilnPath() string {
	return KilnDirName
}

// DefaultStorePath returns the default path for the build record store.
// It joins .kiln and store.
func DefaultStorePath() string {
	return filepath.Join(KilnDirName, StoreDirName)
}
