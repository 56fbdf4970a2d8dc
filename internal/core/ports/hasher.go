package ports

// Hasher computes content digests for generated artifacts.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// Digest returns the hex digest of data.
	Digest(data []byte) string

	// ComputeFileDigest returns the hex digest of the file at path.
	ComputeFileDigest(path string) (string, error)
}
