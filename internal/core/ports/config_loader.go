package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the build manifest.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Discover walks up from cwd and returns the path of the first manifest found.
	Discover(cwd string) (string, error)

	// Load reads and validates the manifest at path.
	Load(path string) (*domain.Manifest, error)
}
