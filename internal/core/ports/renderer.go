package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Source is the read-only view of a loaded asset handed to renderers.
type Source interface {
	// Path returns the asset path.
	Path() string
	// Content returns the loaded text, or domain.ErrContentNotLoaded if loading has not completed.
	Content() (string, error)
}

// Renderer turns loaded dependency content into artifact bytes.
//
// Render is only invoked once the primary and every auxiliary source is loaded.
// The caller writes the returned bytes to outputPath.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	Render(
		ctx context.Context,
		outputPath string,
		primary Source,
		auxiliaries map[string]Source,
		opts domain.RenderOptions,
	) ([]byte, error)
}
