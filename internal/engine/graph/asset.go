// Package graph implements the build graph: memoized assets, build units and
// the per-run asset registry.
package graph

import (
	"context"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Source = (*Asset)(nil)

// Asset is a file tracked by the build graph.
//
// Stat and Load each perform their I/O at most once per Asset, no matter how
// many callers request them concurrently.
type Asset struct {
	path      string
	role      domain.Role
	fs        ports.FileSystem
	logger    ports.Logger
	ioTimeout time.Duration

	stat memo[time.Time]
	load memo[string]
}

// AssetOption configures an Asset.
type AssetOption func(*Asset)

// WithIOTimeout bounds every filesystem call issued by the Asset.
// A zero or negative duration disables the bound.
func WithIOTimeout(d time.Duration) AssetOption {
	return func(a *Asset) {
		a.ioTimeout = d
	}
}

// NewAsset creates an Asset for path with the given role.
func NewAsset(
	path string,
	role domain.Role,
	fs ports.FileSystem,
	logger ports.Logger,
	opts ...AssetOption,
) (*Asset, error) {
	if path == "" {
		return nil, domain.ErrEmptyPath
	}
	a := &Asset{
		path:   path,
		role:   role,
		fs:     fs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Path returns the asset path.
func (a *Asset) Path() string {
	return a.path
}

// Role returns whether the asset is a source or a generated artifact.
func (a *Asset) Role() domain.Role {
	return a.role
}

// Stat resolves the modification time of the asset.
//
// For a generated asset a failure means the artifact has not been built yet
// and is reported as domain.ErrArtifactMissing. For a source it is reported as
// domain.ErrSourceUnreadable.
func (a *Asset) Stat(ctx context.Context) (time.Time, error) {
	return a.stat.do(func() (time.Time, error) {
		ioCtx, cancel := a.ioContext(ctx)
		defer cancel()

		modTime, err := a.fs.ModTime(ioCtx, a.path)
		if err != nil {
			if a.role == domain.RoleGenerated {
				return time.Time{}, zerr.With(zerr.Wrap(err, domain.ErrArtifactMissing.Error()), "path", a.path)
			}
			return time.Time{}, zerr.With(zerr.Wrap(err, domain.ErrSourceUnreadable.Error()), "path", a.path)
		}
		return modTime, nil
	})
}

// Load reads the asset content. Empty content is allowed but logged as a warning.
func (a *Asset) Load(ctx context.Context) (string, error) {
	return a.load.do(func() (string, error) {
		ioCtx, cancel := a.ioContext(ctx)
		defer cancel()

		data, err := a.fs.ReadFile(ioCtx, a.path)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrSourceUnreadable.Error()), "path", a.path)
		}

		content := string(data)
		if strings.TrimSpace(content) == "" {
			a.logger.Warn(a.path + " is empty")
		}
		return content, nil
	})
}

// Content returns the loaded content.
func (a *Asset) Content() (string, error) {
	res, ok := a.load.peek()
	if !ok || res.err != nil {
		return "", zerr.With(domain.ErrContentNotLoaded, "path", a.path)
	}
	return res.val, nil
}

// IsLoaded reports whether Load completed successfully.
func (a *Asset) IsLoaded() bool {
	res, ok := a.load.peek()
	return ok && res.err == nil
}

// ModTime returns the resolved modification time.
// The boolean is false if Stat has not completed or failed.
func (a *Asset) ModTime() (time.Time, bool) {
	res, ok := a.stat.peek()
	if !ok || res.err != nil {
		return time.Time{}, false
	}
	return res.val, true
}

// statErr returns the settled stat error, or domain.ErrStatUnresolved if Stat has not completed.
func (a *Asset) statErr() error {
	res, ok := a.stat.peek()
	if !ok {
		return zerr.With(domain.ErrStatUnresolved, "path", a.path)
	}
	return res.err
}

// write replaces the asset file with data.
func (a *Asset) write(ctx context.Context, data []byte) error {
	ioCtx, cancel := a.ioContext(ctx)
	defer cancel()
	return a.fs.WriteFile(ioCtx, a.path, data)
}

func (a *Asset) ioContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.ioTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.ioTimeout)
}
