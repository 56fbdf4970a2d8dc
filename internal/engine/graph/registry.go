package graph

import (
	"path/filepath"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Registry owns the assets of one run and hands out a single Asset per path.
type Registry struct {
	fs     ports.FileSystem
	logger ports.Logger
	opts   []AssetOption

	mu     sync.Mutex
	assets map[string]*Asset
	order  []*Asset
}

// NewRegistry creates an empty Registry whose assets share fs, logger and opts.
func NewRegistry(fs ports.FileSystem, logger ports.Logger, opts ...AssetOption) *Registry {
	return &Registry{
		fs:     fs,
		logger: logger,
		opts:   opts,
		assets: make(map[string]*Asset),
	}
}

// Source returns the source asset for path, creating it on first use.
func (r *Registry) Source(path string) (*Asset, error) {
	return r.asset(path, domain.RoleSource)
}

// Generated returns the generated asset for path, creating it on first use.
func (r *Registry) Generated(path string) (*Asset, error) {
	return r.asset(path, domain.RoleGenerated)
}

// Assets returns every registered asset in registration order.
func (r *Registry) Assets() []*Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Asset(nil), r.order...)
}

// Len returns the number of distinct assets.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Unit builds a Unit from spec, resolving every path through the registry.
func (r *Registry) Unit(spec domain.UnitSpec, renderer ports.Renderer) (*Unit, error) {
	target, err := r.Generated(spec.Target)
	if err != nil {
		return nil, err
	}
	primary, err := r.Source(spec.Primary)
	if err != nil {
		return nil, err
	}

	auxiliaries := make([]NamedAsset, 0, len(spec.Auxiliaries))
	for _, np := range spec.Auxiliaries {
		a, err := r.Source(np.Path)
		if err != nil {
			return nil, err
		}
		auxiliaries = append(auxiliaries, NamedAsset{Name: np.Name, Asset: a})
	}

	return NewUnit(target, primary, auxiliaries, renderer, spec.Options, WithRendererKind(spec.Renderer))
}

func (r *Registry) asset(path string, role domain.Role) (*Asset, error) {
	if path == "" {
		return nil, domain.ErrEmptyPath
	}
	key := filepath.Clean(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.assets[key]; ok {
		if a.Role() != role {
			return nil, zerr.With(zerr.With(domain.ErrRoleConflict, "path", key), "role", a.Role().String())
		}
		return a, nil
	}

	a, err := NewAsset(key, role, r.fs, r.logger, r.opts...)
	if err != nil {
		return nil, err
	}
	r.assets[key] = a
	r.order = append(r.order, a)
	return a, nil
}
