package graph

import (
	"context"
	"sync/atomic"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// NamedAsset is an auxiliary source together with the name the renderer sees it under.
type NamedAsset struct {
	Name  string
	Asset *Asset
}

// Result describes a successful generation.
type Result struct {
	Target string
	Output []byte
}

// Unit derives one generated asset from a primary source and named auxiliaries.
type Unit struct {
	target      *Asset
	primary     *Asset
	auxiliaries []NamedAsset
	renderer    ports.Renderer
	kind        domain.RendererKind
	options     domain.RenderOptions

	state atomic.Uint32
}

// UnitOption configures a Unit.
type UnitOption func(*Unit)

// WithRendererKind records which renderer kind produced the unit.
func WithRendererKind(kind domain.RendererKind) UnitOption {
	return func(u *Unit) {
		u.kind = kind
	}
}

// NewUnit validates and creates a Unit.
func NewUnit(
	target, primary *Asset,
	auxiliaries []NamedAsset,
	renderer ports.Renderer,
	options domain.RenderOptions,
	opts ...UnitOption,
) (*Unit, error) {
	if target == nil || primary == nil || renderer == nil {
		return nil, zerr.Wrap(domain.ErrInvalidUnit, "target, primary and renderer are required")
	}
	if target.Role() != domain.RoleGenerated {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "target must be a generated asset"), "path", target.Path())
	}
	if primary.Role() != domain.RoleSource {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "primary must be a source asset"), "path", primary.Path())
	}

	seen := make(map[string]struct{}, len(auxiliaries))
	for _, aux := range auxiliaries {
		if aux.Name == "" || aux.Asset == nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "auxiliary requires a name and an asset"), "target", target.Path())
		}
		if aux.Asset.Role() != domain.RoleSource {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "auxiliary must be a source asset"), "path", aux.Asset.Path())
		}
		if aux.Asset == primary {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "primary is listed as an auxiliary"), "path", primary.Path())
		}
		if _, dup := seen[aux.Name]; dup {
			return nil, zerr.With(zerr.With(domain.ErrDuplicateAuxiliaryName, "name", aux.Name), "target", target.Path())
		}
		seen[aux.Name] = struct{}{}
	}

	u := &Unit{
		target:      target,
		primary:     primary,
		auxiliaries: append([]NamedAsset(nil), auxiliaries...),
		renderer:    renderer,
		options:     options,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.setState(domain.StateUnstat)
	return u, nil
}

// Target returns the generated asset.
func (u *Unit) Target() *Asset {
	return u.target
}

// Primary returns the primary source.
func (u *Unit) Primary() *Asset {
	return u.primary
}

// Auxiliaries returns the named auxiliary sources in declaration order.
func (u *Unit) Auxiliaries() []NamedAsset {
	return append([]NamedAsset(nil), u.auxiliaries...)
}

// Kind returns the renderer kind, if one was recorded.
func (u *Unit) Kind() domain.RendererKind {
	return u.kind
}

// Sources returns the primary followed by every auxiliary.
func (u *Unit) Sources() []*Asset {
	sources := make([]*Asset, 0, 1+len(u.auxiliaries))
	sources = append(sources, u.primary)
	for _, aux := range u.auxiliaries {
		sources = append(sources, aux.Asset)
	}
	return sources
}

// Assets returns the target followed by every source.
func (u *Unit) Assets() []*Asset {
	return append([]*Asset{u.target}, u.Sources()...)
}

// Validate reports whether u is well formed. Only units created by NewUnit are.
func (u *Unit) Validate() error {
	if u == nil {
		return zerr.Wrap(domain.ErrInvalidUnit, "unit is nil")
	}
	if u.target == nil || u.primary == nil || u.renderer == nil {
		return zerr.Wrap(domain.ErrInvalidUnit, "unit was not created by NewUnit")
	}
	return nil
}

// State returns the current lifecycle state.
func (u *Unit) State() domain.UnitState {
	return domain.UnitState(u.state.Load())
}

func (u *Unit) setState(s domain.UnitState) {
	u.state.Store(uint32(s))
}

// IsOutdated decides whether the target must be regenerated.
// Every asset of the unit must have finished its stat attempt.
//
// An unreadable or unresolved source yields false with an error and marks the
// unit skipped, even when the target is missing.
func (u *Unit) IsOutdated() (bool, error) {
	for _, src := range u.Sources() {
		if err := src.statErr(); err != nil {
			u.setState(domain.StateSkipped)
			return false, zerr.With(err, "target", u.target.Path())
		}
	}

	if _, settled := u.target.stat.peek(); !settled {
		u.setState(domain.StateSkipped)
		return false, zerr.With(u.target.statErr(), "target", u.target.Path())
	}

	targetTime, built := u.target.ModTime()
	if !built {
		u.setState(domain.StateOutdated)
		return true, nil
	}

	for _, src := range u.Sources() {
		srcTime, _ := src.ModTime()
		if srcTime.After(targetTime) {
			u.setState(domain.StateOutdated)
			return true, nil
		}
	}

	u.setState(domain.StateCurrent)
	return false, nil
}

// Generate loads every source, renders the target and writes it.
//
// Loads are shared with every other unit that references the same asset, so
// ctx must not be cancelled on behalf of a single unit.
func (u *Unit) Generate(ctx context.Context) (Result, error) {
	u.setState(domain.StateLoading)

	var g errgroup.Group
	for _, src := range u.Sources() {
		g.Go(func() error {
			_, err := src.Load(ctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		err = zerr.With(err, "target", u.target.Path())
		u.setState(domain.StateSkipped)
		u.target.logger.Error(err)
		return Result{}, err
	}

	u.setState(domain.StateRendering)

	aux := make(map[string]ports.Source, len(u.auxiliaries))
	for _, a := range u.auxiliaries {
		aux[a.Name] = a.Asset
	}

	out, err := u.renderer.Render(ctx, u.target.Path(), u.primary, aux, u.options)
	if err != nil {
		return Result{}, u.fail(zerr.With(zerr.Wrap(err, domain.ErrRenderFailed.Error()), "target", u.target.Path()))
	}

	if err := u.target.write(ctx, out); err != nil {
		return Result{}, u.fail(zerr.With(zerr.Wrap(err, domain.ErrWriteFailed.Error()), "target", u.target.Path()))
	}

	u.setState(domain.StateDone)
	u.target.logger.Info("generated " + u.target.Path())
	return Result{Target: u.target.Path(), Output: out}, nil
}

func (u *Unit) fail(err error) error {
	u.setState(domain.StateFailed)
	u.target.logger.Error(err)
	return err
}
