// Package scheduler runs build units: one stat pass over every distinct asset,
// then independent evaluation and generation of each unit.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/graph"
	"go.trai.ch/zerr"
)

// Scheduler evaluates and regenerates build units.
type Scheduler struct {
	store  ports.BuildRecordStore
	hasher ports.Hasher
	tracer ports.Tracer
	logger ports.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	store ports.BuildRecordStore,
	hasher ports.Hasher,
	tracer ports.Tracer,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		store:  store,
		hasher: hasher,
		tracer: tracer,
		logger: logger,
		now:    time.Now,
	}
}

// RunOption configures a single run.
type RunOption func(*runConfig)

type runConfig struct {
	recordRoot string
	dryRun     bool
}

// WithRecordRoot persists a build record under root after every successful generation.
func WithRecordRoot(root string) RunOption {
	return func(c *runConfig) {
		c.recordRoot = root
	}
}

// Run stats every distinct asset once, waits for all stats to settle, then
// evaluates every unit and regenerates the outdated ones concurrently.
//
// Configuration errors are returned before any I/O. Per-unit failures are
// reported in the Report and never abort other units.
func (s *Scheduler) Run(ctx context.Context, units []*graph.Unit, opts ...RunOption) (*Report, error) {
	return s.run(ctx, units, opts...)
}

// Plan performs the same validation and stat pass as Run and reports which
// units are outdated, without loading or rendering anything.
func (s *Scheduler) Plan(ctx context.Context, units []*graph.Unit, opts ...RunOption) (*Report, error) {
	return s.run(ctx, units, append(opts, func(c *runConfig) { c.dryRun = true })...)
}

func (s *Scheduler) run(ctx context.Context, units []*graph.Unit, opts ...RunOption) (*Report, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	assets, err := validate(units)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := "build"
	if cfg.dryRun {
		name = "plan"
	}
	ctx, span := s.tracer.Start(ctx, name, ports.WithInternal())
	defer span.End()
	span.SetAttribute("kiln.units", len(units))
	span.SetAttribute("kiln.assets", len(assets))

	targets := make([]string, len(units))
	for i, u := range units {
		targets[i] = u.Target().Path()
	}
	s.tracer.EmitPlan(ctx, targets)

	s.statAll(ctx, assets)

	report := &Report{Units: make([]UnitResult, len(units))}
	var wg sync.WaitGroup
	for i, u := range units {
		wg.Go(func() {
			report.Units[i] = s.runUnit(ctx, u, cfg)
		})
	}
	wg.Wait()

	return report, nil
}

// statAll issues one stat per asset and returns once every attempt has settled.
func (s *Scheduler) statAll(ctx context.Context, assets []*graph.Asset) {
	ctx, span := s.tracer.Start(ctx, "stat", ports.WithInternal())
	defer span.End()

	var wg sync.WaitGroup
	for _, a := range assets {
		wg.Go(func() {
			// Failures are memoized on the asset and surface during evaluation.
			_, _ = a.Stat(ctx)
		})
	}
	wg.Wait()
}

func (s *Scheduler) runUnit(ctx context.Context, u *graph.Unit, cfg runConfig) UnitResult {
	start := s.now()
	target := u.Target().Path()

	ctx, span := s.tracer.Start(ctx, target)
	defer span.End()

	res := UnitResult{Target: target, Kind: u.Kind()}
	finish := func() UnitResult {
		res.State = u.State()
		res.Duration = s.now().Sub(start)
		span.SetAttribute("kiln.state", res.State.String())
		if res.Err != nil {
			span.RecordError(res.Err)
		}
		return res
	}

	outdated, err := u.IsOutdated()
	if err != nil {
		res.Err = err
		s.logger.Error(zerr.Wrap(err, "skipping "+target))
		return finish()
	}
	res.Reason = staleness(u)
	if !outdated || cfg.dryRun {
		return finish()
	}

	out, err := u.Generate(ctx)
	if err != nil {
		res.Err = err
		return finish()
	}

	if cfg.recordRoot != "" {
		s.record(u, out, s.now().Sub(start), cfg.recordRoot)
	}
	return finish()
}

func (s *Scheduler) record(u *graph.Unit, out graph.Result, took time.Duration, root string) {
	sources := make([]string, 0, len(u.Sources()))
	for _, src := range u.Sources() {
		sources = append(sources, src.Path())
	}

	rec := domain.BuildRecord{
		Target:       out.Target,
		Renderer:     u.Kind(),
		Sources:      sources,
		OutputDigest: s.hasher.Digest(out.Output),
		Bytes:        len(out.Output),
		BuiltAt:      s.now(),
		Duration:     took,
	}
	if err := s.store.Put(root, rec); err != nil {
		s.logger.Warn("could not store build record for " + out.Target + ": " + err.Error())
	}
}

// staleness describes why an evaluated unit is outdated, or "" if it is current.
func staleness(u *graph.Unit) string {
	targetTime, built := u.Target().ModTime()
	if !built {
		return "artifact missing"
	}
	for _, src := range u.Sources() {
		if t, _ := src.ModTime(); t.After(targetTime) {
			return "newer source " + src.Path()
		}
	}
	return ""
}

// validate checks the unit set and returns every distinct asset in first-seen order.
func validate(units []*graph.Unit) ([]*graph.Asset, error) {
	targets := make(map[string]struct{}, len(units))
	for i, u := range units {
		if err := u.Validate(); err != nil {
			return nil, zerr.With(err, "index", i)
		}
		target := u.Target().Path()
		if _, dup := targets[target]; dup {
			return nil, zerr.With(domain.ErrDuplicateTarget, "target", target)
		}
		targets[target] = struct{}{}
	}

	byPath := make(map[string]*graph.Asset)
	var assets []*graph.Asset
	for _, u := range units {
		for _, src := range u.Sources() {
			if _, generated := targets[src.Path()]; generated {
				return nil, zerr.With(zerr.With(domain.ErrGeneratedAsSource, "path", src.Path()), "target", u.Target().Path())
			}
		}
		for _, a := range u.Assets() {
			seen, ok := byPath[a.Path()]
			if !ok {
				byPath[a.Path()] = a
				assets = append(assets, a)
				continue
			}
			if seen != a {
				return nil, zerr.With(domain.ErrDuplicateAsset, "path", a.Path())
			}
		}
	}
	return assets, nil
}
