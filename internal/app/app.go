// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/graph"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Banner is logged at the start of every build.
const Banner = "generated files are only updated if sources are newer"

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	fs           ports.FileSystem
	logger       ports.Logger
	store        ports.BuildRecordStore
	hasher       ports.Hasher
	watcher      ports.Watcher
	renderers    map[domain.RendererKind]ports.Renderer
	out          io.Writer
	debounce     time.Duration
	getwd        func() (string, error)
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	fsys ports.FileSystem,
	log ports.Logger,
	store ports.BuildRecordStore,
	hasher ports.Hasher,
	w ports.Watcher,
	renderers map[domain.RendererKind]ports.Renderer,
) *App {
	return &App{
		configLoader: loader,
		fs:           fsys,
		logger:       log,
		store:        store,
		hasher:       hasher,
		watcher:      w,
		renderers:    renderers,
		out:          os.Stdout,
		debounce:     watcher.DefaultDebounceWindow,
		getwd:        os.Getwd,
	}
}

// WithOutput sets where plan, status and trace output is written.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithDebounceWindow sets the quiet period watch mode waits for before rebuilding.
func (a *App) WithDebounceWindow(d time.Duration) *App {
	a.debounce = d
	return a
}

// WithWorkingDir sets the directory manifest discovery starts from.
// This is primarily used for testing.
func (a *App) WithWorkingDir(dir string) *App {
	a.getwd = func() (string, error) { return dir, nil }
	return a
}

// Close releases resources held by renderers, such as the Dart Sass process.
func (a *App) Close() error {
	var errs error
	for _, r := range a.renderers {
		if c, ok := r.(io.Closer); ok {
			errs = errors.Join(errs, c.Close())
		}
	}
	return errs
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	ConfigPath string
	Strict     bool
	Trace      bool
}

// Build regenerates every outdated artifact of the manifest.
//
// Failed and skipped units are reported through the logger. With Strict set
// they also make Build return domain.ErrBuildFailed.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	m, err := a.loadManifest(opts.ConfigPath)
	if err != nil {
		return err
	}

	report, err := a.build(ctx, m, opts.Trace)
	if err != nil {
		return err
	}

	if opts.Strict {
		return report.Err()
	}
	return nil
}

func (a *App) build(ctx context.Context, m *domain.Manifest, trace bool) (*scheduler.Report, error) {
	a.logger.Info(Banner)

	units, err := a.units(m)
	if err != nil {
		return nil, err
	}

	tracer, shutdown := a.tracer(trace)
	defer func() {
		_ = shutdown(context.WithoutCancel(ctx))
	}()

	sched := scheduler.NewScheduler(a.store, a.hasher, tracer, a.logger)
	report, err := sched.Run(ctx, units, scheduler.WithRecordRoot(m.Root))
	if err != nil {
		return nil, err
	}

	a.logger.Info(summary(report))
	return report, nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	ConfigPath string
	Artifacts  bool
}

// Clean removes the kiln state directory and, optionally, every generated artifact.
func (a *App) Clean(ctx context.Context, opts CleanOptions) error {
	m, err := a.loadManifest(opts.ConfigPath)
	if err != nil {
		return err
	}

	var errs error

	state := filepath.Join(m.Root, domain.DefaultKilnPath())
	a.logger.Info("removing " + relPath(m.Root, state))
	if err := a.fs.RemoveAll(ctx, state); err != nil {
		errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove kiln state"), "path", state))
	}

	if !opts.Artifacts {
		return errs
	}

	for _, target := range m.Targets() {
		if err := a.fs.Remove(ctx, target); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove artifact"), "path", target))
			continue
		}
		a.logger.Info("removed " + relPath(m.Root, target))
	}

	return errs
}

// loadManifest loads the manifest at path, or discovers one from the working directory.
func (a *App) loadManifest(path string) (*domain.Manifest, error) {
	if path == "" {
		cwd, err := a.getwd()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to get working directory")
		}
		path, err = a.configLoader.Discover(cwd)
		if err != nil {
			return nil, err
		}
	}

	m, err := a.configLoader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return m, nil
}

// units builds a fresh registry and one unit per manifest entry.
func (a *App) units(m *domain.Manifest) ([]*graph.Unit, error) {
	reg := graph.NewRegistry(a.fs, a.logger, graph.WithIOTimeout(m.IOTimeout))

	units := make([]*graph.Unit, 0, len(m.Units))
	for _, spec := range m.Units {
		renderer, ok := a.renderers[spec.Renderer]
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrUnknownRenderer, "renderer", string(spec.Renderer)), "target", spec.Target)
		}
		u, err := reg.Unit(spec, renderer)
		if err != nil {
			return nil, zerr.With(err, "target", spec.Target)
		}
		units = append(units, u)
	}
	return units, nil
}

// tracer returns the tracer for one run and the function that flushes it.
func (a *App) tracer(trace bool) (ports.Tracer, func(context.Context) error) {
	if !trace {
		return telemetry.NewNoOpTracer(), func(context.Context) error { return nil }
	}

	progress := linear.NewProgress(a.out)
	provider := telemetry.NewProvider(progress)
	provider.Install()

	return provider.Tracer("kiln", progress), provider.Shutdown
}

func summary(r *scheduler.Report) string {
	return fmt.Sprintf("%d generated, %d current, %d failed, %d skipped",
		r.Count(domain.StateDone),
		r.Count(domain.StateCurrent),
		r.Count(domain.StateFailed),
		r.Count(domain.StateSkipped),
	)
}

// relPath returns path relative to root, or path unchanged if it lies elsewhere.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
