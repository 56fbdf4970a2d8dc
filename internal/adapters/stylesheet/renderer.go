// Package stylesheet compiles Sass stylesheets with Dart Sass. Imports resolve
// against the unit's named auxiliaries only.
package stylesheet

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// DefaultBinary is the Dart Sass executable looked up in PATH.
	DefaultBinary = "sass"
	// DefaultTimeout bounds a single compilation.
	DefaultTimeout = 30 * time.Second
)

const sourceMapPrefix = "/*# sourceMappingURL=data:application/json;base64,"

var _ ports.Renderer = (*Renderer)(nil)

// Renderer compiles a root stylesheet through a Dart Sass process shared by all
// units. The process is started on first use.
type Renderer struct {
	binary  string
	timeout time.Duration
	logger  ports.Logger

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBinary sets the Dart Sass executable.
func WithBinary(path string) Option {
	return func(r *Renderer) {
		r.binary = path
	}
}

// WithTimeout sets how long one compilation may take.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		r.timeout = d
	}
}

// WithLogger forwards @warn, @debug and deprecation messages to log.
func WithLogger(log ports.Logger) Option {
	return func(r *Renderer) {
		r.logger = log
	}
}

// New creates a stylesheet Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		binary:  DefaultBinary,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render implements ports.Renderer.
//
// Unknown imports, import cycles and auxiliary names that collide once
// normalized are rejected before Dart Sass is involved.
func (r *Renderer) Render(
	ctx context.Context,
	outputPath string,
	primary ports.Source,
	auxiliaries map[string]ports.Source,
	opts domain.RenderOptions,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := primary.Content()
	if err != nil {
		return nil, err
	}

	frags, err := newFragments(auxiliaries)
	if err != nil {
		return nil, zerr.With(err, "output", outputPath)
	}
	if err := frags.check(primary.Path(), root); err != nil {
		return nil, zerr.With(err, "output", outputPath)
	}

	t, err := r.start()
	if err != nil {
		return nil, zerr.With(err, "output", outputPath)
	}

	args := godartsass.Args{
		Source:                  root,
		URL:                     scheme + filepath.Base(primary.Path()),
		SourceSyntax:            syntaxOf(primary.Path()),
		OutputStyle:             godartsass.OutputStyleExpanded,
		ImportResolver:          frags,
		EnableSourceMap:         opts.Stylesheet.SourceComments,
		SourceMapIncludeSources: opts.Stylesheet.SourceComments,
	}
	if opts.Stylesheet.Minify {
		args.OutputStyle = godartsass.OutputStyleCompressed
	}

	res, err := t.Execute(args)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to compile stylesheet"), "output", outputPath)
	}

	css := strings.TrimRight(res.CSS, "\n")
	if res.SourceMap != "" {
		css += "\n" + sourceMapPrefix + base64.StdEncoding.EncodeToString([]byte(res.SourceMap)) + " */"
	}
	return []byte(css + "\n"), nil
}

// Close stops the Dart Sass process, if one is running.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.transpiler == nil || r.transpiler.IsShutDown() {
		r.transpiler = nil
		return nil
	}
	err := r.transpiler.Close()
	r.transpiler = nil
	return err
}

// start returns the running transpiler, starting a new one if none is alive.
func (r *Renderer) start() (*godartsass.Transpiler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.transpiler != nil && !r.transpiler.IsShutDown() {
		return r.transpiler, nil
	}

	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: r.binary,
		Timeout:                  r.timeout,
		LogEventHandler:          r.logEvent,
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStyleCompilerUnavailable.Error()), "binary", r.binary)
	}
	r.transpiler = t
	return t, nil
}

func (r *Renderer) logEvent(e godartsass.LogEvent) {
	if r.logger == nil {
		return
	}
	if e.Type == godartsass.LogEventTypeDebug {
		r.logger.Info(e.Message)
		return
	}
	r.logger.Warn(e.Message)
}

func syntaxOf(path string) godartsass.SourceSyntax {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sass":
		return godartsass.SourceSyntaxSASS
	case ".css":
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}
