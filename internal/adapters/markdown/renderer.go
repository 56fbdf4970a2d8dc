// Package markdown converts markdown documents to HTML with goldmark,
// optionally wrapped in a mustache layout.
package markdown

import (
	"bytes"
	"context"
	"maps"
	"sync"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.trai.ch/kiln/internal/adapters/mustache"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// LayoutName is the auxiliary that wraps the converted document.
	LayoutName = "layout"
	// ContentKey exposes the converted HTML to the layout. Use {{{content}}}.
	ContentKey = "content"
)

var _ ports.Renderer = (*Renderer)(nil)

type converterKey struct {
	style  string
	unsafe bool
}

// Renderer implements ports.Renderer for markdown units.
// Front matter keys are available to the layout; other auxiliaries are layout partials.
type Renderer struct {
	mu         sync.Mutex
	converters map[converterKey]goldmark.Markdown
}

// New creates a markdown Renderer.
func New() *Renderer {
	return &Renderer{converters: make(map[converterKey]goldmark.Markdown)}
}

// Render implements ports.Renderer.
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

	doc, err := primary.Content()
	if err != nil {
		return nil, err
	}

	md, err := r.converter(opts.Markdown)
	if err != nil {
		return nil, zerr.With(err, "output", outputPath)
	}

	pc := parser.NewContext()
	var buf bytes.Buffer
	if err := md.Convert([]byte(doc), &buf, parser.WithContext(pc)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to convert markdown"), "source", primary.Path())
	}

	front, err := meta.TryGet(pc)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid front matter"), "source", primary.Path())
	}

	layout, ok := auxiliaries[LayoutName]
	if !ok {
		return buf.Bytes(), nil
	}

	tmpl, err := layout.Content()
	if err != nil {
		return nil, zerr.With(err, "layout", layout.Path())
	}

	partialSources := maps.Clone(auxiliaries)
	delete(partialSources, LayoutName)
	partials, err := mustache.Partials(partialSources)
	if err != nil {
		return nil, err
	}

	out, err := mustache.Render(tmpl, partials,
		map[string]any{ContentKey: buf.String()},
		mustache.Builtins(opts.Template),
		front,
		mustache.Vars(opts.Template),
	)
	if err != nil {
		return nil, zerr.With(zerr.With(err, "layout", layout.Path()), "output", outputPath)
	}
	return []byte(out), nil
}

// converter returns the goldmark instance for opts, building it once.
func (r *Renderer) converter(opts domain.MarkdownOptions) (goldmark.Markdown, error) {
	key := converterKey{style: opts.HighlightStyle, unsafe: opts.Unsafe}

	r.mu.Lock()
	defer r.mu.Unlock()

	if md, ok := r.converters[key]; ok {
		return md, nil
	}

	exts := []goldmark.Extender{extension.GFM, meta.Meta}
	if opts.HighlightStyle != "" {
		style, ok := styles.Registry[opts.HighlightStyle]
		if !ok {
			return nil, zerr.With(domain.ErrUnknownHighlightStyle, "style", opts.HighlightStyle)
		}
		exts = append(exts, highlighting.NewHighlighting(highlighting.WithCustomStyle(style)))
	}

	var rendererOpts []goldmark.Option
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	md := goldmark.New(append(rendererOpts, goldmark.WithExtensions(exts...))...)
	r.converters[key] = md
	return md, nil
}
