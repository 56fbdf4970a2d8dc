// Package mustache renders template units with github.com/cbroglie/mustache.
package mustache

import (
	"context"
	"maps"

	cbmustache "github.com/cbroglie/mustache"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// AllowScriptsKey exposes TemplateOptions.AllowScripts to templates.
	AllowScriptsKey = "allow-scripts"
	// PathPrefixKey exposes TemplateOptions.PathPrefix to templates.
	PathPrefixKey = "path-prefix"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer interpolates the primary template with auxiliaries as named partials.
// A partial the template references but the unit does not declare renders empty.
type Renderer struct{}

// New creates a template Renderer.
func New() *Renderer {
	return &Renderer{}
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

	tmpl, err := primary.Content()
	if err != nil {
		return nil, err
	}

	partials, err := Partials(auxiliaries)
	if err != nil {
		return nil, err
	}

	out, err := Render(tmpl, partials, Data(opts.Template))
	if err != nil {
		return nil, zerr.With(zerr.With(err, "template", primary.Path()), "output", outputPath)
	}
	return []byte(out), nil
}

// Data builds the template context for opts. Vars never shadow the built-in keys.
func Data(opts domain.TemplateOptions) map[string]any {
	data := Vars(opts)
	maps.Copy(data, Builtins(opts))
	return data
}

// Builtins returns the keys every template sees regardless of its vars.
func Builtins(opts domain.TemplateOptions) map[string]any {
	return map[string]any{
		AllowScriptsKey: opts.AllowScripts,
		PathPrefixKey:   opts.PathPrefix,
	}
}

// Vars returns the user-defined template variables.
func Vars(opts domain.TemplateOptions) map[string]any {
	vars := make(map[string]any, len(opts.Vars))
	for k, v := range opts.Vars {
		vars[k] = v
	}
	return vars
}

// Partials reads the content of every auxiliary, keyed by its name.
func Partials(auxiliaries map[string]ports.Source) (map[string]string, error) {
	partials := make(map[string]string, len(auxiliaries))
	for name, src := range auxiliaries {
		content, err := src.Content()
		if err != nil {
			return nil, zerr.With(err, "partial", name)
		}
		partials[name] = content
	}
	return partials, nil
}

// Render interpolates tmpl against the merged contexts, first context winning.
func Render(tmpl string, partials map[string]string, contexts ...map[string]any) (string, error) {
	merged := make(map[string]any)
	for i := len(contexts) - 1; i >= 0; i-- {
		maps.Copy(merged, contexts[i])
	}
	return cbmustache.RenderPartials(tmpl, &cbmustache.StaticProvider{Partials: partials}, merged)
}
