package markdown_test

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/markdown"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

type source struct {
	path    string
	content string
}

func (s source) Path() string             { return s.path }
func (s source) Content() (string, error) { return s.content, nil }

const note = `---
title: First note
---
# Hello

Some *text* and ~~old~~ words.
`

func render(t *testing.T, doc string, aux map[string]ports.Source, opts domain.RenderOptions) string {
	t.Helper()
	out, err := markdown.New().Render(context.Background(), "public/notes/first.html",
		source{path: "notes/first.md", content: doc}, aux, opts)
	require.NoError(t, err)
	return string(out)
}

func TestRenderer_Golden(t *testing.T) {
	layout := map[string]ports.Source{
		"layout": source{
			path:    "src/_layout.mustache",
			content: "<html><head><title>{{title}} | {{site}}</title></head><body>{{> nav}}{{{content}}}</body></html>\n",
		},
		"nav": source{path: "src/_nav.mustache", content: `<a href="{{path-prefix}}index.html">home</a>`},
	}
	opts := domain.RenderOptions{Template: domain.TemplateOptions{
		PathPrefix: "../",
		Vars:       map[string]string{"site": "kiln", "title": "ignored"},
	}}

	tests := []struct {
		name string
		aux  map[string]ports.Source
		opts domain.RenderOptions
	}{
		{name: "document_only"},
		{name: "with_layout", aux: layout, opts: opts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := goldie.New(t)
			g.Assert(t, tt.name, []byte(render(t, note, tt.aux, tt.opts)))
		})
	}
}

func TestRenderer_RawHTML(t *testing.T) {
	doc := "<div>raw</div>\n"

	assert.Equal(t, "<!-- raw HTML omitted -->\n", render(t, doc, nil, domain.RenderOptions{}))
	assert.Equal(t, doc, render(t, doc, nil, domain.RenderOptions{
		Markdown: domain.MarkdownOptions{Unsafe: true},
	}))
}

func TestRenderer_Highlighting(t *testing.T) {
	doc := "```go\nfunc main() {}\n```\n"

	plain := render(t, doc, nil, domain.RenderOptions{})
	assert.Equal(t, "<pre><code class=\"language-go\">func main() {}\n</code></pre>\n", plain)

	highlighted := render(t, doc, nil, domain.RenderOptions{
		Markdown: domain.MarkdownOptions{HighlightStyle: "monokai"},
	})
	assert.Contains(t, highlighted, `style="`)
	assert.Contains(t, highlighted, "func")
	assert.NotContains(t, highlighted, "language-go")
}

func TestRenderer_UnknownHighlightStyle(t *testing.T) {
	_, err := markdown.New().Render(context.Background(), "a.html",
		source{path: "a.md", content: "x"}, nil,
		domain.RenderOptions{Markdown: domain.MarkdownOptions{HighlightStyle: "no-such-style"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrUnknownHighlightStyle.Error())
}

func TestRenderer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := markdown.New().Render(ctx, "a.html", source{path: "a.md"}, nil, domain.RenderOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
