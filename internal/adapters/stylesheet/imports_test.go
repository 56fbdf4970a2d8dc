package stylesheet_test

import (
	"testing"

	"github.com/bep/godartsass/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/stylesheet"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

func TestScanImports(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{name: "own line", src: "@import \"colors\";\n", want: []string{"colors"}},
		{name: "followed by rules", src: "@import \"missing\"; body{}\n", want: []string{"missing"}},
		{name: "comma list", src: "@import \"a\", 'b';\n", want: []string{"a", "b"}},
		{name: "two on one line", src: "@import \"a\"; @import \"b\";", want: []string{"a", "b"}},
		{name: "list across lines", src: "@import \"a\",\n  \"b\";\nmain { x: y; }", want: []string{"a", "b"}},
		{name: "use with namespace", src: "@use \"colors\" as c;\n", want: []string{"colors"}},
		{name: "use with configuration", src: "@use \"config\" with ($ink: \"red\");\n", want: []string{"config"}},
		{name: "forward", src: "@forward \"src/list\" hide list-reset;", want: []string{"src/list"}},
		{name: "url import", src: "@import url(\"theme.css\");", want: nil},
		{name: "line comment", src: "// @import \"a\";\nbody{}", want: nil},
		{name: "block comment", src: "/* @import \"a\"; */ @use \"b\";", want: []string{"b"}},
		{name: "inside string", src: "a::after { content: \"@import 'x'\"; }", want: nil},
		{name: "other at-rules", src: "@media screen { a { b: c; } }\n@include box(\"x\");", want: nil},
		{name: "no semicolon at end", src: "@use \"last\"", want: []string{"last"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stylesheet.ScanImports(tt.src))
		})
	}
}

func TestResolver(t *testing.T) {
	resolver, err := stylesheet.NewResolver(map[string]ports.Source{
		"_colors": source{path: "style/_colors.scss", content: "$ink: #222;"},
		"grid":    source{path: "style/grid.sass", content: ".grid\n  display: grid"},
	})
	require.NoError(t, err)

	tests := []struct {
		url  string
		want string
	}{
		{url: "colors", want: "kiln:///colors"},
		{url: "_colors.scss", want: "kiln:///colors"},
		{url: "partials/colors", want: "kiln:///colors"},
		{url: "kiln:///grid", want: "kiln:///grid"},
		{url: "missing", want: ""},
		{url: "sass:math", want: ""},
		{url: "https://example.com/x.scss", want: ""},
	}
	for _, tt := range tests {
		got, err := resolver.CanonicalizeURL(tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.url)
	}

	imp, err := resolver.Load("kiln:///colors")
	require.NoError(t, err)
	assert.Equal(t, godartsass.Import{Content: "$ink: #222;", SourceSyntax: godartsass.SourceSyntaxSCSS}, imp)

	imp, err = resolver.Load("kiln:///grid")
	require.NoError(t, err)
	assert.Equal(t, godartsass.SourceSyntaxSASS, imp.SourceSyntax)

	_, err = resolver.Load("kiln:///missing")
	assert.ErrorContains(t, err, domain.ErrImportNotFound.Error())
}

func TestResolver_NormalizedNameCollision(t *testing.T) {
	aux := map[string]ports.Source{
		"theme":       source{path: "style/theme.scss", content: ".x{}"},
		"_theme.scss": source{path: "style/_theme.scss", content: ".y{}"},
	}

	for range 20 {
		_, err := stylesheet.NewResolver(aux)
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrDuplicateAuxiliaryName.Error())
	}
}
