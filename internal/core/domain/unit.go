package domain

// RendererKind names a registered renderer implementation.
type RendererKind string

const (
	// RendererTemplate interpolates a mustache template with named partials.
	RendererTemplate RendererKind = "template"
	// RendererStylesheet compiles a root stylesheet with named importable fragments.
	RendererStylesheet RendererKind = "stylesheet"
	// RendererMarkdown converts a markdown document, optionally wrapped in a layout template.
	RendererMarkdown RendererKind = "markdown"
)

// RendererKinds lists every renderer kind known to kiln.
func RendererKinds() []RendererKind {
	return []RendererKind{RendererTemplate, RendererStylesheet, RendererMarkdown}
}

// Valid reports whether k is a known renderer kind.
func (k RendererKind) Valid() bool {
	for _, known := range RendererKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// NamedPath binds an explicit lookup name to an auxiliary source path.
type NamedPath struct {
	Name string
	Path string
}

// UnitSpec is the static description of one generated artifact.
type UnitSpec struct {
	Target      string
	Renderer    RendererKind
	Primary     string
	Auxiliaries []NamedPath
	Options     RenderOptions
}

// Sources returns the primary path followed by every auxiliary path.
func (s UnitSpec) Sources() []string {
	out := make([]string, 0, len(s.Auxiliaries)+1)
	out = append(out, s.Primary)
	for _, aux := range s.Auxiliaries {
		out = append(out, aux.Path)
	}
	return out
}

// RenderOptions carries the typed options of every renderer kind.
// Each renderer reads only its own section.
type RenderOptions struct {
	Template   TemplateOptions
	Stylesheet StylesheetOptions
	Markdown   MarkdownOptions
}

// TemplateOptions configures template interpolation.
type TemplateOptions struct {
	// AllowScripts is exposed to templates as "allow-scripts".
	AllowScripts bool
	// PathPrefix is exposed to templates as "path-prefix", e.g. "../" for nested pages.
	PathPrefix string
	// Vars are additional string values exposed to templates by name.
	Vars map[string]string
}

// StylesheetOptions configures stylesheet compilation.
type StylesheetOptions struct {
	// SourceComments appends an inline source map that names the fragment behind every rule.
	SourceComments bool
	// Minify selects compressed output.
	Minify bool
}

// MarkdownOptions configures markdown conversion.
type MarkdownOptions struct {
	// HighlightStyle is the chroma style used for fenced code blocks. Empty disables highlighting.
	HighlightStyle string
	// Unsafe allows raw HTML in markdown sources to pass through.
	Unsafe bool
}
