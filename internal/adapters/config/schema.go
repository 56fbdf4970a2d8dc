package config

// Kilnfile is the YAML and JSONC shape of a kiln manifest.
type Kilnfile struct {
	Version   string     `yaml:"version" json:"version"`
	Root      string     `yaml:"root" json:"root"`
	IOTimeout string     `yaml:"io_timeout" json:"io_timeout"`
	Units     []*UnitDTO `yaml:"units" json:"units"`
}

// UnitDTO represents one generated artifact in the manifest.
type UnitDTO struct {
	Target      string         `yaml:"target" json:"target"`
	Renderer    string         `yaml:"renderer" json:"renderer"`
	Primary     string         `yaml:"primary" json:"primary"`
	Auxiliaries []AuxiliaryDTO `yaml:"auxiliaries" json:"auxiliaries"`
	Template    *TemplateDTO   `yaml:"template" json:"template"`
	Stylesheet  *StylesheetDTO `yaml:"stylesheet" json:"stylesheet"`
	Markdown    *MarkdownDTO   `yaml:"markdown" json:"markdown"`
}

// AuxiliaryDTO binds a lookup name to an auxiliary source path.
type AuxiliaryDTO struct {
	Name string `yaml:"name" json:"name" hcl:"name,label"`
	Path string `yaml:"path" json:"path" hcl:"path"`
}

// TemplateDTO holds template renderer options.
type TemplateDTO struct {
	AllowScripts bool              `yaml:"allow_scripts" json:"allow_scripts" hcl:"allow_scripts,optional"`
	PathPrefix   string            `yaml:"path_prefix" json:"path_prefix" hcl:"path_prefix,optional"`
	Vars         map[string]string `yaml:"vars" json:"vars" hcl:"vars,optional"`
}

// StylesheetDTO holds stylesheet renderer options.
type StylesheetDTO struct {
	SourceComments bool `yaml:"source_comments" json:"source_comments" hcl:"source_comments,optional"`
	Minify         bool `yaml:"minify" json:"minify" hcl:"minify,optional"`
}

// MarkdownDTO holds markdown renderer options.
type MarkdownDTO struct {
	HighlightStyle string `yaml:"highlight_style" json:"highlight_style" hcl:"highlight_style,optional"`
	Unsafe         bool   `yaml:"unsafe" json:"unsafe" hcl:"unsafe,optional"`
}

// hclKilnfile is the HCL shape of a kiln manifest. Units are labeled blocks:
//
//	unit "public/index.html" {
//	  renderer = "template"
//	  primary  = "src/index.html"
//	  auxiliary "header" { path = "src/_header.html" }
//	}
type hclKilnfile struct {
	Version   string     `hcl:"version,optional"`
	Root      string     `hcl:"root,optional"`
	IOTimeout string     `hcl:"io_timeout,optional"`
	Units     []*hclUnit `hcl:"unit,block"`
}

type hclUnit struct {
	Target      string         `hcl:"target,label"`
	Renderer    string         `hcl:"renderer"`
	Primary     string         `hcl:"primary"`
	Auxiliaries []AuxiliaryDTO `hcl:"auxiliary,block"`
	Template    *TemplateDTO   `hcl:"template,block"`
	Stylesheet  *StylesheetDTO `hcl:"stylesheet,block"`
	Markdown    *MarkdownDTO   `hcl:"markdown,block"`
}

func (f *hclKilnfile) kilnfile() *Kilnfile {
	out := &Kilnfile{
		Version:   f.Version,
		Root:      f.Root,
		IOTimeout: f.IOTimeout,
		Units:     make([]*UnitDTO, 0, len(f.Units)),
	}
	for _, u := range f.Units {
		out.Units = append(out.Units, &UnitDTO{
			Target:      u.Target,
			Renderer:    u.Renderer,
			Primary:     u.Primary,
			Auxiliaries: u.Auxiliaries,
			Template:    u.Template,
			Stylesheet:  u.Stylesheet,
			Markdown:    u.Markdown,
		})
	}
	return out
}
