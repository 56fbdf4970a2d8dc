// Package config provides the manifest loader for kiln.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/tidwall/jsonc"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for kiln.yaml, kiln.hcl and kiln.jsonc manifests.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Discover walks up from cwd and returns the first manifest found.
// Within one directory the names of domain.ManifestFileNames are tried in order.
func (l *Loader) Discover(cwd string) (string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigNotFound.Error()), "cwd", cwd)
	}

	for dir := abs; ; {
		for _, name := range domain.ManifestFileNames() {
			candidate := filepath.Join(dir, name)
			if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

// Load reads, validates and resolves the manifest at path.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	file, err := decode(path)
	if err != nil {
		return nil, zerr.With(err, "config", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "config", path)
	}

	timeout, err := parseTimeout(file.IOTimeout)
	if err != nil {
		return nil, zerr.With(err, "config", path)
	}

	m := &domain.Manifest{
		Path:      abs,
		Root:      resolveRoot(abs, file.Root),
		IOTimeout: timeout,
		Units:     make([]domain.UnitSpec, 0, len(file.Units)),
	}

	for i, dto := range file.Units {
		spec, err := l.buildUnit(m.Root, i, dto)
		if err != nil {
			return nil, zerr.With(err, "config", path)
		}
		m.Units = append(m.Units, spec)
	}

	if err := validateManifest(m); err != nil {
		return nil, zerr.With(err, "config", path)
	}

	return m, nil
}

func decode(path string) (*Kilnfile, error) {
	// #nosec G304 -- path is the manifest chosen by the user or by Discover
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	var file Kilnfile
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
		}
	case ".jsonc", ".json":
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
		}
	case ".hcl":
		var hf hclKilnfile
		if err := hclsimple.Decode(filepath.Base(path), data, nil, &hf); err != nil {
			return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
		}
		file = *hf.kilnfile()
	default:
		return nil, zerr.With(domain.ErrUnsupportedConfigFormat, "extension", filepath.Ext(path))
	}

	return &file, nil
}

func parseTimeout(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrInvalidTimeout.Error()), "io_timeout", raw)
	}
	if d < 0 {
		return 0, zerr.With(domain.ErrInvalidTimeout, "io_timeout", raw)
	}
	return d, nil
}

func (l *Loader) buildUnit(root string, index int, dto *UnitDTO) (domain.UnitSpec, error) {
	if dto == nil {
		return domain.UnitSpec{}, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "unit is empty"), "index", index)
	}
	if dto.Target == "" || dto.Primary == "" {
		err := zerr.Wrap(domain.ErrInvalidUnit, "unit requires a target and a primary source")
		return domain.UnitSpec{}, zerr.With(err, "index", index)
	}

	kind := domain.RendererKind(dto.Renderer)
	if !kind.Valid() {
		err := zerr.With(domain.ErrUnknownRenderer, "renderer", dto.Renderer)
		return domain.UnitSpec{}, zerr.With(err, "target", dto.Target)
	}

	spec := domain.UnitSpec{
		Target:      resolvePath(root, dto.Target),
		Renderer:    kind,
		Primary:     resolvePath(root, dto.Primary),
		Auxiliaries: make([]domain.NamedPath, 0, len(dto.Auxiliaries)),
		Options:     l.buildOptions(kind, dto),
	}

	seen := make(map[string]struct{}, len(dto.Auxiliaries))
	for _, aux := range dto.Auxiliaries {
		if aux.Name == "" || aux.Path == "" {
			err := zerr.Wrap(domain.ErrInvalidUnit, "auxiliary requires a name and a path")
			return domain.UnitSpec{}, zerr.With(err, "target", dto.Target)
		}
		if _, dup := seen[aux.Name]; dup {
			err := zerr.With(domain.ErrDuplicateAuxiliaryName, "name", aux.Name)
			return domain.UnitSpec{}, zerr.With(err, "target", dto.Target)
		}
		seen[aux.Name] = struct{}{}
		spec.Auxiliaries = append(spec.Auxiliaries, domain.NamedPath{
			Name: aux.Name,
			Path: resolvePath(root, aux.Path),
		})
	}

	return spec, nil
}

func (l *Loader) buildOptions(kind domain.RendererKind, dto *UnitDTO) domain.RenderOptions {
	var opts domain.RenderOptions

	if dto.Template != nil {
		l.warnIneffective(dto.Target, kind, domain.RendererTemplate)
		opts.Template = domain.TemplateOptions{
			AllowScripts: dto.Template.AllowScripts,
			PathPrefix:   dto.Template.PathPrefix,
			Vars:         dto.Template.Vars,
		}
	}
	if dto.Stylesheet != nil {
		l.warnIneffective(dto.Target, kind, domain.RendererStylesheet)
		opts.Stylesheet = domain.StylesheetOptions{
			SourceComments: dto.Stylesheet.SourceComments,
			Minify:         dto.Stylesheet.Minify,
		}
	}
	if dto.Markdown != nil {
		l.warnIneffective(dto.Target, kind, domain.RendererMarkdown)
		opts.Markdown = domain.MarkdownOptions{
			HighlightStyle: dto.Markdown.HighlightStyle,
			Unsafe:         dto.Markdown.Unsafe,
		}
	}

	return opts
}

// warnIneffective warns about an options section that the unit's renderer ignores.
// Markdown layouts are mustache templates, so template options apply to markdown units too.
func (l *Loader) warnIneffective(target string, kind, section domain.RendererKind) {
	if kind == section || l.Logger == nil {
		return
	}
	if kind == domain.RendererMarkdown && section == domain.RendererTemplate {
		return
	}
	l.Logger.Warn(fmt.Sprintf("'%s' options of %s have no effect for the %s renderer", section, target, kind))
}

func validateManifest(m *domain.Manifest) error {
	targets := make(map[string]int, len(m.Units))
	for i, u := range m.Units {
		if first, dup := targets[u.Target]; dup {
			err := zerr.With(domain.ErrDuplicateTarget, "target", u.Target)
			return zerr.With(zerr.With(err, "first", first), "duplicate", i)
		}
		targets[u.Target] = i
	}

	for _, u := range m.Units {
		for _, src := range u.Sources() {
			if _, generated := targets[src]; generated {
				return zerr.With(zerr.With(domain.ErrGeneratedAsSource, "path", src), "target", u.Target)
			}
		}
	}
	return nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	return resolvePath(configDir, configuredRoot)
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
