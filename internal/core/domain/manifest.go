package domain

import "time"

// Manifest is the loaded build configuration.
type Manifest struct {
	// Path is the manifest file the configuration was read from.
	Path string
	// Root is the directory every unit path is resolved against.
	Root string
	// IOTimeout bounds each stat, read and write. Zero means no timeout.
	IOTimeout time.Duration
	// Units lists the generated artifacts in declaration order.
	Units []UnitSpec
}

// Targets returns the target path of every unit in declaration order.
func (m *Manifest) Targets() []string {
	out := make([]string, len(m.Units))
	for i, u := range m.Units {
		out[i] = u.Target
	}
	return out
}

// SourcePaths returns every distinct source path referenced by the manifest.
func (m *Manifest) SourcePaths() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, u := range m.Units {
		for _, p := range u.Sources() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
