package domain

import "time"

// BuildRecord describes the last successful generation of a target.
type BuildRecord struct {
	Target       string        `json:"target,omitzero"`
	Renderer     RendererKind  `json:"renderer,omitzero"`
	Sources      []string      `json:"sources,omitzero"`
	OutputDigest string        `json:"output_digest,omitzero"`
	Bytes        int           `json:"bytes,omitzero"`
	BuiltAt      time.Time     `json:"built_at,omitzero"`
	Duration     time.Duration `json:"duration,omitzero"`
}
