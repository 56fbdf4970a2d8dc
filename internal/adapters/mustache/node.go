package mustache

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the template renderer Graft node.
const NodeID graft.ID = "adapter.renderer.template"

func init() {
	graft.Register(graft.Node[*Renderer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Renderer, error) {
			return New(), nil
		},
	})
}
