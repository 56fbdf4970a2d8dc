// Package domain contains the core domain types of the kiln build graph.
package domain

// Role distinguishes hand-authored assets from build outputs.
type Role uint8

const (
	// RoleSource marks an asset that is authored by hand and read by renderers.
	RoleSource Role = iota
	// RoleGenerated marks an asset that is produced by a build unit.
	RoleGenerated
)

// String returns the lowercase name of the role.
func (r Role) String() string {
	switch r {
	case RoleSource:
		return "source"
	case RoleGenerated:
		return "generated"
	default:
		return "unknown"
	}
}
