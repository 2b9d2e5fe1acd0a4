package config

import "strings"

// CollisionPolicy decides what happens when two artifacts share a base name.
type CollisionPolicy string

const (
	// CollisionOverwrite keeps the file seen last in traversal order.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionFail aborts the harvest on the first duplicate base name.
	CollisionFail CollisionPolicy = "fail"
	// CollisionNamespace names destinations after their relative source path;
	// a name that still clashes fails the harvest.
	CollisionNamespace CollisionPolicy = "namespace"
)

// NormalizeCollisionPolicy returns the canonical policy or "" when unknown.
func NormalizeCollisionPolicy(raw string) CollisionPolicy {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case CollisionOverwrite, CollisionFail, CollisionNamespace:
		return CollisionPolicy(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return ""
	}
}
