// Package pipeline orchestrates query synthesis, execution, and result
// formatting into a single engine.
package pipeline

import (
	"github.com/helixdata-ai/query-engine/internal/domain"
)

// CollectionsInvolved returns every collection a spec touches: the primary
// collection first, then each join's collection in declaration order, with
// duplicates removed.
func CollectionsInvolved(spec *domain.QuerySpec) []string {
	seen := make(map[string]struct{}, len(spec.Joins)+1)
	collections := make([]string, 0, len(spec.Joins)+1)

	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		collections = append(collections, name)
	}

	add(spec.PrimaryCollection)
	for _, join := range spec.Joins {
		add(join.Collection)
	}
	return collections
}
