package services

import (
	"slices"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

const rootComponentType = "application"

// BuildDependencyGraph returns the authored edges when there are any.
// Otherwise it synthesizes a star graph from a root component (the first
// "application", falling back to the first component) to every other
// component. Synthesized edges are typed "dependency" so consumers can tell
// them apart from authored ones.
func (s *analysisService) BuildDependencyGraph(components []entities.Component, edges []entities.DependencyEdge) []entities.DependencyEdge {
	if len(edges) > 0 {
		return slices.Clone(edges)
	}
	if len(components) == 0 {
		return []entities.DependencyEdge{}
	}

	root := components[0]
	for _, c := range components {
		if c.Type == rootComponentType {
			root = c
			break
		}
	}

	synthesized := make([]entities.DependencyEdge, 0, len(components)-1)
	for _, c := range components {
		if c.ID == root.ID {
			continue
		}
		synthesized = append(synthesized, entities.DependencyEdge{
			From: root.ID,
			To:   c.ID,
			Type: entities.EdgeTypeSynthesized,
		})
	}
	return synthesized
}
