// Package provider contains the surface data providers: procedural spheres,
// signed distance function surfaces, STL files and in-memory facets.
package provider

import (
	"github.com/aukilabs/surfgrid/mesh"
)

// Static serves facets held in memory.
type Static struct {
	Facets []mesh.Facet

	// Box returned by GlobalBoundingBox. When empty, the box of the facets
	// is returned.
	Box mesh.Box
}

// NewStatic creates a static provider of the given facets, bounded by
// their box.
func NewStatic(facets []mesh.Facet) *Static {
	return &Static{
		Facets: facets,
		Box:    mesh.EmptyBox(),
	}
}

func (s *Static) Elements() ([]mesh.Facet, error) {
	return s.Facets, nil
}

func (s *Static) GlobalBoundingBox() (mesh.Box, error) {
	if !s.Box.IsEmpty() {
		return s.Box, nil
	}
	return facetsBox(s.Facets), nil
}

func facetsBox(facets []mesh.Facet) mesh.Box {
	box := mesh.EmptyBox()
	for _, f := range facets {
		box = box.Expand(f.V0).Expand(f.V1).Expand(f.V2)
	}
	return box
}
