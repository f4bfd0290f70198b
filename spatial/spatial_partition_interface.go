package spatial

import (
	"github.com/aukilabs/surfgrid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind identifies a spatial index implementation.
type Kind string

const (
	KindOctree Kind = "octree"
	KindBucket Kind = "bucket"
)

// DebugInfo describes the shape of a built index.
type DebugInfo struct {
	Kind     Kind
	Elements int
	Min      r3.Vec
	Max      r3.Vec

	// octree:
	Nodes              int
	Depth              int
	MaxElementsPerNode int
	AvgElementsPerNode float64
	SaturatedLeaves    int
	SaturatedElements  int

	// search grid:
	Resolution int
	Occupancy  []uint32
}

// Index answers bounding box overlap queries over a fixed list of element
// boxes. Results are element positions in the list given to Build.
//
// An index is built once and is read-only afterwards: concurrent queries are
// safe, Build is not safe concurrently with queries.
type Index interface {
	// Build indexes the given element boxes. bounds is the global bounding
	// box of the geometry.
	Build(bounds mesh.Box, boxes []mesh.Box) error

	// QueryOverlap returns the sorted positions of the elements whose box
	// may overlap b. Implementations can return a superset of the exact
	// overlap set but never miss an element.
	QueryOverlap(b mesh.Box) []int

	// QueryPoint is QueryOverlap on the zero-size box at p.
	QueryPoint(p r3.Vec) []int

	Kind() Kind

	// debug stuff:
	DebugInfo() DebugInfo
}
