package geometry

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/aukilabs/surfgrid/spatial"
	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// DataProvider supplies the triangles of a surface.
type DataProvider interface {
	// Elements returns the facets of the surface.
	Elements() ([]mesh.Facet, error)

	// GlobalBoundingBox returns the box every facet is expected to be in.
	GlobalBoundingBox() (mesh.Box, error)
}

// Geometry owns the elements of a surface and the spatial index built over
// them.
//
// A geometry is read-only once built: queries and classifications can run
// concurrently. Rebuild must not run concurrently with anything else.
type Geometry struct {
	conf     Config
	declared mesh.Box

	elements    []mesh.TriangleElement
	boxes       []mesh.Box
	bounds      mesh.Box
	index       spatial.Index
	fingerprint uint64
}

// New creates a geometry from the given elements.
//
// Elements whose box is not inside declared and elements with an id already
// seen are logged and excluded. An empty declared box does not exclude
// anything.
func New(elements []mesh.TriangleElement, declared mesh.Box, conf Config) (*Geometry, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	g := &Geometry{
		conf:     conf,
		declared: declared,
	}
	if err := g.Rebuild(elements); err != nil {
		return nil, err
	}
	return g, nil
}

// FromProvider creates a geometry from the facets of a data provider.
// Malformed facets are logged and skipped.
func FromProvider(p DataProvider, conf Config) (*Geometry, error) {
	declared, err := p.GlobalBoundingBox()
	if err != nil {
		return nil, errors.New("getting provider bounding box failed").
			WithType(ErrTypeProvider).
			Wrap(err)
	}
	if err := declared.Validate(); err != nil {
		return nil, errors.New("invalid provider bounding box").
			WithType(ErrTypeProvider).
			Wrap(err)
	}

	facets, err := p.Elements()
	if err != nil {
		return nil, errors.New("getting provider elements failed").
			WithType(ErrTypeProvider).
			Wrap(err)
	}
	if len(facets) == 0 {
		return nil, errors.New("provider has no elements").
			WithType(ErrTypeProvider)
	}

	elements := make([]mesh.TriangleElement, 0, len(facets))
	for _, f := range facets {
		e, err := mesh.NewTriangleElementFromFacet(f)
		if err != nil {
			logs.Warn(err)
			instrumentRejectedElement(err)
			continue
		}
		elements = append(elements, e)
	}

	return New(elements, declared, conf)
}

// Rebuild replaces the elements of the geometry and rebuilds its index from
// scratch.
func (g *Geometry) Rebuild(elements []mesh.TriangleElement) error {
	start := time.Now()

	kept := make([]mesh.TriangleElement, 0, len(elements))
	ids := make(map[int64]struct{}, len(elements))
	for _, e := range elements {
		if !g.declared.IsEmpty() && !g.declared.ContainsBox(e.BoundingBox()) {
			err := errors.New("element is outside the provider bounding box").
				WithType(ErrTypeIndexBuild).
				WithTag("element_id", e.ID)
			logs.Warn(err)
			instrumentRejectedElement(err)
			continue
		}

		if _, ok := ids[e.ID]; ok {
			err := errors.New("duplicate element id").
				WithType(ErrTypeInvalidElement).
				WithTag("element_id", e.ID)
			logs.Warn(err)
			instrumentRejectedElement(err)
			continue
		}
		ids[e.ID] = struct{}{}

		kept = append(kept, e)
	}

	boxes := make([]mesh.Box, len(kept))
	bounds := mesh.EmptyBox()
	for i := range kept {
		boxes[i] = kept[i].BoundingBox()
		bounds = bounds.Union(boxes[i])
	}

	index, err := g.buildIndex(bounds, boxes)
	if err != nil {
		return err
	}

	g.elements = kept
	g.boxes = boxes
	g.bounds = bounds
	g.index = index
	g.fingerprint = fingerprint(kept)

	logs.WithTag("index_kind", index.Kind()).
		WithTag("elements", len(kept)).
		WithTag("rejected", len(elements)-len(kept)).
		WithTag("duration", time.Since(start)).
		Info("geometry built")
	return nil
}

func (g *Geometry) buildIndex(bounds mesh.Box, boxes []mesh.Box) (spatial.Index, error) {
	switch g.conf.IndexKind {
	case IndexBucket:
		grid := spatial.NewSearchGrid(g.conf.BucketResolution)
		return grid, grid.Build(bounds, boxes)

	case IndexAuto:
		tree := spatial.NewOctree(g.conf.OctreeCapacity, g.conf.OctreeMaxDepth)
		if err := tree.Build(bounds, boxes); err != nil {
			return nil, err
		}

		info := tree.DebugInfo()
		if info.SaturatedElements*2 <= info.Elements {
			return tree, nil
		}

		logs.WithTag("saturated_elements", info.SaturatedElements).
			WithTag("elements", info.Elements).
			Info("octree is saturated, falling back to search grid")
		grid := spatial.NewSearchGrid(g.conf.BucketResolution)
		return grid, grid.Build(bounds, boxes)

	default:
		tree := spatial.NewOctree(g.conf.OctreeCapacity, g.conf.OctreeMaxDepth)
		return tree, tree.Build(bounds, boxes)
	}
}

func fingerprint(elements []mesh.TriangleElement) uint64 {
	h := xxhash.New()
	buf := make([]byte, 8)

	write := func(v uint64) {
		binary.LittleEndian.PutUint64(buf, v)
		h.Write(buf)
	}

	for _, e := range elements {
		write(uint64(e.ID))
		for _, v := range e.Vertices {
			write(math.Float64bits(v.X))
			write(math.Float64bits(v.Y))
			write(math.Float64bits(v.Z))
		}
	}
	return h.Sum64()
}

func (g *Geometry) Config() Config {
	return g.conf
}

// Elements returns the elements of the geometry. The slice must not be
// modified.
func (g *Geometry) Elements() []mesh.TriangleElement {
	return g.elements
}

// Element returns the element at position i.
func (g *Geometry) Element(i int) *mesh.TriangleElement {
	return &g.elements[i]
}

func (g *Geometry) Len() int {
	return len(g.elements)
}

// Bounds returns the union of the element boxes, an empty box when the
// geometry has no element.
func (g *Geometry) Bounds() mesh.Box {
	return g.bounds
}

func (g *Geometry) IndexKind() spatial.Kind {
	return g.index.Kind()
}

func (g *Geometry) DebugInfo() spatial.DebugInfo {
	return g.index.DebugInfo()
}

// Fingerprint returns a hash of the element ids and vertices. Replicas built
// from the same surface have the same fingerprint.
func (g *Geometry) Fingerprint() uint64 {
	return g.fingerprint
}

// QueryOverlap returns the sorted positions of the elements whose box may
// overlap b.
func (g *Geometry) QueryOverlap(b mesh.Box) []int {
	return g.index.QueryOverlap(b)
}

// QueryPoint returns the sorted positions of the elements whose box may
// contain p. With query widening on, a query that found nothing is retried
// with growing boxes around p until an element is found or the widening
// limit is reached.
func (g *Geometry) QueryPoint(p r3.Vec) []int {
	res := g.index.QueryPoint(p)
	if len(res) != 0 || !g.conf.QueryWidening || len(g.elements) == 0 {
		return res
	}

	limit := g.wideningLimit(p)
	for r := g.wideningStart(p); ; r = math.Min(2*r, limit) {
		if res := g.index.QueryOverlap(mesh.BoxAround(p, r)); len(res) != 0 || r >= limit {
			return res
		}
	}
}

func (g *Geometry) wideningStart(p r3.Vec) float64 {
	r := g.conf.WideningRadius
	if r == 0 {
		r = g.bounds.Diagonal() / 64
	}
	if r == 0 {
		r = mesh.Epsilon
	}
	return math.Max(r, math.Sqrt(g.bounds.SqDistToPoint(p)))
}

func (g *Geometry) wideningLimit(p r3.Vec) float64 {
	if g.conf.WideningLimit > 0 {
		return g.conf.WideningLimit
	}
	return math.Sqrt(g.bounds.SqDistToPoint(p)) + g.bounds.Diagonal() + mesh.Epsilon
}
