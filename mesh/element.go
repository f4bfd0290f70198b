package mesh

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// ErrTypeInvalidElement is the error type of a malformed triangle.
	ErrTypeInvalidElement = "invalid_element"
)

// Facet is a triangle as handed over by a surface provider.
type Facet struct {
	V0 r3.Vec
	V1 r3.Vec
	V2 r3.Vec
	ID int64
}

// TriangleElement is an immutable surface triangle. Its normal and bounding
// box are computed once at construction.
type TriangleElement struct {
	ID       int64
	Vertices [3]r3.Vec

	// Unit normal of (v1-v0)x(v2-v0), zero for collinear vertices.
	Normal r3.Vec

	bbox       Box
	degenerate bool
}

// NewTriangleElement creates a triangle element. It fails with an
// ErrTypeInvalidElement error when a coordinate is not finite or when two
// vertices coincide.
func NewTriangleElement(v0, v1, v2 r3.Vec, id int64) (TriangleElement, error) {
	for i, v := range [3]r3.Vec{v0, v1, v2} {
		if !isFinite(v) {
			return TriangleElement{}, errors.New("triangle vertex is not finite").
				WithType(ErrTypeInvalidElement).
				WithTag("element_id", id).
				WithTag("vertex", i)
		}
	}

	if v0 == v1 || v1 == v2 || v2 == v0 {
		return TriangleElement{}, errors.New("triangle has coincident vertices").
			WithType(ErrTypeInvalidElement).
			WithTag("element_id", id)
	}

	n := r3.Cross(r3.Sub(v1, v0), r3.Sub(v2, v0))
	degenerate := r3.Norm(n) == 0
	if !degenerate {
		n = r3.Unit(n)
	}

	return TriangleElement{
		ID:         id,
		Vertices:   [3]r3.Vec{v0, v1, v2},
		Normal:     n,
		bbox:       BoxFromPoint(v0).Expand(v1).Expand(v2),
		degenerate: degenerate,
	}, nil
}

// NewTriangleElementFromFacet creates a triangle element from a provider
// facet.
func NewTriangleElementFromFacet(f Facet) (TriangleElement, error) {
	return NewTriangleElement(f.V0, f.V1, f.V2, f.ID)
}

// BoundingBox returns the tight bounding box of the triangle.
func (t *TriangleElement) BoundingBox() Box {
	return t.bbox
}

// IsDegenerate reports whether the vertices are distinct but collinear.
func (t *TriangleElement) IsDegenerate() bool {
	return t.degenerate
}

// IsInsideRegion reports whether the triangle lies entirely inside b.
func (t *TriangleElement) IsInsideRegion(b Box) bool {
	return b.Contains(t.Vertices[0]) &&
		b.Contains(t.Vertices[1]) &&
		b.Contains(t.Vertices[2])
}

// IsPartlyInRegion reports whether the triangle overlaps b.
func (t *TriangleElement) IsPartlyInRegion(b Box) bool {
	if !t.bbox.Intersects(b) {
		return false
	}
	return b.IntersectsTriangle(t.Vertices)
}

func (t *TriangleElement) Centroid() r3.Vec {
	sum := r3.Add(t.Vertices[0], r3.Add(t.Vertices[1], t.Vertices[2]))
	return r3.Scale(1.0/3.0, sum)
}

func (t *TriangleElement) Area() float64 {
	e0 := r3.Sub(t.Vertices[1], t.Vertices[0])
	e1 := r3.Sub(t.Vertices[2], t.Vertices[0])
	return 0.5 * r3.Norm(r3.Cross(e0, e1))
}

// Facet returns the provider representation of the triangle.
func (t *TriangleElement) Facet() Facet {
	return Facet{
		V0: t.Vertices[0],
		V1: t.Vertices[1],
		V2: t.Vertices[2],
		ID: t.ID,
	}
}
