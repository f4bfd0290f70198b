package provider

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

const defaultSDFCells = 64

// SDF triangulates the zero level set of a signed distance function with
// marching cubes.
type SDF struct {
	Surface sdf.SDF3

	// Number of marching cubes cells along the longest side of the surface
	// bounding box.
	Cells int
}

// NewSDFSphere returns the provider of a sphere of the given radius centered
// at the origin.
func NewSDFSphere(radius float64, cells int) (*SDF, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, errors.New("creating sdf sphere failed").
			WithType(ErrTypeProvider).
			WithTag("radius", radius).
			Wrap(err)
	}
	return &SDF{Surface: s, Cells: cells}, nil
}

// NewSDFBox returns the provider of the given box, with edges rounded by
// round.
func NewSDFBox(box mesh.Box, round float64, cells int) (*SDF, error) {
	size := box.Size()
	s, err := sdf.Box3D(v3.Vec{X: size.X, Y: size.Y, Z: size.Z}, round)
	if err != nil {
		return nil, errors.New("creating sdf box failed").
			WithType(ErrTypeProvider).
			Wrap(err)
	}

	c := box.Center()
	m := sdf.Translate3d(v3.Vec{X: c.X, Y: c.Y, Z: c.Z})
	return &SDF{Surface: sdf.Transform3D(s, m), Cells: cells}, nil
}

func (s *SDF) Elements() ([]mesh.Facet, error) {
	if s.Surface == nil {
		return nil, errors.New("sdf provider has no surface").
			WithType(ErrTypeProvider)
	}

	cells := s.Cells
	if cells <= 0 {
		cells = defaultSDFCells
	}

	triangles := render.ToTriangles(s.Surface, render.NewMarchingCubesUniform(cells))
	return facetsFromTriangles(triangles), nil
}

// facetsFromTriangles converts sdfx triangles to facets with sequential ids.
func facetsFromTriangles(triangles []*sdf.Triangle3) []mesh.Facet {
	var ids SequentialIDGenerator
	facets := make([]mesh.Facet, 0, len(triangles))
	for _, tri := range triangles {
		facets = append(facets, mesh.Facet{
			V0: mesh.NewVec(tri[0].X, tri[0].Y, tri[0].Z),
			V1: mesh.NewVec(tri[1].X, tri[1].Y, tri[1].Z),
			V2: mesh.NewVec(tri[2].X, tri[2].Y, tri[2].Z),
			ID: ids.New(),
		})
	}
	return facets
}

// GlobalBoundingBox returns the bounding box of the surface. Marching cubes
// samples a slightly larger box, so the box is padded by one cell.
func (s *SDF) GlobalBoundingBox() (mesh.Box, error) {
	if s.Surface == nil {
		return mesh.Box{}, errors.New("sdf provider has no surface").
			WithType(ErrTypeProvider)
	}

	bb := s.Surface.BoundingBox()
	box := mesh.NewBox(
		mesh.NewVec(bb.Min.X, bb.Min.Y, bb.Min.Z),
		mesh.NewVec(bb.Max.X, bb.Max.Y, bb.Max.Z),
	)

	cells := s.Cells
	if cells <= 0 {
		cells = defaultSDFCells
	}
	size := box.Size()
	longest := max(size.X, size.Y, size.Z)
	return box.Pad(longest / float64(cells)), nil
}

// SignedDistance evaluates the distance function at p.
func (s *SDF) SignedDistance(p r3.Vec) float64 {
	return s.Surface.Evaluate(v3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}
