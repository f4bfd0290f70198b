package provider

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeProvider = "provider_error"

	maxSphereSubdivisions = 10
)

// Sphere is a triangulated sphere obtained by subdividing an octahedron.
// Each subdivision splits every triangle in four and pushes the new vertices
// onto the sphere, so a sphere has 8*4^Subdivisions triangles. Triangles are
// wound counter clockwise seen from outside.
type Sphere struct {
	Center       r3.Vec
	Radius       float64
	Subdivisions int
}

func (s Sphere) validate() error {
	if !(s.Radius > 0) || math.IsInf(s.Radius, 0) {
		return errors.New("sphere radius must be positive").
			WithType(ErrTypeProvider).
			WithTag("radius", s.Radius)
	}
	if s.Subdivisions < 0 || s.Subdivisions > maxSphereSubdivisions {
		return errors.Newf("sphere subdivisions must be in [0, %d]", maxSphereSubdivisions).
			WithType(ErrTypeProvider).
			WithTag("subdivisions", s.Subdivisions)
	}
	return nil
}

func (s Sphere) Elements() ([]mesh.Facet, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	x := r3.Vec{X: 1}
	y := r3.Vec{Y: 1}
	z := r3.Vec{Z: 1}

	var tris [][3]r3.Vec
	for octant := 0; octant < 8; octant++ {
		a, b, c := x, y, z
		negatives := 0
		if octant&1 != 0 {
			a = r3.Scale(-1, a)
			negatives++
		}
		if octant&2 != 0 {
			b = r3.Scale(-1, b)
			negatives++
		}
		if octant&4 != 0 {
			c = r3.Scale(-1, c)
			negatives++
		}

		// each reflection flips the winding.
		if negatives%2 == 1 {
			b, c = c, b
		}
		tris = append(tris, [3]r3.Vec{a, b, c})
	}

	for i := 0; i < s.Subdivisions; i++ {
		tris = subdivide(tris)
	}

	var ids SequentialIDGenerator
	facets := make([]mesh.Facet, len(tris))
	for i, t := range tris {
		facets[i] = mesh.Facet{
			V0: s.onSphere(t[0]),
			V1: s.onSphere(t[1]),
			V2: s.onSphere(t[2]),
			ID: ids.New(),
		}
	}
	return facets, nil
}

// subdivide splits the unit sphere triangles in four.
func subdivide(tris [][3]r3.Vec) [][3]r3.Vec {
	res := make([][3]r3.Vec, 0, 4*len(tris))
	for _, t := range tris {
		a, b, c := t[0], t[1], t[2]
		ab := midpoint(a, b)
		bc := midpoint(b, c)
		ca := midpoint(c, a)

		res = append(res,
			[3]r3.Vec{a, ab, ca},
			[3]r3.Vec{ab, b, bc},
			[3]r3.Vec{ca, bc, c},
			[3]r3.Vec{ab, bc, ca},
		)
	}
	return res
}

// midpoint returns the unit vector halfway between a and b. The result does
// not depend on the argument order, so neighbour triangles share vertices
// exactly.
func midpoint(a, b r3.Vec) r3.Vec {
	return r3.Unit(r3.Scale(0.5, r3.Add(a, b)))
}

func (s Sphere) onSphere(unit r3.Vec) r3.Vec {
	return r3.Add(s.Center, r3.Scale(s.Radius, unit))
}

func (s Sphere) GlobalBoundingBox() (mesh.Box, error) {
	if err := s.validate(); err != nil {
		return mesh.Box{}, err
	}
	// rounding can push a vertex a hair off the exact sphere.
	return mesh.BoxAround(s.Center, s.Radius).Pad(mesh.Epsilon * s.Radius), nil
}

// SignedDistance returns the distance between p and the exact sphere,
// negative inside.
func (s Sphere) SignedDistance(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, s.Center)) - s.Radius
}
