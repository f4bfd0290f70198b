// Package grid describes the structured grids initialized from a surface and
// their decomposition into per-rank subdomains.
package grid

import (
	"iter"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeGrid = "grid_error"
)

// Handle identifies a point of a local grid.
type Handle int

// BoundingBox is the region covered by a rank.
type BoundingBox struct {
	mesh.Box
	Rank int
}

// LocalGrid is the part of a grid owned by one rank.
type LocalGrid interface {
	// LocalPoints iterates over the points owned by the rank. It can be
	// iterated several times and always yields the same points.
	LocalPoints() iter.Seq2[Handle, r3.Vec]

	// Store sets the value of the point identified by h.
	Store(h Handle, v float64) error

	// LocalRegion returns the region covered by the local points.
	LocalRegion() BoundingBox
}

// Spec describes a structured grid: Size points per axis, spaced by Spacing
// from Origin.
type Spec struct {
	Origin  r3.Vec
	Spacing r3.Vec
	Size    [3]int
}

// NewSpecFromBox returns the spec of a grid with the given points per axis
// spanning box, first and last points on the box faces.
func NewSpecFromBox(box mesh.Box, size [3]int) Spec {
	s := Spec{Origin: box.Min, Size: size}
	extent := box.Size()
	for axis := 0; axis < 3; axis++ {
		if size[axis] > 1 {
			setAxis(&s.Spacing, axis, mesh.Component(extent, axis)/float64(size[axis]-1))
		}
	}
	return s
}

func (s Spec) Validate() error {
	for axis := 0; axis < 3; axis++ {
		if s.Size[axis] <= 0 {
			return errors.New("grid size must be positive").
				WithType(ErrTypeGrid).
				WithTag("axis", axis).
				WithTag("size", s.Size[axis])
		}
		if sp := mesh.Component(s.Spacing, axis); sp < 0 || (sp == 0 && s.Size[axis] > 1) {
			return errors.New("grid spacing must be positive").
				WithType(ErrTypeGrid).
				WithTag("axis", axis).
				WithTag("spacing", sp)
		}
	}
	return nil
}

// Len returns the number of points of the grid.
func (s Spec) Len() int {
	return s.Size[0] * s.Size[1] * s.Size[2]
}

// Point returns the position of the point of the given grid coordinates.
func (s Spec) Point(i, j, k int) r3.Vec {
	return r3.Vec{
		X: s.Origin.X + float64(i)*s.Spacing.X,
		Y: s.Origin.Y + float64(j)*s.Spacing.Y,
		Z: s.Origin.Z + float64(k)*s.Spacing.Z,
	}
}

// Index returns the position of the given grid coordinates in the x-fastest
// ordering of the grid points.
func (s Spec) Index(i, j, k int) int {
	return (k*s.Size[1]+j)*s.Size[0] + i
}

// Box returns the box spanned by the grid points.
func (s Spec) Box() mesh.Box {
	return mesh.NewBox(s.Origin, s.Point(s.Size[0]-1, s.Size[1]-1, s.Size[2]-1))
}

func setAxis(v *r3.Vec, axis int, value float64) {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
}
