package mesh

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis-aligned bounding box. Both Min and Max are inclusive.
type Box struct {
	Min r3.Vec
	Max r3.Vec
}

func NewBox(min, max r3.Vec) Box {
	return Box{Min: min, Max: max}
}

// EmptyBox returns the identity element of Union: a box that contains
// nothing and is replaced entirely by the first point or box it is grown
// with.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// BoxFromPoint returns the zero-size box located at p.
func BoxFromPoint(p r3.Vec) Box {
	return Box{Min: p, Max: p}
}

// BoxFromCenterExtent returns the box centered at c with the given half
// widths.
func BoxFromCenterExtent(c r3.Vec, extent r3.Vec) Box {
	extent = absVec(extent)
	return Box{Min: r3.Sub(c, extent), Max: r3.Add(c, extent)}
}

// BoxAround returns the cube of half width radius centered at p.
func BoxAround(p r3.Vec, radius float64) Box {
	return BoxFromCenterExtent(p, r3.Vec{X: radius, Y: radius, Z: radius})
}

// Validate reports a malformed box: a NaN coordinate or min > max on any
// axis.
func (b Box) Validate() error {
	for i := 0; i < 3; i++ {
		lo, hi := Component(b.Min, i), Component(b.Max, i)
		if math.IsNaN(lo) || math.IsNaN(hi) {
			return errors.New("box has a NaN coordinate").
				WithTag("axis", i)
		}
		if lo > hi {
			return errors.New("box min is greater than max").
				WithTag("axis", i).
				WithTag("min", lo).
				WithTag("max", hi)
		}
	}
	return nil
}

// IsEmpty reports whether the box has min > max on any axis.
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// IsDegenerate reports whether the box has zero volume.
func (b Box) IsDegenerate() bool {
	return !b.IsEmpty() && b.Volume() == 0
}

// IsPoint reports whether the box has zero extent on every axis.
func (b Box) IsPoint() bool {
	return b.Min == b.Max
}

func (b Box) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Extent returns the half widths of the box.
func (b Box) Extent() r3.Vec {
	return r3.Scale(0.5, r3.Sub(b.Max, b.Min))
}

func (b Box) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

func (b Box) Volume() float64 {
	if b.IsEmpty() {
		return 0
	}
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Diagonal returns the length of the box diagonal.
func (b Box) Diagonal() float64 {
	if b.IsEmpty() {
		return 0
	}
	return r3.Norm(b.Size())
}

// Contains reports whether p lies in the closed box.
func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsBox reports whether o lies entirely in b.
func (b Box) ContainsBox(o Box) bool {
	return b.Contains(o.Min) && b.Contains(o.Max)
}

// Intersects reports whether the closed boxes overlap. Touching faces,
// edges or corners count as overlapping.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Intersects reports whether a and b overlap. It is symmetric.
func Intersects(a, b Box) bool {
	return a.Intersects(b)
}

// IntersectsTriangle reports whether the triangle overlaps the box.
func (b Box) IntersectsTriangle(v [3]r3.Vec) bool {
	if b.IsEmpty() {
		return false
	}
	return triangleBoxOverlap(b.Center(), b.Extent(), v)
}

// Expand returns the smallest box containing b and p.
func (b Box) Expand(p r3.Vec) Box {
	return Box{Min: minVec(b.Min, p), Max: maxVec(b.Max, p)}
}

// Union returns the smallest box containing b and o.
func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	return Box{Min: minVec(b.Min, o.Min), Max: maxVec(b.Max, o.Max)}
}

// Pad grows the box by d on every side.
func (b Box) Pad(d float64) Box {
	pad := r3.Vec{X: d, Y: d, Z: d}
	return Box{Min: r3.Sub(b.Min, pad), Max: r3.Add(b.Max, pad)}
}

// Scale grows the box around its center so that every half width is
// multiplied by ratio.
func (b Box) Scale(ratio float64) Box {
	return BoxFromCenterExtent(b.Center(), r3.Scale(ratio, b.Extent()))
}

// Cube returns the smallest cube sharing the center of b that contains b.
// Faces that rounding pushed inside b are moved out to the next float, so
// the cube always contains b.
func (b Box) Cube() Box {
	if b.IsEmpty() {
		return b
	}

	e := b.Extent()
	h := max3(e.X, e.Y, e.Z)
	cube := BoxFromCenterExtent(b.Center(), r3.Vec{X: h, Y: h, Z: h})

	for axis := 0; axis < 3; axis++ {
		lo, hi := Component(cube.Min, axis), Component(cube.Max, axis)
		for lo > Component(b.Min, axis) {
			lo = math.Nextafter(lo, math.Inf(-1))
		}
		for hi < Component(b.Max, axis) {
			hi = math.Nextafter(hi, math.Inf(1))
		}
		setComponent(&cube.Min, axis, lo)
		setComponent(&cube.Max, axis, hi)
	}
	return cube
}

// Octant returns the i-th of the eight boxes obtained by splitting b at its
// center. Bit k of i selects the upper half on axis k.
func (b Box) Octant(i int) Box {
	c := b.Center()
	child := b
	for axis := 0; axis < 3; axis++ {
		if i&(1<<axis) != 0 {
			setComponent(&child.Min, axis, Component(c, axis))
		} else {
			setComponent(&child.Max, axis, Component(c, axis))
		}
	}
	return child
}

// RayInterval clips the ray origin + t*dir, t >= 0, to the box. It returns
// the parameter range of the ray inside the box, false when the ray misses
// the box.
func (b Box) RayInterval(origin r3.Vec, dir r3.Vec) (float64, float64, bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}

	tmin, tmax := 0.0, math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		o := Component(origin, axis)
		d := Component(dir, axis)
		lo, hi := Component(b.Min, axis), Component(b.Max, axis)

		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}

		t0, t1 := (lo-o)/d, (hi-o)/d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math.Max(tmin, t0)
		tmax = math.Min(tmax, t1)
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

// ClosestPoint returns the projection of p onto the box.
func (b Box) ClosestPoint(p r3.Vec) r3.Vec {
	return minVec(maxVec(p, b.Min), b.Max)
}

// SqDistToPoint returns the squared distance between p and the box, zero
// when p is inside.
func (b Box) SqDistToPoint(p r3.Vec) float64 {
	d := r3.Sub(p, b.ClosestPoint(p))
	return r3.Norm2(d)
}
