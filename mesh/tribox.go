package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var boxAxes = [3]r3.Vec{
	{X: 1},
	{Y: 1},
	{Z: 1},
}

// triangleBoxOverlap is a separating axis test between a triangle and the
// box of the given center and half widths. The candidate axes are the box
// face normals, the triangle normal and the nine cross products of box and
// triangle edges.
//
// A zero axis (parallel edges, collinear or coincident vertices) projects
// everything onto 0 and never separates, so degenerate triangles are tested
// against their edges only.
func triangleBoxOverlap(center r3.Vec, half r3.Vec, tri [3]r3.Vec) bool {
	v0 := r3.Sub(tri[0], center)
	v1 := r3.Sub(tri[1], center)
	v2 := r3.Sub(tri[2], center)

	edges := [3]r3.Vec{
		r3.Sub(v1, v0),
		r3.Sub(v2, v1),
		r3.Sub(v0, v2),
	}

	for _, e := range edges {
		for _, a := range boxAxes {
			if separatedOnAxis(r3.Cross(a, e), v0, v1, v2, half) {
				return false
			}
		}
	}

	// box face normals: the triangle's own bounding box against the box.
	for axis := 0; axis < 3; axis++ {
		h := Component(half, axis)
		p0, p1, p2 := Component(v0, axis), Component(v1, axis), Component(v2, axis)
		if min3(p0, p1, p2) > h || max3(p0, p1, p2) < -h {
			return false
		}
	}

	// triangle plane: the box center is at the origin.
	n := r3.Cross(edges[0], edges[1])
	if n != (r3.Vec{}) {
		d := r3.Dot(n, v0)
		r := half.X*math.Abs(n.X) + half.Y*math.Abs(n.Y) + half.Z*math.Abs(n.Z)
		if math.Abs(d) > r {
			return false
		}
	}

	return true
}

func separatedOnAxis(axis r3.Vec, v0, v1, v2, half r3.Vec) bool {
	if axis == (r3.Vec{}) {
		return false
	}

	p0 := r3.Dot(axis, v0)
	p1 := r3.Dot(axis, v1)
	p2 := r3.Dot(axis, v2)
	r := half.X*math.Abs(axis.X) + half.Y*math.Abs(axis.Y) + half.Z*math.Abs(axis.Z)

	return min3(p0, p1, p2) > r || max3(p0, p1, p2) < -r
}
