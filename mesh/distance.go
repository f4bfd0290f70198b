package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Distance describes the position of a point relative to a triangle.
type Distance struct {
	// Unsigned distance to the closest point of the triangle.
	Dist float64

	// Side of the triangle plane the point is on, following the normal:
	// 1 in front, -1 behind, 0 on the surface or undecidable.
	Sign int

	// Closest point of the triangle.
	Closest r3.Vec

	// Distance to the plane supporting the triangle.
	Perpendicular float64
}

// Signed returns the signed distance, zero when the sign is undecidable.
func (d Distance) Signed() float64 {
	return d.Dist * float64(d.Sign)
}

// Distance computes the distance between p and the triangle.
//
// The sign is taken from the normal and the direction from the closest point
// to p. Exact zero distance always has sign 0.
func (t *TriangleElement) Distance(p r3.Vec) Distance {
	closest := t.ClosestPoint(p)
	diff := r3.Sub(p, closest)
	dist := r3.Norm(diff)

	res := Distance{
		Dist:          dist,
		Closest:       closest,
		Perpendicular: t.PerpendicularDistance(p),
	}
	if dist == 0 || t.degenerate {
		return res
	}

	dprod := r3.Dot(t.Normal, r3.Scale(1/dist, diff))
	switch {
	case dprod > Epsilon:
		res.Sign = 1
	case dprod < -Epsilon:
		res.Sign = -1
	}
	return res
}

// PerpendicularDistance returns the unsigned distance between p and the
// plane supporting the triangle.
func (t *TriangleElement) PerpendicularDistance(p r3.Vec) float64 {
	return math.Abs(r3.Dot(r3.Sub(p, t.Vertices[0]), t.Normal))
}

// ClosestPoint returns the point of the triangle closest to p, walking the
// Voronoi regions of the vertices, edges and face.
func (t *TriangleElement) ClosestPoint(p r3.Vec) r3.Vec {
	a, b, c := t.Vertices[0], t.Vertices[1], t.Vertices[2]
	ab := r3.Sub(b, a)
	ac := r3.Sub(c, a)
	ap := r3.Sub(p, a)

	d1 := r3.Dot(ab, ap)
	d2 := r3.Dot(ac, ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := r3.Sub(p, b)
	d3 := r3.Dot(ab, bp)
	d4 := r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return r3.Add(a, r3.Scale(v, ab))
	}

	cp := r3.Sub(p, c)
	d5 := r3.Dot(ab, cp)
	d6 := r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return r3.Add(a, r3.Scale(w, ac))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return r3.Add(b, r3.Scale(w, r3.Sub(c, b)))
	}

	denom := va + vb + vc
	if denom == 0 {
		// collinear vertices: the closest point is on one of the edges.
		return t.closestPointOnEdges(p)
	}
	v := vb / denom
	w := vc / denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}

func (t *TriangleElement) closestPointOnEdges(p r3.Vec) r3.Vec {
	best := t.Vertices[0]
	bestDist := math.Inf(1)
	for i := 0; i < 3; i++ {
		q := closestPointOnSegment(p, t.Vertices[i], t.Vertices[(i+1)%3])
		if d := r3.Norm2(r3.Sub(p, q)); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

func closestPointOnSegment(p, a, b r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	l := r3.Norm2(ab)
	if l == 0 {
		return a
	}
	s := r3.Dot(r3.Sub(p, a), ab) / l
	s = math.Max(0, math.Min(1, s))
	return r3.Add(a, r3.Scale(s, ab))
}

// Crossing is the result of a ray against triangle test.
type Crossing struct {
	Hit bool

	// The hit is too close to an edge, a vertex or the ray is parallel to
	// the triangle plane for the crossing count to be trusted.
	Ambiguous bool

	// Ray parameter of the hit.
	T float64
}

// RayCrossing tests the ray origin + t*dir, t >= 0, against the triangle.
func (t *TriangleElement) RayCrossing(origin r3.Vec, dir r3.Vec, tolerance float64) Crossing {
	if t.degenerate {
		return Crossing{}
	}

	e1 := r3.Sub(t.Vertices[1], t.Vertices[0])
	e2 := r3.Sub(t.Vertices[2], t.Vertices[0])
	h := r3.Cross(dir, e2)
	det := r3.Dot(e1, h)

	scale := r3.Norm(dir) * r3.Norm(e1) * r3.Norm(e2)
	if math.Abs(det) <= tolerance*scale {
		// parallel: only a problem when the ray lies in the plane and goes
		// through the triangle box.
		s := r3.Sub(origin, t.Vertices[0])
		if math.Abs(r3.Dot(s, t.Normal)) > tolerance {
			return Crossing{}
		}
		if _, _, ok := t.bbox.Pad(tolerance).RayInterval(origin, dir); !ok {
			return Crossing{}
		}
		return Crossing{Ambiguous: true}
	}

	inv := 1 / det
	s := r3.Sub(origin, t.Vertices[0])
	u := inv * r3.Dot(s, h)
	q := r3.Cross(s, e1)
	v := inv * r3.Dot(dir, q)
	tt := inv * r3.Dot(e2, q)

	if u < -tolerance || v < -tolerance || u+v > 1+tolerance || tt < -tolerance {
		return Crossing{}
	}

	if u <= tolerance || v <= tolerance || u+v >= 1-tolerance || tt <= tolerance {
		return Crossing{Hit: true, Ambiguous: true, T: tt}
	}

	return Crossing{Hit: true, T: tt}
}
