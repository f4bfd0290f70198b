package geometry

import (
	"math"
	"slices"

	"github.com/aukilabs/surfgrid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Side is the position of a point relative to the surface. Its value is the
// one stored by the classification output: -1 inside and +1 outside.
type Side int

const (
	Inside  Side = -1
	Outside Side = 1
)

func (s Side) String() string {
	if s == Inside {
		return "inside"
	}
	return "outside"
}

// rayDirections are the parity ray directions, tried in order until one
// gives an unambiguous crossing count. None of them is axis aligned so rays
// from grid points do not run along mesh edges of axis aligned surfaces.
var rayDirections = [3]r3.Vec{
	r3.Unit(r3.Vec{X: 1, Y: 0.7548776662466927, Z: 0.5698402909980532}),
	r3.Unit(r3.Vec{X: -0.6180339887498949, Y: 1, Z: 0.3819660112501051}),
	r3.Unit(r3.Vec{X: 0.2360679774997897, Y: -0.4142135623730950, Z: 1}),
}

// candidateSource returns element positions to test. The accelerated source
// asks the index, the brute force source returns every element.
type candidateSource interface {
	point(p r3.Vec) []int
	ray(p r3.Vec, dir r3.Vec) []int
	nearest(p r3.Vec) (nearestResult, bool)
}

// ClassifyPoint resolves the side of p using the spatial index to select
// candidate elements.
func (g *Geometry) ClassifyPoint(p r3.Vec) Side {
	return g.classify(p, accelerated{g: g})
}

// ClassifyPointBruteForce resolves the side of p against every element.
func (g *Geometry) ClassifyPointBruteForce(p r3.Vec) Side {
	return g.classify(p, bruteForce{g: g})
}

// SignedDistance returns the distance between p and the nearest element,
// negative inside, clamped to [-band, band]. A non positive band does not
// clamp. The spatial index selects candidate elements.
func (g *Geometry) SignedDistance(p r3.Vec, band float64) float64 {
	return g.signedDistance(p, band, accelerated{g: g}, accelerated{g: g, band: band})
}

// SignedDistanceBruteForce is SignedDistance tested against every element.
func (g *Geometry) SignedDistanceBruteForce(p r3.Vec, band float64) float64 {
	return g.signedDistance(p, band, bruteForce{g: g}, bruteForce{g: g})
}

func (g *Geometry) defaultSide() Side {
	if g.conf.DefaultInside {
		return Inside
	}
	return Outside
}

func (g *Geometry) classify(p r3.Vec, src candidateSource) Side {
	if len(g.elements) == 0 {
		return g.defaultSide()
	}

	// points on the surface are outside.
	for _, i := range src.point(p) {
		if g.elements[i].Distance(p).Dist == 0 {
			return Outside
		}
	}

	var side Side
	switch g.conf.ClassificationRule {
	case RuleNearestSign:
		nearest, ok := src.nearest(p)
		switch {
		case !ok:
			side = g.defaultSide()
		case nearest.Dist == 0:
			side = Outside
		case nearest.Sign < 0:
			side = Inside
		default:
			side = Outside
		}

	default:
		side = g.parity(p, src)
	}

	instrumentClassification(g.conf.ClassificationRule, side)
	return side
}

// parity casts rays from p and counts the element crossings. An odd count is
// inside. A direction with an ambiguous crossing is dropped for the next
// one; when every direction is ambiguous the majority wins.
func (g *Geometry) parity(p r3.Vec, src candidateSource) Side {
	insideVotes := 0
	for k, dir := range rayDirections {
		crossings, ambiguous := g.countCrossings(p, dir, src.ray(p, dir))
		if !ambiguous {
			return sideOfCount(crossings)
		}

		instrumentAmbiguousRay(k)
		if sideOfCount(crossings) == Inside {
			insideVotes++
		}
	}

	if 2*insideVotes > len(rayDirections) {
		return Inside
	}
	return Outside
}

func sideOfCount(crossings int) Side {
	if crossings%2 == 1 {
		return Inside
	}
	return Outside
}

func (g *Geometry) countCrossings(p r3.Vec, dir r3.Vec, candidates []int) (int, bool) {
	crossings := 0
	ambiguous := false
	for _, i := range candidates {
		c := g.elements[i].RayCrossing(p, dir, g.conf.Tolerance)
		if c.Ambiguous {
			ambiguous = true
		}
		if c.Hit {
			crossings++
		}
	}
	return crossings, ambiguous
}

// signedDistance takes the sign from the classification of p and the
// magnitude from the nearest element found by dist.
func (g *Geometry) signedDistance(p r3.Vec, band float64, side, dist candidateSource) float64 {
	limit := math.Inf(1)
	if band > 0 {
		limit = band
	}

	sign := float64(g.classify(p, side))
	nearest, ok := dist.nearest(p)
	if !ok || nearest.Dist > limit {
		return sign * limit
	}
	return sign * nearest.Dist
}

type nearestResult struct {
	mesh.Distance
	Element int
}

// nearestOf returns the nearest element among the candidates. Distances
// within tolerance of the minimum are equal: the element with the largest
// perpendicular distance wins, then the lowest position.
func (g *Geometry) nearestOf(p r3.Vec, candidates []int) (nearestResult, bool) {
	if len(candidates) == 0 {
		return nearestResult{}, false
	}

	dists := make([]mesh.Distance, len(candidates))
	minDist := math.Inf(1)
	for j, i := range candidates {
		dists[j] = g.elements[i].Distance(p)
		minDist = math.Min(minDist, dists[j].Dist)
	}

	best := -1
	for j, d := range dists {
		if d.Dist > minDist+g.conf.Tolerance {
			continue
		}
		if best == -1 || d.Perpendicular > dists[best].Perpendicular {
			best = j
		}
	}

	return nearestResult{
		Distance: dists[best],
		Element:  candidates[best],
	}, true
}

type bruteForce struct {
	g *Geometry
}

func (b bruteForce) all() []int {
	res := make([]int, len(b.g.elements))
	for i := range res {
		res[i] = i
	}
	return res
}

func (b bruteForce) point(p r3.Vec) []int {
	return b.all()
}

func (b bruteForce) ray(p r3.Vec, dir r3.Vec) []int {
	return b.all()
}

func (b bruteForce) nearest(p r3.Vec) (nearestResult, bool) {
	return b.g.nearestOf(p, b.all())
}

type accelerated struct {
	g *Geometry

	// Distances past band are not needed, zero when every distance is.
	band float64
}

func (a accelerated) point(p r3.Vec) []int {
	return a.g.index.QueryPoint(p)
}

// ray returns the elements whose box overlaps the ray from p to the exit of
// the geometry bounds. The segment is cut in pieces so that each query box
// stays small. Pieces are padded so that crossings within tolerance of an
// element edge are candidates too.
func (a accelerated) ray(p r3.Vec, dir r3.Vec) []int {
	g := a.g
	diag := g.bounds.Diagonal()
	pad := 2*g.conf.Tolerance*(diag+1) + mesh.Epsilon

	tmin, tmax, ok := g.bounds.Pad(pad).RayInterval(p, dir)
	if !ok {
		return nil
	}
	pieces := int(math.Ceil((tmax - tmin) / diag * rayPiecesPerDiagonal))
	pieces = max(1, min(pieces, rayPiecesPerDiagonal))

	step := (tmax - tmin) / float64(pieces)
	var res []int
	for k := 0; k < pieces; k++ {
		from := r3.Add(p, r3.Scale(tmin+float64(k)*step, dir))
		to := r3.Add(p, r3.Scale(tmin+float64(k+1)*step, dir))
		res = append(res, g.index.QueryOverlap(mesh.BoxFromPoint(from).Expand(to).Pad(pad))...)
	}
	slices.Sort(res)
	return slices.Compact(res)
}

const rayPiecesPerDiagonal = 16

// nearest finds the nearest element by querying growing boxes around p. The
// search stops once the box contains every element that could beat or tie
// the best candidate, so it returns what a scan of every element returns.
func (a accelerated) nearest(p r3.Vec) (nearestResult, bool) {
	g := a.g
	if !g.conf.QueryWidening {
		return g.nearestOf(p, g.index.QueryPoint(p))
	}

	limit := g.wideningLimit(p)
	if a.band > 0 {
		limit = math.Min(limit, a.band+g.conf.Tolerance)
	}

	for r := math.Min(g.wideningStart(p), limit); ; r = math.Min(2*r, limit) {
		res, ok := g.nearestOf(p, g.index.QueryOverlap(mesh.BoxAround(p, r)))
		if (ok && res.Dist+g.conf.Tolerance <= r) || r >= limit {
			return res, ok
		}
	}
}
