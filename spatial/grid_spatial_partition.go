package spatial

import (
	"math"
	"slices"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Regular Grid Spatial Partition
//
// A uniformly sub-divided grid implementing the Index interface. The
// particularities are:
//   - the grid covers the global bounds with Resolution cells per axis,
//   - an element is registered in every cell its box overlaps, so the same
//     element is expected in several cells,
//   - cell coordinates are clamped to the grid: boxes reaching out of the
//     bounds are registered in the border cells.

const DefaultBucketResolution = 16

type SearchGrid struct {
	Resolution int

	min      r3.Vec
	max      r3.Vec
	cellSize r3.Vec
	buckets  [][]int
	boxes    []mesh.Box
}

func NewSearchGrid(resolution int) *SearchGrid {
	if resolution <= 0 {
		resolution = DefaultBucketResolution
	}

	return &SearchGrid{
		Resolution: resolution,
	}
}

func (g *SearchGrid) Kind() Kind {
	return KindBucket
}

func (g *SearchGrid) Build(bounds mesh.Box, boxes []mesh.Box) error {
	start := time.Now()

	for i, b := range boxes {
		if err := b.Validate(); err != nil {
			return errors.New("invalid element box").
				WithType(ErrTypeIndexBuild).
				WithTag("index_kind", KindBucket).
				WithTag("element", i).
				Wrap(err)
		}
		bounds = bounds.Union(b)
	}

	g.boxes = boxes
	g.buckets = nil
	if len(boxes) == 0 {
		instrumentIndexBuild(KindBucket, 0, start)
		return nil
	}

	m := g.Resolution
	g.min = bounds.Min
	g.max = bounds.Max
	g.cellSize = r3.Scale(1/float64(m), bounds.Size())
	g.buckets = make([][]int, m*m*m)

	for i, b := range boxes {
		lo, hi := g.cellRange(b)
		for x := lo[0]; x <= hi[0]; x++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for z := lo[2]; z <= hi[2]; z++ {
					j := g.bucketIndex(x, y, z)
					g.buckets[j] = append(g.buckets[j], i)
				}
			}
		}
	}

	instrumentIndexBuild(KindBucket, len(boxes), start)
	return nil
}

func (g *SearchGrid) bucketIndex(x, y, z int) int {
	m := g.Resolution
	return (x*m+y)*m + z
}

// cellRange returns the clamped cell coordinates covered by b.
func (g *SearchGrid) cellRange(b mesh.Box) (lo, hi [3]int) {
	for axis := 0; axis < 3; axis++ {
		lo[axis] = g.cellCoord(b.Min, axis)
		hi[axis] = g.cellCoord(b.Max, axis)
	}
	return lo, hi
}

func (g *SearchGrid) cellCoord(p r3.Vec, axis int) int {
	size := mesh.Component(g.cellSize, axis)
	if size == 0 {
		return 0
	}

	// Clamp before converting, int() of an out-of-range float is undefined.
	f := math.Floor((mesh.Component(p, axis) - mesh.Component(g.min, axis)) / size)
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Max(0, math.Min(f, float64(g.Resolution-1))))
}

func (g *SearchGrid) QueryOverlap(b mesh.Box) []int {
	if len(g.buckets) == 0 || b.IsEmpty() {
		return nil
	}
	if !b.Intersects(mesh.NewBox(g.min, g.max)) {
		return nil
	}

	var res []int
	lo, hi := g.cellRange(b)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				res = append(res, g.buckets[g.bucketIndex(x, y, z)]...)
			}
		}
	}

	slices.Sort(res)
	res = slices.Compact(res)
	instrumentQuery(KindBucket, len(res))
	return res
}

func (g *SearchGrid) QueryPoint(p r3.Vec) []int {
	return g.QueryOverlap(mesh.BoxFromPoint(p))
}

func (g *SearchGrid) DebugInfo() DebugInfo {
	info := DebugInfo{
		Kind:       KindBucket,
		Elements:   len(g.boxes),
		Resolution: g.Resolution,
		Min:        g.min,
		Max:        g.max,
	}

	if len(g.buckets) == 0 {
		return info
	}

	info.Occupancy = make([]uint32, len(g.buckets))
	for i, b := range g.buckets {
		info.Occupancy[i] = uint32(len(b))
	}
	return info
}
