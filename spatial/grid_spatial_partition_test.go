package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aukilabs/surfgrid/mesh"
	"github.com/stretchr/testify/require"
)

func TestSearchGridBuild(t *testing.T) {
	boxes := []mesh.Box{
		mesh.NewBox(mesh.NewVec(0, 0, 0), mesh.NewVec(1, 1, 1)),
		mesh.NewBox(mesh.NewVec(3, 3, 3), mesh.NewVec(4, 4, 4)),
		mesh.NewBox(mesh.NewVec(0, 0, 0), mesh.NewVec(4, 4, 4)),
	}

	grid := NewSearchGrid(4)
	require.NoError(t, grid.Build(boundsOf(boxes), boxes))

	info := grid.DebugInfo()
	require.Equal(t, KindBucket, info.Kind)
	require.Equal(t, 4, info.Resolution)
	require.Len(t, info.Occupancy, 64)

	total := 0
	for _, o := range info.Occupancy {
		total += int(o)
	}
	// the large box covers every cell. The first box touches its upper
	// neighbours, the last one is clamped to the corner cell.
	require.Equal(t, 64+8+1, total)

	require.Equal(t, []int{0, 2}, grid.QueryPoint(mesh.NewVec(0.5, 0.5, 0.5)))
	require.Equal(t, []int{1, 2}, grid.QueryPoint(mesh.NewVec(3.5, 3.5, 3.5)))
	require.Empty(t, grid.QueryPoint(mesh.NewVec(5, 5, 5)))
}

func TestSearchGridQueryIsSuperset(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	boxes := randomBoxes(rnd, 800)

	grid := NewSearchGrid(8)
	require.NoError(t, grid.Build(boundsOf(boxes), boxes))

	for i := 0; i < 300; i++ {
		query := randomBoxes(rnd, 1)[0].Scale(1 + rnd.Float64()*4)
		got := grid.QueryOverlap(query)

		require.IsIncreasing(t, got)
		require.Subset(t, got, ExactOverlap(boxes, query))
	}
}

func TestSearchGridEdgeCases(t *testing.T) {
	t.Run("SearchGrid: empty", func(t *testing.T) {
		grid := NewSearchGrid(0)
		require.Equal(t, DefaultBucketResolution, grid.Resolution)
		require.NoError(t, grid.Build(mesh.EmptyBox(), nil))
		require.Empty(t, grid.QueryPoint(mesh.NewVec(0, 0, 0)))
		require.Empty(t, grid.DebugInfo().Occupancy)
	})

	t.Run("SearchGrid: flat bounds", func(t *testing.T) {
		boxes := []mesh.Box{
			mesh.NewBox(mesh.NewVec(0, 0, 0), mesh.NewVec(1, 1, 0)),
			mesh.NewBox(mesh.NewVec(2, 2, 0), mesh.NewVec(3, 3, 0)),
		}

		grid := NewSearchGrid(3)
		require.NoError(t, grid.Build(boundsOf(boxes), boxes))
		require.Equal(t, []int{0}, grid.QueryPoint(mesh.NewVec(0.5, 0.5, 0)))
		require.Equal(t, []int{1}, grid.QueryPoint(mesh.NewVec(2.5, 2.5, 0)))
	})

	t.Run("SearchGrid: elements outside the declared bounds", func(t *testing.T) {
		boxes := []mesh.Box{
			mesh.NewBox(mesh.NewVec(0, 0, 0), mesh.NewVec(1, 1, 1)),
			mesh.NewBox(mesh.NewVec(10, 10, 10), mesh.NewVec(11, 11, 11)),
		}

		grid := NewSearchGrid(4)
		require.NoError(t, grid.Build(boxes[0], boxes))
		require.Contains(t, grid.QueryPoint(mesh.NewVec(10.5, 10.5, 10.5)), 1)
	})
}

func TestSearchGridUnboundedQueries(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	boxes := randomBoxes(rnd, 200)

	grid := NewSearchGrid(6)
	require.NoError(t, grid.Build(boundsOf(boxes), boxes))

	inf := math.Inf(1)
	queries := map[string]mesh.Box{
		"huge":     mesh.NewBox(mesh.NewVec(0.5, 0.5, 0.5), mesh.NewVec(1e30, 1e30, 1e30)),
		"negative": mesh.NewBox(mesh.NewVec(-1e300, -1e300, -1e300), mesh.NewVec(0.5, 0.5, 0.5)),
		"infinite": mesh.NewBox(mesh.NewVec(-inf, -inf, -inf), mesh.NewVec(inf, inf, inf)),
	}

	for name, query := range queries {
		t.Run("SearchGrid: "+name+" query box", func(t *testing.T) {
			got := grid.QueryOverlap(query)
			require.IsIncreasing(t, got)
			require.Subset(t, got, ExactOverlap(boxes, query))
		})
	}

	require.Len(t, grid.QueryOverlap(queries["infinite"]), len(boxes))
}
