package spatial

import (
	"math/rand"
	"testing"

	"github.com/aukilabs/surfgrid/mesh"
	"github.com/stretchr/testify/require"
)

func randomBoxes(rnd *rand.Rand, n int) []mesh.Box {
	boxes := make([]mesh.Box, n)
	for i := range boxes {
		c := mesh.NewVec(rnd.Float64()*10-5, rnd.Float64()*10-5, rnd.Float64()*10-5)
		e := mesh.NewVec(rnd.Float64()*0.5, rnd.Float64()*0.5, rnd.Float64()*0.5)
		if i%7 == 0 {
			e.Z = 0
		}
		boxes[i] = mesh.BoxFromCenterExtent(c, e)
	}
	return boxes
}

func boundsOf(boxes []mesh.Box) mesh.Box {
	bounds := mesh.EmptyBox()
	for _, b := range boxes {
		bounds = bounds.Union(b)
	}
	return bounds
}

func TestOctreeBuild(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	boxes := randomBoxes(rnd, 1000)

	tree := NewOctree(4, 6)
	require.NoError(t, tree.Build(boundsOf(boxes), boxes))

	t.Run("Build: every element is stored once", func(t *testing.T) {
		seen := make(map[int]int)
		tree.Walk(func(n *TreeNode) bool {
			for _, e := range n.Elements {
				seen[e]++
			}
			return true
		})

		require.Len(t, seen, len(boxes))
		for _, count := range seen {
			require.Equal(t, 1, count)
		}
	})

	t.Run("Build: node boxes contain their elements", func(t *testing.T) {
		tree.Walk(func(n *TreeNode) bool {
			if n.Level == 0 {
				return true
			}
			for _, e := range n.Elements {
				require.True(t, n.Box.ContainsBox(boxes[e]))
			}
			return true
		})
	})

	t.Run("Build: leaves split only over capacity", func(t *testing.T) {
		tree.Walk(func(n *TreeNode) bool {
			if !n.IsLeaf() {
				require.Less(t, n.Level, tree.MaxDepth)
			}
			return true
		})
	})

	t.Run("Build: debug info", func(t *testing.T) {
		info := tree.DebugInfo()
		require.Equal(t, KindOctree, info.Kind)
		require.Equal(t, len(boxes), info.Elements)
		require.Greater(t, info.Nodes, 1)
		require.LessOrEqual(t, info.Depth, tree.MaxDepth)
	})
}

func TestOctreeQueryOverlapIsExact(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	boxes := randomBoxes(rnd, 800)

	tree := NewOctree(3, 8)
	require.NoError(t, tree.Build(boundsOf(boxes), boxes))

	for i := 0; i < 300; i++ {
		query := randomBoxes(rnd, 1)[0].Scale(1 + rnd.Float64()*4)
		require.Equal(t, ExactOverlap(boxes, query), tree.QueryOverlap(query))
	}

	for _, b := range boxes[:50] {
		p := b.Center()
		require.Equal(t, ExactOverlap(boxes, mesh.BoxFromPoint(p)), tree.QueryPoint(p))
	}
}

func TestOctreeInsertionOrder(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	boxes := randomBoxes(rnd, 500)

	shuffled := make([]mesh.Box, len(boxes))
	perm := rnd.Perm(len(boxes))
	for i, j := range perm {
		shuffled[j] = boxes[i]
	}

	a := NewOctree(4, 8)
	require.NoError(t, a.Build(boundsOf(boxes), boxes))
	b := NewOctree(4, 8)
	require.NoError(t, b.Build(boundsOf(shuffled), shuffled))

	for i := 0; i < 100; i++ {
		query := randomBoxes(rnd, 1)[0].Scale(3)

		var remapped []int
		for _, e := range a.QueryOverlap(query) {
			remapped = append(remapped, perm[e])
		}
		got := b.QueryOverlap(query)
		require.ElementsMatch(t, remapped, got)
	}
}

func TestOctreeEdgeCases(t *testing.T) {
	t.Run("Octree: empty", func(t *testing.T) {
		tree := NewOctree(0, -1)
		require.Equal(t, DefaultOctreeCapacity, tree.Capacity)
		require.Equal(t, DefaultOctreeMaxDepth, tree.MaxDepth)

		require.NoError(t, tree.Build(mesh.EmptyBox(), nil))
		require.Empty(t, tree.QueryOverlap(mesh.NewBox(mesh.NewVec(-1, -1, -1), mesh.NewVec(1, 1, 1))))
		require.Empty(t, tree.QueryPoint(mesh.NewVec(0, 0, 0)))
		require.Equal(t, 1, tree.DebugInfo().Nodes)
	})

	t.Run("Octree: elements outside the root", func(t *testing.T) {
		boxes := []mesh.Box{
			mesh.NewBox(mesh.NewVec(0, 0, 0), mesh.NewVec(1, 1, 1)),
			mesh.NewBox(mesh.NewVec(10, 10, 10), mesh.NewVec(11, 11, 11)),
		}

		tree := NewOctree(1, 4)
		require.NoError(t, tree.Build(boxes[0], boxes))
		require.Equal(t, []int{1}, tree.QueryPoint(mesh.NewVec(10.5, 10.5, 10.5)))
		require.Equal(t, []int{0}, tree.QueryPoint(mesh.NewVec(0.5, 0.5, 0.5)))
	})

	t.Run("Octree: clustered elements saturate", func(t *testing.T) {
		boxes := make([]mesh.Box, 50)
		for i := range boxes {
			boxes[i] = mesh.BoxAround(mesh.NewVec(1, 1, 1), 0.01)
		}
		boxes = append(boxes, mesh.NewBox(mesh.NewVec(-4, -4, -4), mesh.NewVec(-3.9, -3.9, -3.9)))

		tree := NewOctree(4, 3)
		require.NoError(t, tree.Build(boundsOf(boxes), boxes))

		info := tree.DebugInfo()
		require.Equal(t, 1, info.SaturatedLeaves)
		require.Equal(t, 50, info.SaturatedElements)
		require.Len(t, tree.QueryPoint(mesh.NewVec(1, 1, 1)), 50)
	})

	t.Run("Octree: invalid box", func(t *testing.T) {
		tree := NewOctree(4, 3)
		err := tree.Build(mesh.EmptyBox(), []mesh.Box{mesh.EmptyBox()})
		require.Error(t, err)
	})

	t.Run("Octree: straddling elements stay at the node", func(t *testing.T) {
		boxes := []mesh.Box{
			mesh.NewBox(mesh.NewVec(-1, -1, -1), mesh.NewVec(-0.5, -0.5, -0.5)),
			mesh.NewBox(mesh.NewVec(0.5, 0.5, 0.5), mesh.NewVec(1, 1, 1)),
			mesh.NewBox(mesh.NewVec(-0.1, -0.1, -0.1), mesh.NewVec(0.1, 0.1, 0.1)),
		}

		tree := NewOctree(1, 4)
		require.NoError(t, tree.Build(boundsOf(boxes), boxes))

		var rootElements []int
		tree.Walk(func(n *TreeNode) bool {
			if n.Level == 0 {
				rootElements = n.Elements
			}
			return false
		})
		require.Equal(t, []int{2}, rootElements)
	})
}
