package geometry

import (
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/aukilabs/surfgrid/spatial"
)

// CrossCheckIndexes builds both an octree and a search grid over the
// elements and checks their answers to the queries against an exact scan.
// It is independent of the index the geometry uses.
func (g *Geometry) CrossCheckIndexes(queries []mesh.Box) error {
	tree := spatial.NewOctree(g.conf.OctreeCapacity, g.conf.OctreeMaxDepth)
	if err := tree.Build(g.bounds, g.boxes); err != nil {
		return err
	}

	grid := spatial.NewSearchGrid(g.conf.BucketResolution)
	if err := grid.Build(g.bounds, g.boxes); err != nil {
		return err
	}

	return spatial.CrossCheck(g.boxes, queries, tree, grid)
}
