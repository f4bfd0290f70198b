package spatial

import (
	"math/rand"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCrossCheck(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	boxes := randomBoxes(rnd, 600)
	bounds := boundsOf(boxes)

	tree := NewOctree(6, 7)
	require.NoError(t, tree.Build(bounds, boxes))
	grid := NewSearchGrid(10)
	require.NoError(t, grid.Build(bounds, boxes))

	queries := randomBoxes(rnd, 200)
	require.NoError(t, CrossCheck(boxes, queries, tree, grid))
}

type lossyIndex struct {
	Index
}

func (i lossyIndex) QueryOverlap(b mesh.Box) []int {
	res := i.Index.QueryOverlap(b)
	if len(res) == 0 {
		return res
	}
	return res[1:]
}

func (i lossyIndex) QueryPoint(p r3.Vec) []int {
	return i.QueryOverlap(mesh.BoxFromPoint(p))
}

func TestCrossCheckDetectsMissingElements(t *testing.T) {
	boxes := []mesh.Box{
		mesh.NewBox(mesh.NewVec(0, 0, 0), mesh.NewVec(1, 1, 1)),
		mesh.NewBox(mesh.NewVec(0.5, 0.5, 0.5), mesh.NewVec(2, 2, 2)),
	}

	grid := NewSearchGrid(2)
	require.NoError(t, grid.Build(boundsOf(boxes), boxes))

	err := CrossCheck(boxes, []mesh.Box{mesh.BoxFromPoint(mesh.NewVec(0.7, 0.7, 0.7))}, lossyIndex{Index: grid})
	require.Error(t, err)
	require.True(t, errors.IsType(err, ErrTypeIndexMismatch))
}
