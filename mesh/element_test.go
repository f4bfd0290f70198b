package mesh

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestTriangle(t *testing.T, v0, v1, v2 r3.Vec) TriangleElement {
	tri, err := NewTriangleElement(v0, v1, v2, 1)
	require.NoError(t, err)
	return tri
}

func TestNewTriangleElement(t *testing.T) {
	t.Run("NewTriangleElement: normal and bounding box", func(t *testing.T) {
		tri := newTestTriangle(t, NewVec(0, 0, 0), NewVec(2, 0, 0), NewVec(0, 1, 3))
		require.False(t, tri.IsDegenerate())
		require.InDelta(t, 1, r3.Norm(tri.Normal), 1e-12)
		require.Equal(t, NewBox(NewVec(0, 0, 0), NewVec(2, 1, 3)), tri.BoundingBox())
		require.Equal(t, int64(1), tri.Facet().ID)
	})

	t.Run("NewTriangleElement: coincident vertices", func(t *testing.T) {
		_, err := NewTriangleElement(NewVec(0, 0, 0), NewVec(0, 0, 0), NewVec(1, 0, 0), 7)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeInvalidElement))
	})

	t.Run("NewTriangleElement: non finite vertex", func(t *testing.T) {
		_, err := NewTriangleElement(NewVec(0, 0, 0), NewVec(math.Inf(1), 0, 0), NewVec(1, 1, 0), 7)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeInvalidElement))
	})

	t.Run("NewTriangleElement: collinear vertices", func(t *testing.T) {
		tri := newTestTriangle(t, NewVec(0, 0, 0), NewVec(1, 1, 1), NewVec(2, 2, 2))
		require.True(t, tri.IsDegenerate())
		require.Equal(t, r3.Vec{}, tri.Normal)
		require.Zero(t, tri.Area())
	})
}

func TestTriangleElementMeasures(t *testing.T) {
	tri := newTestTriangle(t, NewVec(0, 0, 0), NewVec(3, 0, 0), NewVec(0, 3, 0))
	require.Equal(t, 4.5, tri.Area())
	require.Equal(t, NewVec(1, 1, 0), tri.Centroid())
	require.Equal(t, NewVec(0, 0, 1), tri.Normal)
}

func TestTriangleElementRegions(t *testing.T) {
	tri := newTestTriangle(t, NewVec(0, 0, 0), NewVec(1, 0, 0), NewVec(0, 1, 0))

	require.True(t, tri.IsInsideRegion(NewBox(NewVec(0, 0, 0), NewVec(1, 1, 1))))
	require.False(t, tri.IsInsideRegion(NewBox(NewVec(0, 0, 0), NewVec(0.5, 1, 1))))

	require.True(t, tri.IsPartlyInRegion(NewBox(NewVec(0, 0, 0), NewVec(0.5, 1, 1))))
	require.True(t, tri.IsPartlyInRegion(NewBox(NewVec(-1, -1, -1), NewVec(0, 0, 0))))

	// bounding boxes overlap but the hypotenuse passes below the box.
	require.False(t, tri.IsPartlyInRegion(NewBox(NewVec(0.8, 0.8, -0.1), NewVec(1, 1, 0.1))))
}
