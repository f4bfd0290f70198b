package provider

import (
	"testing"

	"github.com/aukilabs/surfgrid/mesh"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSDFSphere(t *testing.T) {
	p, err := NewSDFSphere(1, 24)
	require.NoError(t, err)

	facets, err := p.Elements()
	require.NoError(t, err)
	require.NotEmpty(t, facets)

	box, err := p.GlobalBoundingBox()
	require.NoError(t, err)
	require.True(t, box.Contains(mesh.NewVec(1, 1, 1)))

	for _, f := range facets {
		for _, v := range []r3.Vec{f.V0, f.V1, f.V2} {
			require.True(t, box.Contains(v))
			require.InDelta(t, 1, r3.Norm(v), 0.1)
		}
	}

	require.InDelta(t, -1, p.SignedDistance(mesh.NewVec(0, 0, 0)), 1e-9)
	require.InDelta(t, 1, p.SignedDistance(mesh.NewVec(2, 0, 0)), 1e-9)
}

func TestSDFBox(t *testing.T) {
	box := mesh.NewBox(mesh.NewVec(1, 1, 1), mesh.NewVec(3, 2, 2))
	p, err := NewSDFBox(box, 0, 16)
	require.NoError(t, err)

	facets, err := p.Elements()
	require.NoError(t, err)
	require.NotEmpty(t, facets)

	bounds, err := p.GlobalBoundingBox()
	require.NoError(t, err)
	require.True(t, bounds.ContainsBox(box))
	require.Negative(t, p.SignedDistance(box.Center()))
}

func TestSDFWithoutSurface(t *testing.T) {
	var p SDF
	_, err := p.Elements()
	require.Error(t, err)
	_, err = p.GlobalBoundingBox()
	require.Error(t, err)
}
