package grid

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/stretchr/testify/require"
)

func TestSpec(t *testing.T) {
	spec := NewSpecFromBox(mesh.NewBox(mesh.NewVec(-1, -1, -1), mesh.NewVec(1, 3, 1)), [3]int{5, 5, 1})
	require.NoError(t, spec.Validate())
	require.Equal(t, mesh.NewVec(0.5, 1, 0), spec.Spacing)
	require.Equal(t, 25, spec.Len())
	require.Equal(t, mesh.NewVec(0, 1, -1), spec.Point(2, 2, 0))
	require.Equal(t, 7, spec.Index(2, 1, 0))
	require.Equal(t, mesh.NewBox(mesh.NewVec(-1, -1, -1), mesh.NewVec(1, 3, -1)), spec.Box())

	t.Run("Validate: zero size", func(t *testing.T) {
		s := Spec{Spacing: mesh.NewVec(1, 1, 1), Size: [3]int{1, 0, 1}}
		err := s.Validate()
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeGrid))
	})

	t.Run("Validate: zero spacing", func(t *testing.T) {
		s := Spec{Spacing: mesh.NewVec(1, 0, 1), Size: [3]int{2, 2, 2}}
		require.Error(t, s.Validate())
	})
}

func TestDecompose(t *testing.T) {
	spec := Spec{
		Origin:  mesh.NewVec(0, 0, 0),
		Spacing: mesh.NewVec(1, 1, 1),
		Size:    [3]int{10, 7, 4},
	}

	subdomains, err := Decompose(spec, 4)
	require.NoError(t, err)
	require.Len(t, subdomains, 4)

	seen := make(map[int]int)
	for rank, s := range subdomains {
		require.Equal(t, rank, s.Rank)
		require.Equal(t, 4, s.Topology[0]*s.Topology[1]*s.Topology[2])

		for h, p := range s.LocalPoints() {
			require.NoError(t, s.Store(h, float64(s.Rank)))
			seen[spec.Index(int(p.X), int(p.Y), int(p.Z))]++
			require.True(t, s.LocalRegion().Contains(p))
		}
	}

	require.Len(t, seen, spec.Len())
	for _, count := range seen {
		require.Equal(t, 1, count)
	}

	values := Assemble(spec, subdomains)
	require.Len(t, values, spec.Len())
	for _, s := range subdomains {
		for h, p := range s.LocalPoints() {
			require.Equal(t, s.Value(h), values[spec.Index(int(p.X), int(p.Y), int(p.Z))])
		}
	}
}

func TestDecomposeTopology(t *testing.T) {
	spec := Spec{Spacing: mesh.NewVec(1, 1, 1), Size: [3]int{64, 64, 8}}

	subdomains, err := Decompose(spec, 4)
	require.NoError(t, err)
	require.Equal(t, [3]int{2, 2, 1}, subdomains[0].Topology)

	t.Run("Decompose: uneven split", func(t *testing.T) {
		require.Equal(t, []int{4, 3, 3}, splitAxis(10, 3))
	})

	t.Run("Decompose: too many ranks", func(t *testing.T) {
		_, err := Decompose(Spec{Spacing: mesh.NewVec(1, 1, 1), Size: [3]int{1, 1, 1}}, 2)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeGrid))
	})

	t.Run("Decompose: no rank", func(t *testing.T) {
		_, err := Decompose(spec, 0)
		require.Error(t, err)
	})
}

func TestSubdomain(t *testing.T) {
	spec := Spec{Spacing: mesh.NewVec(1, 1, 1), Size: [3]int{2, 2, 2}}
	subdomains, err := Decompose(spec, 1)
	require.NoError(t, err)
	s := subdomains[0]

	require.Equal(t, 8, s.Len())
	require.True(t, math.IsNaN(s.Value(0)))
	require.Error(t, s.Store(8, 1))
	require.Error(t, s.Store(-1, 1))

	// restartable and stoppable iteration.
	count := 0
	for range s.LocalPoints() {
		count++
		if count == 3 {
			break
		}
	}
	require.Equal(t, 3, count)

	count = 0
	for range s.LocalPoints() {
		count++
	}
	require.Equal(t, 8, count)

	region := s.LocalRegion()
	require.Equal(t, 0, region.Rank)
	require.Equal(t, mesh.NewBox(mesh.NewVec(0, 0, 0), mesh.NewVec(1, 1, 1)), region.Box)
}
