package grid

import (
	"iter"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Subdomain is the block of grid points owned by one rank. It implements
// LocalGrid and keeps the stored values in memory.
//
// A subdomain is meant to be initialized by a single goroutine.
type Subdomain struct {
	Rank  int
	Start [3]int
	Count [3]int

	// Number of ranks per axis of the decomposition.
	Topology [3]int

	spec   Spec
	values []float64
}

func newSubdomain(spec Spec, rank int, start, count, topology [3]int) *Subdomain {
	values := make([]float64, count[0]*count[1]*count[2])
	for i := range values {
		values[i] = math.NaN()
	}

	return &Subdomain{
		Rank:     rank,
		Start:    start,
		Count:    count,
		Topology: topology,
		spec:     spec,
		values:   values,
	}
}

func (s *Subdomain) Spec() Spec {
	return s.spec
}

// Len returns the number of points of the subdomain.
func (s *Subdomain) Len() int {
	return len(s.values)
}

// LocalPoints yields the points in x-fastest order. Handles are positions in
// that order.
func (s *Subdomain) LocalPoints() iter.Seq2[Handle, r3.Vec] {
	return func(yield func(Handle, r3.Vec) bool) {
		h := 0
		for k := 0; k < s.Count[2]; k++ {
			for j := 0; j < s.Count[1]; j++ {
				for i := 0; i < s.Count[0]; i++ {
					p := s.spec.Point(s.Start[0]+i, s.Start[1]+j, s.Start[2]+k)
					if !yield(Handle(h), p) {
						return
					}
					h++
				}
			}
		}
	}
}

func (s *Subdomain) Store(h Handle, v float64) error {
	if h < 0 || int(h) >= len(s.values) {
		return errors.New("handle out of the subdomain").
			WithType(ErrTypeGrid).
			WithTag("rank", s.Rank).
			WithTag("handle", h).
			WithTag("len", len(s.values))
	}

	s.values[h] = v
	return nil
}

// Value returns the value stored for h, NaN when nothing was stored.
func (s *Subdomain) Value(h Handle) float64 {
	return s.values[h]
}

// Values returns the stored values in handle order.
func (s *Subdomain) Values() []float64 {
	return s.values
}

func (s *Subdomain) LocalRegion() BoundingBox {
	if s.Len() == 0 {
		return BoundingBox{Box: mesh.EmptyBox(), Rank: s.Rank}
	}

	lo := s.spec.Point(s.Start[0], s.Start[1], s.Start[2])
	hi := s.spec.Point(
		s.Start[0]+s.Count[0]-1,
		s.Start[1]+s.Count[1]-1,
		s.Start[2]+s.Count[2]-1,
	)
	return BoundingBox{
		Box:  mesh.NewBox(lo, hi),
		Rank: s.Rank,
	}
}

// Assemble gathers the values of the subdomains of a decomposition into the
// x-fastest ordering of the whole grid.
func Assemble(spec Spec, subdomains []*Subdomain) []float64 {
	res := make([]float64, spec.Len())
	for i := range res {
		res[i] = math.NaN()
	}

	for _, s := range subdomains {
		h := 0
		for k := 0; k < s.Count[2]; k++ {
			for j := 0; j < s.Count[1]; j++ {
				for i := 0; i < s.Count[0]; i++ {
					res[spec.Index(s.Start[0]+i, s.Start[1]+j, s.Start[2]+k)] = s.values[h]
					h++
				}
			}
		}
	}
	return res
}
