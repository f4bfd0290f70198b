package initializer

import (
	"context"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/geometry"
	"github.com/aukilabs/surfgrid/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is a surface with a closed form signed distance, negative inside.
type Surface interface {
	SignedDistance(p r3.Vec) float64
}

// Analytic initializes the grid from the exact surface the geometry was
// tessellated from, ignoring the geometry elements.
type Analytic struct {
	Options

	Surface Surface
}

func (s Analytic) Name() string {
	return "analytic"
}

func (s Analytic) Initialize(ctx context.Context, g *geometry.Geometry, target grid.LocalGrid) (Stats, error) {
	if s.Surface == nil {
		return Stats{}, errors.New("analytic strategy requires a surface").
			WithType(ErrTypeConfig)
	}
	return initialize(ctx, s.Name(), s.Options, target, s.classify, s.distance)
}

func (s Analytic) classify(p r3.Vec) geometry.Side {
	if s.Surface.SignedDistance(p) < 0 {
		return geometry.Inside
	}
	return geometry.Outside
}

func (s Analytic) distance(p r3.Vec, band float64) float64 {
	d := s.Surface.SignedDistance(p)
	if band > 0 {
		d = math.Max(-band, math.Min(d, band))
	}
	return d
}
