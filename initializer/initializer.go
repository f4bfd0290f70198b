// Package initializer fills the points of a local grid from a surface
// geometry, either with the side of the surface the point is on or with its
// signed distance to the surface.
package initializer

import (
	"context"
	"math"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/surfgrid/geometry"
	"github.com/aukilabs/surfgrid/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeMismatch        = "initializer_mismatch"
	ErrTypeReplicaMismatch = "replica_mismatch"
	ErrTypeConfig          = geometry.ErrTypeConfig
)

// Mode selects the value stored for each grid point.
type Mode string

const (
	// ModeClassification stores -1 inside the surface and +1 outside.
	ModeClassification Mode = "classification"

	// ModeDistance stores the signed distance to the surface, negative
	// inside, clamped to the narrow band.
	ModeDistance Mode = "distance"
)

type Options struct {
	Mode Mode

	// Largest stored distance in distance mode. Zero does not clamp.
	NarrowBand float64
}

func (o Options) Validate() error {
	switch o.Mode {
	case ModeClassification, ModeDistance:
	default:
		return errors.New("unknown initialization mode").
			WithType(ErrTypeConfig).
			WithTag("mode", o.Mode)
	}

	if o.NarrowBand < 0 || math.IsNaN(o.NarrowBand) {
		return errors.New("narrow band must not be negative").
			WithType(ErrTypeConfig).
			WithTag("narrow_band", o.NarrowBand)
	}
	return nil
}

// Stats summarizes an initialization.
type Stats struct {
	Strategy string        `json:"strategy"`
	Rank     int           `json:"rank"`
	Points   int           `json:"points"`
	Inside   int           `json:"inside"`
	Outside  int           `json:"outside"`
	Duration time.Duration `json:"duration"`
}

// Strategy initializes the points of a local grid from a geometry. The
// geometry is only read: several strategies can run on the same geometry
// concurrently.
type Strategy interface {
	Name() string
	Initialize(ctx context.Context, g *geometry.Geometry, target grid.LocalGrid) (Stats, error)
}

// BruteForce tests every point against every element. It is the reference
// the accelerated strategy is checked against.
type BruteForce struct {
	Options
}

func (s BruteForce) Name() string {
	return "brute_force"
}

func (s BruteForce) Initialize(ctx context.Context, g *geometry.Geometry, target grid.LocalGrid) (Stats, error) {
	return initialize(ctx, s.Name(), s.Options, target, g.ClassifyPointBruteForce, g.SignedDistanceBruteForce)
}

// Accelerated tests every point against the candidate elements selected by
// the geometry spatial index.
type Accelerated struct {
	Options
}

func (s Accelerated) Name() string {
	return "accelerated"
}

func (s Accelerated) Initialize(ctx context.Context, g *geometry.Geometry, target grid.LocalGrid) (Stats, error) {
	return initialize(ctx, s.Name(), s.Options, target, g.ClassifyPoint, g.SignedDistance)
}

func initialize(
	ctx context.Context,
	strategy string,
	opts Options,
	target grid.LocalGrid,
	classify func(r3.Vec) geometry.Side,
	distance func(r3.Vec, float64) float64,
) (Stats, error) {
	if err := opts.Validate(); err != nil {
		return Stats{}, err
	}

	start := time.Now()
	stats := Stats{
		Strategy: strategy,
		Rank:     target.LocalRegion().Rank,
	}

	for h, p := range target.LocalPoints() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		var v float64
		switch opts.Mode {
		case ModeDistance:
			v = distance(p, opts.NarrowBand)
		default:
			v = float64(classify(p))
		}

		if err := target.Store(h, v); err != nil {
			return stats, errors.New("storing grid value failed").
				WithTag("strategy", strategy).
				WithTag("handle", h).
				Wrap(err)
		}

		stats.Points++
		if v < 0 {
			stats.Inside++
		} else {
			stats.Outside++
		}
	}

	stats.Duration = time.Since(start)
	instrumentInitialization(stats)

	logs.WithTag("strategy", strategy).
		WithTag("rank", stats.Rank).
		WithTag("points", stats.Points).
		WithTag("inside", stats.Inside).
		WithTag("duration", stats.Duration).
		Debug("local grid initialized")
	return stats, nil
}
