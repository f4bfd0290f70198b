package initializer

import (
	"context"
	"iter"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/surfgrid/geometry"
	"github.com/aukilabs/surfgrid/grid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Report is the result of a cross check.
type Report struct {
	Stats      Stats   `json:"stats"`
	Points     int     `json:"points"`
	Mismatches int     `json:"mismatches"`
	Fraction   float64 `json:"mismatch_fraction"`
}

// CrossCheck initializes the target with both the brute force and the
// accelerated strategies and compares the values. It fails with an
// ErrTypeMismatch error when the fraction of differing points exceeds
// tolerance. Otherwise the accelerated values are stored in the target.
func CrossCheck(ctx context.Context, g *geometry.Geometry, target grid.LocalGrid, opts Options, tolerance float64) (Report, error) {
	return crossCheck(ctx, g, target, BruteForce{Options: opts}, Accelerated{Options: opts}, tolerance)
}

func crossCheck(ctx context.Context, g *geometry.Geometry, target grid.LocalGrid, ref, candidate Strategy, tolerance float64) (Report, error) {
	reference := newRecorder(target)
	if _, err := ref.Initialize(ctx, g, reference); err != nil {
		return Report{}, err
	}

	accelerated := newRecorder(target)
	stats, err := candidate.Initialize(ctx, g, accelerated)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Stats:  stats,
		Points: len(accelerated.values),
	}
	for h, v := range accelerated.values {
		if math.Abs(v-reference.values[h]) > g.Config().Tolerance {
			report.Mismatches++
			logs.WithTag("rank", stats.Rank).
				WithTag("handle", h).
				WithTag(ref.Name(), reference.values[h]).
				WithTag(candidate.Name(), v).
				Debug("initializer mismatch")
		}
	}
	if report.Points != 0 {
		report.Fraction = float64(report.Mismatches) / float64(report.Points)
	}
	instrumentMismatches(report.Mismatches)

	if report.Fraction > tolerance {
		return report, errors.New("initializers disagree").
			WithType(ErrTypeMismatch).
			WithTag("rank", stats.Rank).
			WithTag("mismatches", report.Mismatches).
			WithTag("points", report.Points).
			WithTag("tolerance", tolerance)
	}

	for h, v := range accelerated.values {
		if err := target.Store(h, v); err != nil {
			return report, err
		}
	}
	return report, nil
}

// recorder keeps the values stored for the points of a local grid without
// touching it.
type recorder struct {
	grid.LocalGrid
	values map[grid.Handle]float64
}

func newRecorder(g grid.LocalGrid) *recorder {
	return &recorder{
		LocalGrid: g,
		values:    make(map[grid.Handle]float64),
	}
}

func (r *recorder) LocalPoints() iter.Seq2[grid.Handle, r3.Vec] {
	return r.LocalGrid.LocalPoints()
}

func (r *recorder) Store(h grid.Handle, v float64) error {
	r.values[h] = v
	return nil
}
