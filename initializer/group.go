package initializer

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/surfgrid/geometry"
	"github.com/aukilabs/surfgrid/grid"
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Group initializes the local grids of a process group, one rank per local
// grid. Every rank builds its own geometry replica: nothing is shared
// between ranks.
type Group struct {
	// Build creates the geometry replica of a rank.
	Build func(ctx context.Context, rank int) (*geometry.Geometry, error)

	Strategy Strategy

	// Check the octree and search grid candidates around the local points
	// before initializing.
	CrossCheckIndex bool

	// Run both strategies and fail when the fraction of points they
	// disagree on exceeds CrossCheckTolerance.
	CrossCheckStrategies bool
	CrossCheckTolerance  float64

	// Do not compare the replica fingerprints.
	SkipReplicaCheck bool
}

// RunResult is the summary of a group run.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Fingerprint uint64        `json:"fingerprint"`
	Ranks       []RankResult  `json:"ranks"`
	Duration    time.Duration `json:"duration"`
}

type RankResult struct {
	Stats       Stats   `json:"stats"`
	Fingerprint uint64  `json:"fingerprint"`
	Elements    int     `json:"elements"`
	IndexKind   string  `json:"index_kind"`
	Report      *Report `json:"cross_check,omitempty"`
}

// Run initializes the targets concurrently. The first failing rank cancels
// the others.
func (gr Group) Run(ctx context.Context, targets []grid.LocalGrid) (RunResult, error) {
	start := time.Now()
	res := RunResult{
		RunID: uuid.NewString(),
		Ranks: make([]RankResult, len(targets)),
	}

	eg, ctx := errgroup.WithContext(ctx)
	for rank, target := range targets {
		eg.Go(func() error {
			r, err := gr.runRank(ctx, rank, target)
			if err != nil {
				logs.WithTag("run_id", res.RunID).
					WithTag("rank", rank).
					Debug("rank initialization failed")
				return err
			}
			res.Ranks[rank] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return res, err
	}

	if len(res.Ranks) != 0 {
		res.Fingerprint = res.Ranks[0].Fingerprint
	}
	if !gr.SkipReplicaCheck {
		for rank, r := range res.Ranks {
			if r.Fingerprint != res.Fingerprint {
				return res, errors.New("geometry replicas differ").
					WithType(ErrTypeReplicaMismatch).
					WithTag("run_id", res.RunID).
					WithTag("rank", rank).
					WithTag("fingerprint", r.Fingerprint).
					WithTag("expected", res.Fingerprint)
			}
		}
	}

	res.Duration = time.Since(start)
	logs.WithTag("run_id", res.RunID).
		WithTag("ranks", len(targets)).
		WithTag("strategy", gr.Strategy.Name()).
		WithTag("duration", res.Duration).
		Info("grid initialized")
	return res, nil
}

func (gr Group) runRank(ctx context.Context, rank int, target grid.LocalGrid) (RankResult, error) {
	g, err := gr.Build(ctx, rank)
	if err != nil {
		return RankResult{}, err
	}

	res := RankResult{
		Fingerprint: g.Fingerprint(),
		Elements:    g.Len(),
		IndexKind:   string(g.IndexKind()),
	}

	if gr.CrossCheckIndex {
		if err := g.CrossCheckIndexes(pointQueries(g, target)); err != nil {
			return res, err
		}
	}

	if gr.CrossCheckStrategies {
		report, err := CrossCheck(ctx, g, target, strategyOptions(gr.Strategy), gr.CrossCheckTolerance)
		res.Report = &report
		res.Stats = report.Stats
		return res, err
	}

	res.Stats, err = gr.Strategy.Initialize(ctx, g, target)
	return res, err
}

// pointQueries returns the zero-size boxes of the local points and boxes
// around them sized like a fraction of the geometry bounds.
func pointQueries(g *geometry.Geometry, target grid.LocalGrid) []mesh.Box {
	radius := g.Bounds().Diagonal() / 32

	var res []mesh.Box
	for _, p := range target.LocalPoints() {
		res = append(res, mesh.BoxFromPoint(p))
		if radius > 0 {
			res = append(res, mesh.BoxAround(p, radius))
		}
	}
	return res
}

func strategyOptions(s Strategy) Options {
	switch s := s.(type) {
	case Accelerated:
		return s.Options
	case BruteForce:
		return s.Options
	case Analytic:
		return s.Options
	default:
		return Options{Mode: ModeClassification}
	}
}
