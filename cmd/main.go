package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/surfgrid/featureflag"
	"github.com/aukilabs/surfgrid/geometry"
	"github.com/aukilabs/surfgrid/grid"
	surfhttp "github.com/aukilabs/surfgrid/http"
	"github.com/aukilabs/surfgrid/initializer"
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/aukilabs/surfgrid/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The surfgrid version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "surfgrid_info",
		Help:        "Surfgrid information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	AdminAddr    string        `cli:""        env:"SURFGRID_ADMIN_ADDR"     help:"Admin listening address. Empty disables the admin server."`
	LogLevel     string        `cli:""        env:"SURFGRID_LOG_LEVEL"      help:"Log level (debug|info|warning|error)."`
	LogIndent    bool          `cli:""        env:"SURFGRID_LOG_INDENT"     help:"Indent logs."`
	Surface      surfaceConfig `cli:""        env:"-"                       help:"Surface configuration."`
	Grid         gridConfig    `cli:""        env:"-"                       help:"Grid configuration."`
	GeometryFile string        `cli:""        env:"SURFGRID_GEOMETRY_FILE"  help:"TOML file with the geometry options."`
	Output       string        `cli:""        env:"SURFGRID_OUTPUT"         help:"File where the JSON run summary is written. Empty writes to stdout."`
	FeatureFlags []string      `cli:",hidden" env:"SURFGRID_FEATURE_FLAGS"  help:"Comma separated feature flags"`
	Version      bool          `cli:""        env:"-"                       help:"Show version."`
	Help         bool          `cli:""        env:"-"                       help:"Show help."`
}

type surfaceConfig struct {
	Source       string  `cli:""        env:"SURFGRID_SURFACE_SOURCE"       help:"Surface source (sphere|sdf-sphere|sdf-box|stl)."`
	Radius       float64 `cli:""        env:"SURFGRID_SURFACE_RADIUS"       help:"Sphere radius, half width of the box."`
	Subdivisions int     `cli:",hidden" env:"SURFGRID_SURFACE_SUBDIVISIONS" help:"Sphere subdivisions."`
	Cells        int     `cli:",hidden" env:"SURFGRID_SURFACE_CELLS"        help:"Marching cubes cells on the longest axis of sdf surfaces."`
	Round        float64 `cli:",hidden" env:"SURFGRID_SURFACE_ROUND"        help:"Edge rounding of the sdf box."`
	File         string  `cli:""        env:"SURFGRID_SURFACE_FILE"         help:"STL file of the stl source."`
}

type gridConfig struct {
	Size                int     `cli:""        env:"SURFGRID_GRID_SIZE"                  help:"Points per axis."`
	Padding             float64 `cli:",hidden" env:"SURFGRID_GRID_PADDING"               help:"Grid margin around the surface, relative to its bounding box diagonal."`
	Ranks               int     `cli:""        env:"SURFGRID_GRID_RANKS"                 help:"Number of ranks the grid is split into."`
	Mode                string  `cli:""        env:"SURFGRID_GRID_MODE"                  help:"Stored values (classification|distance)."`
	NarrowBand          float64 `cli:""        env:"SURFGRID_GRID_NARROW_BAND"           help:"Largest stored distance. Zero does not clamp."`
	Strategy            string  `cli:""        env:"SURFGRID_GRID_STRATEGY"              help:"Initialization strategy (accelerated|brute_force|analytic)."`
	CrossCheckTolerance float64 `cli:",hidden" env:"SURFGRID_GRID_CROSS_CHECK_TOLERANCE" help:"Largest fraction of points the strategies may disagree on."`
}

// summary is the output of a run.
type summary struct {
	Version  string                `json:"version"`
	Source   string                `json:"source"`
	Grid     grid.Spec             `json:"grid"`
	Mode     initializer.Mode      `json:"mode"`
	Inside   int                   `json:"inside"`
	Outside  int                   `json:"outside"`
	Run      initializer.RunResult `json:"run"`
	Geometry geometryInfo          `json:"geometry"`
}

type geometryInfo struct {
	Elements  int             `json:"elements"`
	IndexKind string          `json:"index_kind"`
	Bounds    *mesh.Box       `json:"bounds,omitempty"`
	Config    geometry.Config `json:"config"`
}

func main() {
	conf := config{
		AdminAddr: ":18190",
		LogLevel:  logs.InfoLevel.String(),
		Surface: surfaceConfig{
			Source:       "sphere",
			Radius:       1,
			Subdivisions: 4,
			Cells:        64,
		},
		Grid: gridConfig{
			Size:                64,
			Padding:             0.1,
			Ranks:               4,
			Mode:                string(initializer.ModeClassification),
			Strategy:            "accelerated",
			CrossCheckTolerance: 0,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Initializes a structured grid from a triangulated surface.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	flags := featureflag.New(conf.FeatureFlags)
	if err := validateConfig(conf, flags); err != nil {
		logs.Fatal(err)
	}

	geometryConf := geometry.DefaultConfig()
	if conf.GeometryFile != "" {
		if err := geometry.LoadConfigFile(conf.GeometryFile, &geometryConf); err != nil {
			logs.Fatal(err)
		}
	}

	surface, err := newProvider(conf.Surface)
	if err != nil {
		logs.Fatal(err)
	}

	var ready atomic.Bool
	var result atomic.Pointer[summary]

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", surfhttp.HandleHealthCheck)
	admin.HandleFunc("/ready", surfhttp.HandleReadyCheck(ready.Load))
	admin.HandleFunc("/version", surfhttp.HandleVersion(version))
	admin.HandleFunc("/summary", surfhttp.HandleJSON(func() any {
		if s := result.Load(); s != nil {
			return s
		}
		return nil
	}))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))

	adminCtx, stopAdmin := context.WithCancel(ctx)
	defer stopAdmin()

	var wg sync.WaitGroup
	if conf.AdminAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			surfhttp.ListenAndServe(adminCtx, &http.Server{
				Addr:    conf.AdminAddr,
				Handler: metrics.HTTPHandler(&admin, surfhttp.MetricsPathFormatter),
			})
		}()
	}

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("source", conf.Surface.Source).
		WithTag("grid_size", conf.Grid.Size).
		WithTag("ranks", conf.Grid.Ranks).
		Info("starting surfgrid")

	s, err := run(ctx, conf, flags, geometryConf, surface)
	if err != nil {
		logs.Fatal(err)
	}
	result.Store(&s)
	ready.Store(true)

	if err := writeSummary(conf.Output, s); err != nil {
		logs.Fatal(err)
	}

	if !flags.IsSet(featureflag.FlagKeepServing) {
		stopAdmin()
	}
	wg.Wait()
}

func run(ctx context.Context, conf config, flags featureflag.FeatureFlag, geometryConf geometry.Config, surface geometry.DataProvider) (summary, error) {
	declared, err := surface.GlobalBoundingBox()
	if err != nil {
		return summary{}, err
	}

	box := declared.Pad(declared.Diagonal() * conf.Grid.Padding)
	spec := grid.NewSpecFromBox(box, [3]int{conf.Grid.Size, conf.Grid.Size, conf.Grid.Size})
	subdomains, err := grid.Decompose(spec, conf.Grid.Ranks)
	if err != nil {
		return summary{}, err
	}

	targets := make([]grid.LocalGrid, len(subdomains))
	for i, s := range subdomains {
		targets[i] = s
	}

	opts := initializer.Options{
		Mode:       initializer.Mode(conf.Grid.Mode),
		NarrowBand: conf.Grid.NarrowBand,
	}

	strategy, err := newStrategy(conf.Grid.Strategy, opts, surface)
	if err != nil {
		return summary{}, err
	}

	// the first replica is kept for the summary.
	var first atomic.Pointer[geometry.Geometry]
	group := initializer.Group{
		Build: func(ctx context.Context, rank int) (*geometry.Geometry, error) {
			g, err := geometry.FromProvider(surface, geometryConf)
			if err == nil && rank == 0 {
				first.Store(g)
			}
			return g, err
		},
		Strategy:             strategy,
		CrossCheckIndex:      flags.IsSet(featureflag.FlagCrossCheckIndex),
		CrossCheckStrategies: flags.IsSet(featureflag.FlagCrossCheckStrategies),
		CrossCheckTolerance:  conf.Grid.CrossCheckTolerance,
		SkipReplicaCheck:     flags.IsSet(featureflag.FlagSkipReplicaCheck),
	}

	res, err := group.Run(ctx, targets)
	if err != nil {
		return summary{}, err
	}

	s := summary{
		Version: version,
		Source:  conf.Surface.Source,
		Grid:    spec,
		Mode:    opts.Mode,
		Run:     res,
	}
	for _, r := range res.Ranks {
		s.Inside += r.Stats.Inside
		s.Outside += r.Stats.Outside
	}
	if g := first.Load(); g != nil {
		s.Geometry = newGeometryInfo(g)
	}
	return s, nil
}

func newGeometryInfo(g *geometry.Geometry) geometryInfo {
	info := geometryInfo{
		Elements:  g.Len(),
		IndexKind: string(g.IndexKind()),
		Config:    g.Config(),
	}
	// the bounds of an empty geometry are infinite and not encodable.
	if b := g.Bounds(); !b.IsEmpty() {
		info.Bounds = &b
	}
	return info
}

func newStrategy(name string, opts initializer.Options, surface geometry.DataProvider) (initializer.Strategy, error) {
	switch name {
	case (initializer.BruteForce{}).Name():
		return initializer.BruteForce{Options: opts}, nil

	case (initializer.Analytic{}).Name():
		s, ok := surface.(initializer.Surface)
		if !ok {
			return nil, errors.New("surface has no analytic distance").
				WithType(geometry.ErrTypeConfig).
				WithTag("strategy", name)
		}
		return initializer.Analytic{Options: opts, Surface: s}, nil

	default:
		return initializer.Accelerated{Options: opts}, nil
	}
}

func newProvider(conf surfaceConfig) (geometry.DataProvider, error) {
	switch conf.Source {
	case "sphere":
		return provider.Sphere{
			Radius:       conf.Radius,
			Subdivisions: conf.Subdivisions,
		}, nil

	case "sdf-sphere":
		return provider.NewSDFSphere(conf.Radius, conf.Cells)

	case "sdf-box":
		r := conf.Radius
		box := mesh.NewBox(mesh.NewVec(-r, -r, -r), mesh.NewVec(r, r, r))
		return provider.NewSDFBox(box, conf.Round, conf.Cells)

	case "stl":
		return provider.NewSTLFile(conf.File), nil

	default:
		return nil, errors.New("unknown surface source").
			WithType(geometry.ErrTypeConfig).
			WithTag("source", conf.Source)
	}
}

func validateConfig(conf config, flags featureflag.FeatureFlag) error {
	if err := flags.Validate(); err != nil {
		return err
	}

	if conf.Surface.Source == "stl" && conf.Surface.File == "" {
		return errors.New("stl source requires a surface file").
			WithType(geometry.ErrTypeConfig)
	}

	if conf.Grid.Size <= 0 {
		return errors.New("grid size must be positive").
			WithType(geometry.ErrTypeConfig).
			WithTag("grid_size", conf.Grid.Size)
	}

	if conf.Grid.Padding < 0 {
		return errors.New("grid padding must not be negative").
			WithType(geometry.ErrTypeConfig).
			WithTag("grid_padding", conf.Grid.Padding)
	}

	if conf.Grid.CrossCheckTolerance < 0 || conf.Grid.CrossCheckTolerance > 1 {
		return errors.New("cross check tolerance must be in [0, 1]").
			WithType(geometry.ErrTypeConfig).
			WithTag("cross_check_tolerance", conf.Grid.CrossCheckTolerance)
	}

	strategies := []string{
		(initializer.Accelerated{}).Name(),
		(initializer.BruteForce{}).Name(),
		(initializer.Analytic{}).Name(),
	}
	if !slices.Contains(strategies, conf.Grid.Strategy) {
		return errors.New("unknown initialization strategy").
			WithType(geometry.ErrTypeConfig).
			WithTag("strategy", conf.Grid.Strategy)
	}

	if conf.Grid.Strategy == (initializer.Analytic{}).Name() && conf.Surface.Source == "stl" {
		return errors.New("stl surfaces have no analytic distance").
			WithType(geometry.ErrTypeConfig).
			WithTag("strategy", conf.Grid.Strategy)
	}

	opts := initializer.Options{
		Mode:       initializer.Mode(conf.Grid.Mode),
		NarrowBand: conf.Grid.NarrowBand,
	}
	return opts.Validate()
}

func writeSummary(path string, s summary) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.New("encoding summary failed").Wrap(err)
	}
	b = append(b, '\n')

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.New("creating summary file failed").
				WithTag("path", path).
				Wrap(err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(b); err != nil {
		return errors.New("writing summary failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}
