package geometry

import (
	"github.com/BurntSushi/toml"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/spatial"
)

// IndexKind selects the spatial index built by a geometry.
type IndexKind string

const (
	IndexOctree IndexKind = "octree"
	IndexBucket IndexKind = "bucket"

	// IndexAuto builds an octree and falls back to a search grid when most
	// elements end up in leaves that could not be split any further.
	IndexAuto IndexKind = "auto"
)

// ClassificationRule selects how a point is resolved as inside or outside
// the surface.
type ClassificationRule string

const (
	// RuleParity counts the crossings of a ray cast from the point.
	RuleParity ClassificationRule = "parity"

	// RuleNearestSign uses the side of the nearest element.
	RuleNearestSign ClassificationRule = "nearestSign"
)

// Config is the configuration of a geometry. It is handed to the geometry
// constructor and is never read from process-wide state.
type Config struct {
	IndexKind          IndexKind          `toml:"index_kind"`
	OctreeCapacity     int                `toml:"octree_capacity"`
	OctreeMaxDepth     int                `toml:"octree_max_depth"`
	BucketResolution   int                `toml:"bucket_resolution"`
	ClassificationRule ClassificationRule `toml:"classification_rule"`

	// Widen point queries that found no candidate. Nearest sign
	// classification is exact only with widening on.
	QueryWidening bool `toml:"query_widening"`

	// Initial half width of a widened query. Zero picks a fraction of the
	// bounds diagonal.
	WideningRadius float64 `toml:"widening_radius"`

	// Largest half width of a widened query. Zero picks the distance to the
	// bounds plus the bounds diagonal, which always reaches every element.
	WideningLimit float64 `toml:"widening_limit"`

	// Side given to points for which no candidate element was found.
	DefaultInside bool `toml:"default_inside"`

	// Tolerance of the ambiguous ray crossings and of equal distances.
	Tolerance float64 `toml:"tolerance"`
}

func DefaultConfig() Config {
	return Config{
		IndexKind:          IndexOctree,
		OctreeCapacity:     spatial.DefaultOctreeCapacity,
		OctreeMaxDepth:     spatial.DefaultOctreeMaxDepth,
		BucketResolution:   spatial.DefaultBucketResolution,
		ClassificationRule: RuleParity,
		QueryWidening:      true,
		Tolerance:          1e-9,
	}
}

// Validate reports the first invalid option as a config error.
func (c Config) Validate() error {
	switch c.IndexKind {
	case IndexOctree, IndexBucket, IndexAuto:
	default:
		return configError("unknown index kind", "index_kind", c.IndexKind)
	}

	switch c.ClassificationRule {
	case RuleParity, RuleNearestSign:
	default:
		return configError("unknown classification rule", "classification_rule", c.ClassificationRule)
	}

	if c.OctreeCapacity <= 0 {
		return configError("octree capacity must be positive", "octree_capacity", c.OctreeCapacity)
	}
	if c.OctreeMaxDepth < 0 {
		return configError("octree max depth must not be negative", "octree_max_depth", c.OctreeMaxDepth)
	}
	if c.BucketResolution <= 0 {
		return configError("bucket resolution must be positive", "bucket_resolution", c.BucketResolution)
	}
	if c.WideningRadius < 0 {
		return configError("widening radius must not be negative", "widening_radius", c.WideningRadius)
	}
	if c.WideningLimit < 0 {
		return configError("widening limit must not be negative", "widening_limit", c.WideningLimit)
	}
	if c.Tolerance < 0 || c.Tolerance >= 0.1 {
		return configError("tolerance must be in [0, 0.1)", "tolerance", c.Tolerance)
	}
	return nil
}

func configError(msg string, key string, value any) error {
	return errors.New(msg).
		WithType(ErrTypeConfig).
		WithTag(key, value)
}

// LoadConfigFile decodes the TOML file at path over c. Options missing from
// the file keep their value.
func LoadConfigFile(path string, c *Config) error {
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.New("decoding geometry config failed").
			WithType(ErrTypeConfig).
			WithTag("path", path).
			Wrap(err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) != 0 {
		return errors.New("unknown geometry config option").
			WithType(ErrTypeConfig).
			WithTag("path", path).
			WithTag("option", undecoded[0].String())
	}
	return c.Validate()
}
