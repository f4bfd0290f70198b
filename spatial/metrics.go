package spatial

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	indexKindLabel = "index_kind"
)

var (
	indexBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spatial_index_builds",
		Help: "The number of spatial index builds.",
	}, []string{
		indexKindLabel,
	})

	indexBuildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "spatial_index_build_latency",
		Help: "The time to build a spatial index.",
	}, []string{
		indexKindLabel,
	})

	indexElements = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spatial_index_elements",
		Help: "The number of elements in the last built spatial index.",
	}, []string{
		indexKindLabel,
	})

	queryCandidates = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spatial_query_candidates",
		Help:    "The number of candidates returned by a spatial query.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{
		indexKindLabel,
	})
)

func instrumentIndexBuild(kind Kind, elements int, start time.Time) {
	labels := prometheus.Labels{
		indexKindLabel: string(kind),
	}

	indexBuilds.With(labels).Inc()
	indexBuildLatency.With(labels).Observe(time.Since(start).Seconds())
	indexElements.With(labels).Set(float64(elements))
}

func instrumentQuery(kind Kind, candidates int) {
	queryCandidates.With(prometheus.Labels{
		indexKindLabel: string(kind),
	}).Observe(float64(candidates))
}
