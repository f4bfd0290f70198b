package initializer

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	strategyLabel = "strategy"
	rankLabel     = "rank"
)

var (
	initializedPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "initializer_points",
		Help: "The number of initialized grid points.",
	}, []string{
		strategyLabel,
		rankLabel,
	})

	initializationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "initializer_latency",
		Help: "The time to initialize a local grid.",
	}, []string{
		strategyLabel,
	})

	strategyMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "initializer_mismatches",
		Help: "The number of points the brute force and accelerated strategies disagree on.",
	})
)

func instrumentInitialization(s Stats) {
	initializedPoints.With(prometheus.Labels{
		strategyLabel: s.Strategy,
		rankLabel:     strconv.Itoa(s.Rank),
	}).Add(float64(s.Points))

	initializationLatency.With(prometheus.Labels{
		strategyLabel: s.Strategy,
	}).Observe(s.Duration.Seconds())
}

func instrumentMismatches(n int) {
	strategyMismatches.Add(float64(n))
}
