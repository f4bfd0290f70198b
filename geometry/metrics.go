package geometry

import (
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel   = "error_type"
	ruleLabel      = "classification_rule"
	sideLabel      = "side"
	directionLabel = "direction"
)

var (
	rejectedElements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geometry_rejected_elements",
		Help: "The number of surface elements excluded from a geometry.",
	}, []string{
		errTypeLabel,
	})

	classifiedPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geometry_classified_points",
		Help: "The number of classified points.",
	}, []string{
		ruleLabel,
		sideLabel,
	})

	ambiguousRays = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geometry_ambiguous_rays",
		Help: "The number of parity rays dropped because of an ambiguous crossing.",
	}, []string{
		directionLabel,
	})
)

func instrumentRejectedElement(err error) {
	rejectedElements.With(prometheus.Labels{
		errTypeLabel: errors.Type(err),
	}).Inc()
}

func instrumentClassification(rule ClassificationRule, side Side) {
	classifiedPoints.With(prometheus.Labels{
		ruleLabel: string(rule),
		sideLabel: side.String(),
	}).Inc()
}

func instrumentAmbiguousRay(direction int) {
	ambiguousRays.With(prometheus.Labels{
		directionLabel: strconv.Itoa(direction),
	}).Inc()
}
