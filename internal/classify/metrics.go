package classify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RejectionsTotal counts pages or variants dropped by the filter chain,
	// labeled by the stage that fired.
	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caviarwatch_rejections_total",
		Help: "Pages or variants rejected by the classifier, by reason.",
	}, []string{"reason"})
	// ObservationsAccepted counts observations that survived every stage.
	ObservationsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caviarwatch_observations_accepted_total",
		Help: "Observations emitted by the classifier.",
	})
)
