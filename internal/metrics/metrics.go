package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Duration of outbound requests",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Number of outbound requests",
	}, []string{"component", "operation", "target", "status"})

	PollOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_outcomes_total",
		Help: "Terminal states reached by webhook poll loops",
	}, []string{"integration", "state"})

	IngestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_duration_seconds",
		Help:    "Time spent ingesting one repository",
		Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"mode", "status"})

	RepositoriesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "github_repositories_dropped_total",
		Help: "Repository records dropped because required fields were missing",
	})

	ResharesFiltered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reshares_filtered_total",
		Help: "Microblog posts removed by the reshare filter",
	})
)

// MustRegister registers all collectors
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		PollOutcomes,
		IngestDuration,
		RepositoriesDropped,
		ResharesFiltered,
	)
}

// ObserveNetworkRequest records the duration and status of an outbound request
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObservePollOutcome counts a finished poll loop
func ObservePollOutcome(integration, state string) {
	PollOutcomes.WithLabelValues(integration, state).Inc()
}

// ObserveIngest records one ingestion
func ObserveIngest(mode string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	IngestDuration.WithLabelValues(mode, status).Observe(time.Since(start).Seconds())
}
