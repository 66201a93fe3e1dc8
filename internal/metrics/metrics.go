package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcome label values.
const (
	OutcomeSent        = "sent"
	OutcomeRateLimited = "rate_limited"
	OutcomeValidation  = "validation_error"
	OutcomeConfig      = "config_error"
	OutcomeProvider    = "provider_error"
	OutcomeTransport   = "transport_error"
)

var (
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_dispatch_total",
		Help: "Alert dispatch attempts by outcome",
	}, []string{"outcome"})

	ProviderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alert_provider_request_seconds",
		Help:    "Latency of SMS provider calls",
		Buckets: prometheus.DefBuckets,
	})

	DetectionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "detection_events_total",
		Help: "Detection events consumed from the push channel",
	}, []string{"result"})
)
