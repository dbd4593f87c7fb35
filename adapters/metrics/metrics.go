// Package metrics provides Prometheus metrics collection for IdeaGate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for IdeaGate.
type Collector struct {
	// Generation metrics
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	GenerationErrors   prometheus.Counter

	// Entitlement metrics
	QuotaDenied  prometheus.Counter
	QuotaResets  prometheus.Counter
	UsersCreated prometheus.Counter

	// Payment metrics
	OffersCreated     *prometheus.CounterVec
	PaymentsConfirmed *prometheus.CounterVec
	DaysCredited      prometheus.Counter

	// Storage metrics
	StorageErrors prometheus.Counter

	// Transport metrics
	UpdatesTotal *prometheus.CounterVec
}

// New creates a collector registered on the default registry.
func New() *Collector {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a collector registered on the given registerer.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate
// registration panics.
func NewWith(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "generations_total",
				Help:      "Generation requests by outcome",
			},
			[]string{"outcome"}, // allowed_free, allowed_paid, denied, failed
		),
		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "ideagate",
				Name:      "generation_duration_seconds",
				Help:      "Upstream generation call duration in seconds",
				Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60},
			},
		),
		GenerationErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "generation_errors_total",
				Help:      "Upstream generation failures",
			},
		),
		QuotaDenied: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "quota_denied_total",
				Help:      "Requests denied for exhausted free quota",
			},
		),
		QuotaResets: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "quota_resets_total",
				Help:      "Lazy daily quota resets applied",
			},
		),
		UsersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "users_created_total",
				Help:      "Entitlement records created",
			},
		),
		OffersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "offers_created_total",
				Help:      "Purchase offers created by currency",
			},
			[]string{"currency"},
		),
		PaymentsConfirmed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "payments_confirmed_total",
				Help:      "Confirmed payments by currency",
			},
			[]string{"currency"},
		),
		DaysCredited: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "days_credited_total",
				Help:      "Subscription days credited",
			},
		),
		StorageErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "storage_errors_total",
				Help:      "Persistence failures surfaced to users",
			},
		),
		UpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ideagate",
				Name:      "updates_total",
				Help:      "Inbound transport updates by kind",
			},
			[]string{"kind"}, // command, callback, precheckout, payment, text
		),
	}
}
