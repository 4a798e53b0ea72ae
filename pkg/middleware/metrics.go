package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arfordweb/redux-auto-api/pkg/action"
	"github.com/arfordweb/redux-auto-api/pkg/store"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "autoapi").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "autoapi",
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	actionsTotal  *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	inFlight      *prometheus.GaugeVec
}

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "actions_total",
			Help:        "Total number of dispatched actions",
			ConstLabels: config.ConstLabels,
		}, []string{"namespace", "op", "phase"}),

		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "failures_total",
			Help:        "Total number of failed operations",
			ConstLabels: config.ConstLabels,
		}, []string{"namespace", "op"}),

		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "in_flight_operations",
			Help:        "Number of operations started but not yet resolved",
			ConstLabels: config.ConstLabels,
		}, []string{"namespace", "op"}),
	}
}

// Prometheus creates middleware counting dispatched actions.
//
// Metrics collected:
//   - autoapi_actions_total: Counter of actions by namespace, op, and phase
//   - autoapi_failures_total: Counter of FAIL phases by namespace and op
//   - autoapi_in_flight_operations: Gauge of unresolved operations
//
// A partial outcome dispatches both SUCCESS and FAIL for one request; the
// second terminal carries the Partial flag and does not move the gauge, so
// each START is matched by exactly one gauge decrement.
//
// Example:
//
//	st := store.New(store.WithMiddleware(
//	    middleware.Prometheus(middleware.WithNamespace("myapp")),
//	))
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) store.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	m := initMetrics(config)

	return func(next store.Dispatch) store.Dispatch {
		return func(a action.Action) {
			op := a.Op.String()
			m.actionsTotal.WithLabelValues(a.Namespace, op, a.Phase.String()).Inc()
			switch a.Phase {
			case action.Start:
				m.inFlight.WithLabelValues(a.Namespace, op).Inc()
			case action.Success, action.Fail:
				if !a.Partial {
					m.inFlight.WithLabelValues(a.Namespace, op).Dec()
				}
				if a.Phase == action.Fail {
					m.failuresTotal.WithLabelValues(a.Namespace, op).Inc()
				}
			}
			next(a)
		}
	}
}
