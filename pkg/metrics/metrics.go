package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Gateway related metrics
	GatewayOperations    *prometheus.CounterVec
	GatewayFallbacks     prometheus.Counter
	GatewayRemoteErrors  *prometheus.CounterVec
	GatewayMode          prometheus.Gauge
	GatewayOpLatency     *prometheus.HistogramVec

	// SOS dispatch metrics
	SOSDispatches prometheus.Counter
	SOSCancels    prometheus.Counter

	// Locator metrics
	LocatorQueries   *prometheus.CounterVec
	LocatorCacheHits prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		GatewayOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gateway_operations_total",
			Help:      "Total gateway operations by name and serving mode",
		}, []string{"operation", "mode"}),
		GatewayFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gateway_fallbacks_total",
			Help:      "Number of times the gateway downgraded to fallback mode",
		}),
		GatewayRemoteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gateway_remote_errors_total",
			Help:      "Remote store errors by operation",
		}, []string{"operation"}),
		GatewayMode: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gateway_mode",
			Help:      "Current gateway mode (0 remote, 1 fallback)",
		}),
		GatewayOpLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gateway_operation_duration_seconds",
			Help:      "Time spent in gateway operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),
		SOSDispatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sos_dispatches_total",
			Help:      "SOS flows that reached the accepted phase",
		}),
		SOSCancels: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sos_cancels_total",
			Help:      "SOS flows cancelled by the user",
		}),
		LocatorQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "locator_queries_total",
			Help:      "Nearby facility queries by category",
		}, []string{"category"}),
		LocatorCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "locator_cache_hits_total",
			Help:      "Locator queries served from the geocoder cache",
		}),
	}
}
