package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests        *prometheus.CounterVec
	CounterSessionEvents   *prometheus.CounterVec
	CounterRankRetries     prometheus.Counter
	CounterImplicitLogouts prometheus.Counter
	CounterRateLimited     prometheus.Counter

	// gauges
	GaugeInFlightRequests prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("gymclient", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("gymclient", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_requests",
		Help:      "The total number of requests sent to the gym API",
	}, []string{"method", "status"})
	counterSessionEvents := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_events",
		Help:      "Session lifecycle events (login, register, oauth, logout, ...)",
	}, []string{"event"})
	counterRankRetries := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rank_retries",
		Help:      "The total number of rank lookups retried after a 404",
	})
	counterImplicitLogouts := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "implicit_logouts",
		Help:      "Sessions dropped because the stored token was rejected or expired",
	})
	counterRateLimited := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of requests refused by the local rate limiter",
	})

	gaugeInFlight := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "in_flight_requests",
		Help:      "Current number of requests waiting for the gym API",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_request_duration_seconds",
		Help:      "Histogram of gym API response times in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterRequests:          counterRequests,
		CounterSessionEvents:     counterSessionEvents,
		CounterRankRetries:       counterRankRetries,
		CounterImplicitLogouts:   counterImplicitLogouts,
		CounterRateLimited:       counterRateLimited,
		GaugeInFlightRequests:    gaugeInFlight,
		HistogramRequestDuration: histogramRequestDuration,
	}
}
