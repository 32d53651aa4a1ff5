package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"nonomi/internal/structures"
	"time"
)

const (
	PollResultOK           = "ok"
	PollResultNetworkError = "network_error"
	PollResultDecodeError  = "decode_error"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(namespace string)
	IncCacheMisses(namespace string)
	IncPolls(result string)
	ObservePollDuration(duration time.Duration)
	IncStatusUpdates()
	IncStaleStatus()
	SetLastStatusTimestamp(ts int64)
	IncDispatchEffect(effect string)
	SetFeedSubscribers(count int)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	polls           *prometheus.CounterVec
	pollDuration    prometheus.Histogram
	statusUpdates   prometheus.Counter
	statusStale     prometheus.Counter
	lastTimestamp   prometheus.Gauge
	dispatchEffects *prometheus.CounterVec
	feedSubscribers prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(namespace string) {
	m.cacheHits.WithLabelValues(namespace).Inc()
}

func (m *MetricsProvider) IncCacheMisses(namespace string) {
	m.cacheMisses.WithLabelValues(namespace).Inc()
}

func (m *MetricsProvider) IncPolls(result string) {
	m.polls.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) ObservePollDuration(duration time.Duration) {
	m.pollDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncStatusUpdates() {
	m.statusUpdates.Inc()
}

func (m *MetricsProvider) IncStaleStatus() {
	m.statusStale.Inc()
}

func (m *MetricsProvider) SetLastStatusTimestamp(ts int64) {
	m.lastTimestamp.Set(float64(ts))
}

func (m *MetricsProvider) IncDispatchEffect(effect string) {
	m.dispatchEffects.WithLabelValues(effect).Inc()
}

func (m *MetricsProvider) SetFeedSubscribers(count int) {
	m.feedSubscribers.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nonomi_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nonomi_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nonomi_cache_hits_total",
			Help: "Cache hits by key namespace",
		}, []string{"namespace"}),

		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nonomi_cache_misses_total",
			Help: "Cache misses by key namespace",
		}, []string{"namespace"}),

		polls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nonomi_polls_total",
			Help: "Status polls by result",
		}, []string{"result"}),

		pollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nonomi_poll_duration_seconds",
			Help:    "Duration of status fetches in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		statusUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nonomi_status_updates_total",
			Help: "Status records accepted with an advanced timestamp",
		}),

		statusStale: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nonomi_status_stale_total",
			Help: "Status records discarded because the timestamp did not advance",
		}),

		lastTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "nonomi_last_status_timestamp",
			Help: "Timestamp of the last accepted status record",
		}),

		dispatchEffects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nonomi_dispatch_effects_total",
			Help: "Side effects triggered by the action dispatcher",
		}, []string{"effect"}),

		feedSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "nonomi_feed_subscribers",
			Help: "Currently connected feed subscribers",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) IncPolls(_ string)                                {}
func (n *noopMetrics) ObservePollDuration(_ time.Duration)              {}
func (n *noopMetrics) IncStatusUpdates()                                {}
func (n *noopMetrics) IncStaleStatus()                                  {}
func (n *noopMetrics) SetLastStatusTimestamp(_ int64)                   {}
func (n *noopMetrics) IncDispatchEffect(_ string)                       {}
func (n *noopMetrics) SetFeedSubscribers(_ int)                         {}
