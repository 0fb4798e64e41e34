package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records dashboard metrics via Prometheus.
type Recorder struct {
	authAttempts  *prometheus.CounterVec
	proxyRequests *prometheus.CounterVec
	proxyLatency  prometheus.Histogram
	pollResults   *prometheus.CounterVec
	snapshotSize  prometheus.Gauge
	streamClients prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		authAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigboard_auth_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		),
		proxyRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigboard_proxy_requests_total",
				Help: "Total number of proxied backend requests",
			},
			[]string{"outcome"},
		),
		proxyLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sigboard_proxy_duration_seconds",
				Help:    "Duration of proxied backend requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		pollResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigboard_poll_results_total",
				Help: "Total number of snapshot poll attempts",
			},
			[]string{"result"},
		),
		snapshotSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sigboard_snapshot_symbols",
				Help: "Number of symbols in the current market snapshot",
			},
		),
		streamClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sigboard_stream_clients",
				Help: "Number of connected WebSocket clients",
			},
		),
	}
}

// RecordAuthAttempt records a login attempt ("success" or "rejected").
func (r *Recorder) RecordAuthAttempt(result string) {
	r.authAttempts.WithLabelValues(result).Inc()
}

// RecordProxyRequest records a proxied request ("relayed" or "failed").
func (r *Recorder) RecordProxyRequest(outcome string) {
	r.proxyRequests.WithLabelValues(outcome).Inc()
}

// RecordProxyLatency records a proxied request duration in seconds.
func (r *Recorder) RecordProxyLatency(seconds float64) {
	r.proxyLatency.Observe(seconds)
}

// RecordPoll records a snapshot poll attempt ("ok" or "error").
func (r *Recorder) RecordPoll(result string) {
	r.pollResults.WithLabelValues(result).Inc()
}

// RecordSnapshotSize records the symbol count of the latest snapshot.
func (r *Recorder) RecordSnapshotSize(n int) {
	r.snapshotSize.Set(float64(n))
}

// RecordStreamClients records the connected WebSocket client count.
func (r *Recorder) RecordStreamClients(n int) {
	r.streamClients.Set(float64(n))
}
