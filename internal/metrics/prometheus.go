package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice gateway.
// All Record methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Recording metrics
	RecordingsStarted   prometheus.Counter
	RecordingsDiscarded prometheus.Counter
	RecordingsDelivered prometheus.Counter
	RecordingsFailed    *prometheus.CounterVec
	ActiveRecordings    prometheus.Gauge
	RecordingDuration   prometheus.Histogram
	WAVSize             prometheus.Histogram

	// Assistant metrics
	AssistantRequests  prometheus.Counter
	AssistantSuccesses prometheus.Counter
	AssistantFailures  prometheus.Counter
	AssistantDuration  prometheus.Histogram
	AssistantRetries   prometheus.Counter

	// Outbound call metrics
	CallsRequested *prometheus.CounterVec
	CallDuration   prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Recording metrics
		RecordingsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_recordings_started_total",
			Help: "Total number of recording sessions started",
		}),
		RecordingsDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_recordings_discarded_total",
			Help: "Total number of recordings discarded for being too short",
		}),
		RecordingsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_recordings_delivered_total",
			Help: "Total number of recordings encoded and delivered",
		}),
		RecordingsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_recordings_failed_total",
			Help: "Total number of recordings that failed after capture",
		}, []string{"stage"}),
		ActiveRecordings: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voice_active_recordings",
			Help: "Current number of active recording sessions",
		}),
		RecordingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_recording_duration_seconds",
			Help:    "Wall-clock duration of recording sessions",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),
		WAVSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_wav_size_bytes",
			Help:    "Size of encoded WAV files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14), // 1KB to ~16MB
		}),

		// Assistant metrics
		AssistantRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_assistant_requests_total",
			Help: "Total number of assistant requests sent",
		}),
		AssistantSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_assistant_successes_total",
			Help: "Total number of successful assistant requests",
		}),
		AssistantFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_assistant_failures_total",
			Help: "Total number of failed assistant requests",
		}),
		AssistantDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_assistant_duration_seconds",
			Help:    "Duration of assistant requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		AssistantRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_assistant_retries_total",
			Help: "Total number of assistant request retries",
		}),

		// Outbound call metrics
		CallsRequested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_calls_total",
			Help: "Total number of outbound call requests by result",
		}, []string{"result"}),
		CallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_call_request_duration_seconds",
			Help:    "Time spent placing outbound calls with the telephony provider",
			Buckets: prometheus.DefBuckets,
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordRecordingStarted increments the started counter and the active gauge
func (m *Metrics) RecordRecordingStarted() {
	if m == nil {
		return
	}
	m.RecordingsStarted.Inc()
	m.ActiveRecordings.Inc()
}

// RecordRecordingEnded decrements the active gauge once capture has stopped.
// Outcome metrics are recorded separately.
func (m *Metrics) RecordRecordingEnded() {
	if m == nil {
		return
	}
	m.ActiveRecordings.Dec()
}

// RecordRecordingDiscarded records a recording dropped for being too short
func (m *Metrics) RecordRecordingDiscarded(durationSeconds float64) {
	if m == nil {
		return
	}
	m.RecordingsDiscarded.Inc()
	m.RecordingDuration.Observe(durationSeconds)
}

// RecordRecordingDelivered records a recording handed to the sink
func (m *Metrics) RecordRecordingDelivered(durationSeconds float64, wavBytes int) {
	if m == nil {
		return
	}
	m.RecordingsDelivered.Inc()
	m.RecordingDuration.Observe(durationSeconds)
	m.WAVSize.Observe(float64(wavBytes))
}

// RecordRecordingFailed records a recording that failed at stage (decode, encode, deliver)
func (m *Metrics) RecordRecordingFailed(stage string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RecordingsFailed.WithLabelValues(stage).Inc()
	m.RecordingDuration.Observe(durationSeconds)
}

// RecordAssistantRequest increments assistant requests counter
func (m *Metrics) RecordAssistantRequest() {
	if m == nil {
		return
	}
	m.AssistantRequests.Inc()
}

// RecordAssistantSuccess records a successful assistant request
func (m *Metrics) RecordAssistantSuccess(durationSeconds float64) {
	if m == nil {
		return
	}
	m.AssistantSuccesses.Inc()
	m.AssistantDuration.Observe(durationSeconds)
}

// RecordAssistantFailure records a failed assistant request
func (m *Metrics) RecordAssistantFailure(durationSeconds float64) {
	if m == nil {
		return
	}
	m.AssistantFailures.Inc()
	m.AssistantDuration.Observe(durationSeconds)
}

// RecordAssistantRetry increments the retry counter
func (m *Metrics) RecordAssistantRetry() {
	if m == nil {
		return
	}
	m.AssistantRetries.Inc()
}

// RecordCall records an outbound call attempt. result is one of
// success, invalid or provider_error.
func (m *Metrics) RecordCall(result string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.CallsRequested.WithLabelValues(result).Inc()
	m.CallDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
