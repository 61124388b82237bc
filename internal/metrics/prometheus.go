package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for backend traffic and workflow activity.
type Metrics struct {
	registry *prometheus.Registry

	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec

	RecordingsCaptured *prometheus.CounterVec
	RecordingSize      prometheus.Histogram

	TranslationsCompleted *prometheus.CounterVec
	SpeechGenerated       *prometheus.CounterVec
	ActiveSessions        prometheus.Gauge
	LiveHandles           prometheus.Gauge
}

// New registers every collector on a private registry so tests can build
// as many instances as they want.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BackendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_backend_requests_total",
			Help: "Backend requests by operation and outcome",
		}, []string{"op", "outcome"}),
		BackendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_backend_request_duration_seconds",
			Help:    "Backend request latency",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"op"}),

		RecordingsCaptured: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_recordings_total",
			Help: "Recordings submitted to the workflow by source",
		}, []string{"source"}),
		RecordingSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_recording_size_bytes",
			Help:    "Size of submitted recordings",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 12), // 4KB .. ~8MB
		}),

		TranslationsCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_translations_total",
			Help: "Translation attempts by language and outcome",
		}, []string{"language", "outcome"}),
		SpeechGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_speech_total",
			Help: "Speech synthesis attempts by language and outcome",
		}, []string{"language", "outcome"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "voice_active_sessions",
			Help: "Sessions currently held in memory",
		}),
		LiveHandles: f.NewGauge(prometheus.GaugeOpts{
			Name: "voice_playback_handles",
			Help: "Playback handles not yet released",
		}),
	}
}

// ObserveBackend records one backend call. A nil receiver is a no-op.
func (m *Metrics) ObserveBackend(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(op, outcome(err)).Inc()
	m.BackendDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRecording(source string, size int) {
	if m == nil {
		return
	}
	m.RecordingsCaptured.WithLabelValues(source).Inc()
	m.RecordingSize.Observe(float64(size))
}

func (m *Metrics) ObserveTranslation(lang string, err error) {
	if m == nil {
		return
	}
	m.TranslationsCompleted.WithLabelValues(lang, outcome(err)).Inc()
}

func (m *Metrics) ObserveSpeech(lang string, err error) {
	if m == nil {
		return
	}
	m.SpeechGenerated.WithLabelValues(lang, outcome(err)).Inc()
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.ActiveSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.ActiveSessions.Dec()
	}
}

func (m *Metrics) HandleAcquired() {
	if m != nil {
		m.LiveHandles.Inc()
	}
}

func (m *Metrics) HandleReleased() {
	if m != nil {
		m.LiveHandles.Dec()
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the private registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
