package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBackend(t *testing.T) {
	m := New()

	m.ObserveBackend("translate", time.Now(), nil)
	m.ObserveBackend("translate", time.Now(), errors.New("boom"))
	m.ObserveBackend("translate", time.Now(), nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("translate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("translate", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackend("upload", time.Now(), nil)
		m.ObserveRecording("file", 10)
		m.ObserveTranslation("es", nil)
		m.ObserveSpeech("es", nil)
		m.SessionOpened()
		m.SessionClosed()
		m.HandleAcquired()
		m.HandleReleased()
	})
}

func TestGauges(t *testing.T) {
	m := New()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.HandleAcquired()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LiveHandles))
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New()
	m.ObserveRecording("microphone", 8192)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `voice_recordings_total{source="microphone"} 1`)
}
