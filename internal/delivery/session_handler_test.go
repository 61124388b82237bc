package delivery

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/backend"
	"github.com/Vovarama1992/voice_translator/internal/metrics"
	"github.com/Vovarama1992/voice_translator/internal/models"
	"github.com/Vovarama1992/voice_translator/internal/notificator"
	"github.com/Vovarama1992/voice_translator/internal/playback"
	"github.com/Vovarama1992/voice_translator/internal/recorder"
)

type stubBackend struct {
	translateErr map[models.Language]error
}

func (stubBackend) Upload(context.Context, *models.Recording) (models.UploadResult, error) {
	return models.UploadResult{}, backend.ErrMissingPath
}

func (stubBackend) Transcribe(_ context.Context, rec *models.Recording) (models.TranscribeResult, error) {
	return models.TranscribeResult{Text: "hello"}, nil
}

func (b stubBackend) Translate(_ context.Context, text string, lang models.Language) (string, error) {
	if err := b.translateErr[lang]; err != nil {
		return "", err
	}
	return string(lang) + ": " + text, nil
}

func (stubBackend) Synthesize(_ context.Context, _ string, lang models.Language) (models.Audio, error) {
	return models.Audio{Data: []byte("speech-" + string(lang)), MIMEType: "audio/wav"}, nil
}

func (stubBackend) CloneVoice(_ context.Context, text string, _ *models.Recording) (models.Audio, error) {
	return models.Audio{Data: []byte("clone-" + text), MIMEType: "audio/wav"}, nil
}

type testServer struct {
	router   chi.Router
	sessions *recorder.Sessions
}

func newTestServer(t *testing.T, opts RouteOptions, be backend.Client) *testServer {
	t.Helper()
	store, err := playback.NewFileStore(t.TempDir())
	require.NoError(t, err)
	notes := notificator.NewMemoryInfra(0)
	m := metrics.New()

	sessions := recorder.NewSessions(func(id string) (*recorder.Workflow, error) {
		return recorder.NewWorkflow(id, recorder.Deps{
			Backend:  be,
			Player:   playback.NewPlayer(store, id, m, nil),
			Notifier: notes,
			Metrics:  m,
		}), nil
	}, m)
	t.Cleanup(func() { sessions.CloseAll(context.Background()) })

	if opts.Metrics == nil {
		opts.Metrics = m.Handler()
	}
	h := NewSessionHandler(sessions, notes, logger.NewZapLogger(zap.NewNop().Sugar()))
	return &testServer{router: NewRouter(h, opts), sessions: sessions}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) create(t *testing.T) string {
	t.Helper()
	rr := s.do(t, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func multipartRequest(t *testing.T, url string, fields map[string]string, fileField, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(fileField, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (s *testServer) submit(t *testing.T, id string) {
	t.Helper()
	rr := s.do(t, multipartRequest(t, "/sessions/"+id+"/recording", nil, "file", "talk.wav", []byte("RIFFdata")))
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	wf, err := s.sessions.Get(id)
	require.NoError(t, err)
	wf.Wait()
}

func TestRecordingFlow(t *testing.T) {
	s := newTestServer(t, RouteOptions{}, stubBackend{translateErr: map[models.Language]error{
		models.Mandarin: &backend.HTTPError{Op: backend.OpTranslate, StatusCode: 500, Body: "boom"},
	}})
	id := s.create(t)
	s.submit(t, id)

	rr := s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, recorder.PhaseIdle, resp.State.Phase)
	assert.Equal(t, "hello", resp.State.Transcription)
	assert.Equal(t, map[models.Language]string{
		models.Spanish: "es: hello",
		models.French:  "fr: hello",
	}, resp.State.Translations)

	var errs []string
	for _, n := range resp.Notifications {
		if n.Level == models.LevelError {
			errs = append(errs, n.Message)
		}
	}
	assert.Equal(t, []string{"Failed to translate to Mandarin: boom"}, errs)

	// второй GET: уведомления уже вычитаны
	rr = s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Notifications)
}

func TestDownloadTranslation(t *testing.T) {
	s := newTestServer(t, RouteOptions{}, stubBackend{})
	id := s.create(t)
	s.submit(t, id)

	rr := s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/translations/fr.txt", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "fr: hello", rr.Body.String())
	assert.Equal(t, `attachment; filename="translation_French.txt"`, rr.Header().Get("Content-Disposition"))

	rr = s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/translations/de.txt", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSpeechAndAudio(t *testing.T) {
	s := newTestServer(t, RouteOptions{}, stubBackend{})
	id := s.create(t)

	rr := s.do(t, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/speech/es", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "no translation yet")

	s.submit(t, id)

	rr = s.do(t, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/speech/es", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var h playback.Handle
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &h))
	assert.Equal(t, "audio/wav", h.MIMEType)

	rr = s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/audio/es", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "speech-es", rr.Body.String())

	rr = s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/audio/fr", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/audio/recording", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "RIFFdata", rr.Body.String())
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t, RouteOptions{}, stubBackend{})
	id := s.create(t)

	rr := s.do(t, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/upload", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	s.submit(t, id)
	rr = s.do(t, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/upload", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "upload response has no path")
}

func TestCloneVoice(t *testing.T) {
	s := newTestServer(t, RouteOptions{}, stubBackend{})
	id := s.create(t)

	req := multipartRequest(t, "/sessions/"+id+"/clone-voice",
		map[string]string{"text": "say it"}, "reference_audio", "ref.wav", []byte("ref"))
	rr := s.do(t, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/audio/cloned", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "clone-say it", rr.Body.String())
}

func TestCaptureWithoutDevice(t *testing.T) {
	s := newTestServer(t, RouteOptions{}, stubBackend{})
	id := s.create(t)

	rr := s.do(t, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/capture/start", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/capture/stop", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t, RouteOptions{}, stubBackend{})
	id := s.create(t)

	rr := s.do(t, httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, RouteOptions{APIToken: "secret"}, stubBackend{})

	rr := s.do(t, httptest.NewRequest(http.MethodPost, "/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, s.do(t, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusCreated, s.do(t, req).Code)

	// ping и метрики без токена
	assert.Equal(t, http.StatusOK, s.do(t, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, RouteOptions{RateLimitPerMinute: 2}, stubBackend{})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusCreated, s.do(t, httptest.NewRequest(http.MethodPost, "/sessions", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, httptest.NewRequest(http.MethodPost, "/sessions", nil)).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, RouteOptions{}, stubBackend{})
	s.submit(t, s.create(t))

	rr := s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "voice_recordings_total")
}
