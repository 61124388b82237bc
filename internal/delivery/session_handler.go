package delivery

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/voice_translator/internal/backend"
	"github.com/Vovarama1992/voice_translator/internal/capture"
	"github.com/Vovarama1992/voice_translator/internal/models"
	"github.com/Vovarama1992/voice_translator/internal/notificator"
	"github.com/Vovarama1992/voice_translator/internal/playback"
	"github.com/Vovarama1992/voice_translator/internal/recorder"
)

const (
	service       = "voice_translator"
	maxUploadSize = 50 << 20
)

type SessionHandler struct {
	sessions *recorder.Sessions
	notes    *notificator.MemoryInfra
	log      *logger.ZapLogger
}

func NewSessionHandler(sessions *recorder.Sessions, notes *notificator.MemoryInfra, log *logger.ZapLogger) *SessionHandler {
	return &SessionHandler{sessions: sessions, notes: notes, log: log}
}

type sessionResponse struct {
	State         recorder.State        `json:"state"`
	Notifications []models.Notification `json:"notifications"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	wf, err := h.sessions.Create()
	if err != nil {
		h.fail(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": wf.ID(), "languages": wf.Languages()})
}

// Get returns the snapshot and drains pending notifications.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	notes := h.notes.Drain(wf.ID())
	if notes == nil {
		notes = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: wf.State(), Notifications: notes})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Close(r.Context(), id); err != nil {
		h.fail(w, "close session", err)
		return
	}
	h.notes.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) SubmitRecording(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	rec, err := formAudio(r, "file")
	if err != nil {
		h.fail(w, "read recording", err)
		return
	}
	if err := wf.SubmitRecording(r.Context(), rec); err != nil {
		h.fail(w, "submit recording", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"recording":    rec.ID,
		"known_format": capture.AllowedExtension(rec.Filename),
	})
}

func (h *SessionHandler) StartCapture(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	if err := wf.StartRecording(r.Context()); err != nil {
		h.fail(w, "start capture", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) StopCapture(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	rec, err := wf.StopRecording(r.Context())
	if err != nil {
		h.fail(w, "stop capture", err)
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, map[string]any{"recording": nil})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"recording": rec.ID})
}

func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	res, err := wf.Upload(r.Context())
	if err != nil {
		h.fail(w, "upload", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionHandler) GenerateSpeech(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	lang, err := models.ParseLanguage(chi.URLParam(r, "lang"))
	if err != nil {
		h.fail(w, "generate speech", err)
		return
	}
	handle, err := wf.GenerateSpeech(r.Context(), lang)
	if err != nil {
		h.fail(w, "generate speech", err)
		return
	}
	writeJSON(w, http.StatusOK, handle)
}

// Audio streams a playback handle; S3-backed handles redirect to their presigned URL.
func (h *SessionHandler) Audio(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	rc, handle, err := wf.OpenAudio(r.Context(), playback.Slot(chi.URLParam(r, "slot")))
	if err != nil {
		h.fail(w, "open audio", err)
		return
	}
	defer rc.Close()

	if handle.URL != "" {
		http.Redirect(w, r, handle.URL, http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", handle.MIMEType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}

func (h *SessionHandler) DownloadTranslation(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	lang, err := models.ParseLanguage(chi.URLParam(r, "lang"))
	if err != nil {
		h.fail(w, "download translation", err)
		return
	}
	text, err := wf.TranslationText(lang)
	if err != nil {
		http.Error(w, "no translation for "+lang.Name(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+recorder.TranslationFilename(lang)+`"`)
	w.Write([]byte(text))
}

func (h *SessionHandler) CloneVoice(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	reference, err := formAudio(r, "reference_audio")
	if err != nil {
		h.fail(w, "read reference audio", err)
		return
	}
	handle, err := wf.CloneVoice(r.Context(), r.FormValue("text"), reference)
	if err != nil {
		h.fail(w, "clone voice", err)
		return
	}
	writeJSON(w, http.StatusOK, handle)
}

func (h *SessionHandler) workflow(w http.ResponseWriter, r *http.Request) (*recorder.Workflow, bool) {
	wf, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return wf, true
}

func (h *SessionHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Log(logger.LogEntry{Level: "error", Message: msg, Error: err, Service: service})
	}
	text := err.Error()
	if status == http.StatusBadGateway {
		text = backend.Reason(err)
	}
	http.Error(w, text, status)
}

func statusOf(err error) int {
	var httpErr *backend.HTTPError
	var netErr *backend.NetworkError
	switch {
	case errors.Is(err, recorder.ErrSessionNotFound), errors.Is(err, playback.ErrReleased):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptyInput), errors.Is(err, models.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, recorder.ErrInvalidTransition), errors.Is(err, capture.ErrAlreadyCapturing):
		return http.StatusConflict
	case errors.Is(err, backend.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, backend.ErrMissingPath), errors.As(err, &httpErr), errors.As(err, &netErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func formAudio(r *http.Request, field string) (*models.Recording, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, errors.Join(models.ErrEmptyInput, err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, errors.Join(models.ErrEmptyInput, err)
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "audio/") {
		mimeType = ""
	}
	return capture.FromReader(header.Filename, mimeType, file)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
