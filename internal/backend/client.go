package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/metrics"
	"github.com/Vovarama1992/voice_translator/internal/models"
)

// HTTPClient talks to the speech backend over its HTTP surface.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient: timeout 0 значит без таймаута
func NewHTTPClient(baseURL string, timeout time.Duration, m *metrics.Metrics, log *zap.SugaredLogger) *HTTPClient {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: m,
		log:     log,
	}
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) Upload(ctx context.Context, rec *models.Recording) (models.UploadResult, error) {
	if rec == nil || len(rec.Data) == 0 {
		return models.UploadResult{}, models.ErrEmptyInput
	}

	body, contentType, err := multipartBody(func(w *multipart.Writer) error {
		return writeFile(w, "file", rec)
	})
	if err != nil {
		return models.UploadResult{}, err
	}

	var out models.UploadResult
	if err := c.doJSON(ctx, OpUpload, "/upload", contentType, body, &out); err != nil {
		return models.UploadResult{}, err
	}
	if strings.TrimSpace(out.Path) == "" {
		return models.UploadResult{}, ErrMissingPath
	}
	return out, nil
}

func (c *HTTPClient) Transcribe(ctx context.Context, rec *models.Recording) (models.TranscribeResult, error) {
	if rec == nil || len(rec.Data) == 0 {
		return models.TranscribeResult{}, models.ErrEmptyInput
	}

	body, contentType, err := multipartBody(func(w *multipart.Writer) error {
		return writeFile(w, "file", rec)
	})
	if err != nil {
		return models.TranscribeResult{}, err
	}

	var out models.TranscribeResult
	if err := c.doJSON(ctx, OpTranscribe, "/transcribe", contentType, body, &out); err != nil {
		return models.TranscribeResult{}, err
	}
	return out, nil
}

type textRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (c *HTTPClient) Translate(ctx context.Context, text string, lang models.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", models.ErrEmptyInput
	}
	if !lang.Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedLanguage, lang)
	}

	payload, err := json.Marshal(textRequest{Text: text, Language: string(lang)})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}

	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := c.doJSON(ctx, OpTranslate, "/translate", "application/json", payload, &out); err != nil {
		return "", err
	}
	return out.TranslatedText, nil
}

func (c *HTTPClient) Synthesize(ctx context.Context, text string, lang models.Language) (models.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return models.Audio{}, models.ErrEmptyInput
	}

	payload, err := json.Marshal(textRequest{Text: text, Language: string(lang)})
	if err != nil {
		return models.Audio{}, fmt.Errorf("marshal synthesize request: %w", err)
	}
	return c.doBinary(ctx, OpSynthesize, "/synthesize", "application/json", payload)
}

// CloneVoice returns a typed error on failure instead of an empty result,
// so callers can tell a network problem from a backend refusal.
func (c *HTTPClient) CloneVoice(ctx context.Context, text string, reference *models.Recording) (models.Audio, error) {
	if strings.TrimSpace(text) == "" || reference == nil || len(reference.Data) == 0 {
		return models.Audio{}, models.ErrEmptyInput
	}

	body, contentType, err := multipartBody(func(w *multipart.Writer) error {
		if err := w.WriteField("text", text); err != nil {
			return err
		}
		return writeFile(w, "reference_audio", reference)
	})
	if err != nil {
		return models.Audio{}, err
	}
	return c.doBinary(ctx, OpCloneVoice, "/clone-voice", contentType, body)
}

func (c *HTTPClient) post(ctx context.Context, op, path, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)

	c.log.Debugw("[backend] request", "op", op, "url", req.URL.String(), "size", humanize.Bytes(uint64(len(body))))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, op, path, contentType string, body []byte, out any) (err error) {
	start := time.Now()
	defer func() { c.observe(op, start, err) }()

	resp, err := c.post(ctx, op, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *HTTPClient) doBinary(ctx context.Context, op, path, contentType string, body []byte) (audio models.Audio, err error) {
	start := time.Now()
	defer func() { c.observe(op, start, err) }()

	resp, err := c.post(ctx, op, path, contentType, body)
	if err != nil {
		return models.Audio{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Audio{}, &NetworkError{Op: op, Err: err}
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = "audio/wav"
	}
	return models.Audio{Data: data, MIMEType: mimeType}, nil
}

func (c *HTTPClient) observe(op string, start time.Time, err error) {
	c.metrics.ObserveBackend(op, start, err)
	if err != nil {
		c.log.Warnw("[backend] call failed", "op", op, "took", time.Since(start), "error", err)
		return
	}
	c.log.Debugw("[backend] call done", "op", op, "took", time.Since(start))
}

func multipartBody(fill func(w *multipart.Writer) error) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, rec *models.Recording) error {
	part, err := w.CreateFormFile(field, rec.Filename)
	if err != nil {
		return err
	}
	_, err = part.Write(rec.Data)
	return err
}
