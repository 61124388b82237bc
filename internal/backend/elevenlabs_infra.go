package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/voice_translator/internal/metrics"
	"github.com/Vovarama1992/voice_translator/internal/models"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io"

type ElevenLabsClient struct {
	apiKey  string
	voiceID string
	baseURL string
	httpCli *http.Client
	metrics *metrics.Metrics
}

var _ Synthesizer = (*ElevenLabsClient)(nil)

func NewElevenLabsClient(apiKey, voiceID string, m *metrics.Metrics) *ElevenLabsClient {
	if voiceID == "" {
		voiceID = "EXAVITQu4vr4xnSDxMaL" // Rachel
	}
	return &ElevenLabsClient{
		apiKey:  apiKey,
		voiceID: voiceID,
		baseURL: elevenLabsBaseURL,
		httpCli: http.DefaultClient,
		metrics: m,
	}
}

// WithBaseURL для тестов
func (c *ElevenLabsClient) WithBaseURL(u string) *ElevenLabsClient {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// TEXT → SPEECH, multilingual model so every target language shares one voice
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string, lang models.Language) (audio models.Audio, err error) {
	if strings.TrimSpace(text) == "" {
		return models.Audio{}, models.ErrEmptyInput
	}
	start := time.Now()
	defer func() { c.metrics.ObserveBackend(OpSynthesize, start, err) }()

	payload, err := json.Marshal(map[string]any{
		"text":          text,
		"model_id":      "eleven_multilingual_v2",
		"language_code": string(lang),
	})
	if err != nil {
		return models.Audio{}, fmt.Errorf("marshal elevenlabs payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return models.Audio{}, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return models.Audio{}, &NetworkError{Op: OpSynthesize, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return models.Audio{}, &HTTPError{Op: OpSynthesize, StatusCode: resp.StatusCode, Body: string(b)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Audio{}, &NetworkError{Op: OpSynthesize, Err: err}
	}
	return models.Audio{Data: data, MIMEType: "audio/mpeg"}, nil
}
