package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/metrics"
	"github.com/Vovarama1992/voice_translator/internal/models"
)

// Synthesizer is the narrow TTS port the openai provider can delegate to.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang models.Language) (models.Audio, error)
}

// OpenAIClient serves transcribe/translate/synthesize straight from OpenAI
// when no self-hosted backend is available. Upload and clone-voice have no
// equivalent there.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	tts     Synthesizer
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(apiKey, model string, m *metrics.Metrics, log *zap.SugaredLogger) *OpenAIClient {
	return NewOpenAIClientWithConfig(openai.DefaultConfig(apiKey), model, m, log)
}

func NewOpenAIClientWithConfig(cfg openai.ClientConfig, model string, m *metrics.Metrics, log *zap.SugaredLogger) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		metrics: m,
		log:     log,
	}
}

// WithSynthesizer routes speech synthesis to another TTS (ElevenLabs).
func (c *OpenAIClient) WithSynthesizer(s Synthesizer) *OpenAIClient {
	c.tts = s
	return c
}

func (c *OpenAIClient) Upload(context.Context, *models.Recording) (models.UploadResult, error) {
	return models.UploadResult{}, fmt.Errorf("%s: %w", OpUpload, ErrUnsupported)
}

func (c *OpenAIClient) CloneVoice(context.Context, string, *models.Recording) (models.Audio, error) {
	return models.Audio{}, fmt.Errorf("%s: %w", OpCloneVoice, ErrUnsupported)
}

func (c *OpenAIClient) Transcribe(ctx context.Context, rec *models.Recording) (res models.TranscribeResult, err error) {
	if rec == nil || len(rec.Data) == 0 {
		return models.TranscribeResult{}, models.ErrEmptyInput
	}
	start := time.Now()
	defer func() { c.metrics.ObserveBackend(OpTranscribe, start, err) }()

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: rec.Filename,
		Reader:   bytes.NewReader(rec.Data),
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return models.TranscribeResult{}, classifyOpenAIError(OpTranscribe, err)
	}

	c.log.Infow("[backend] whisper done", "took", time.Since(start), "language", resp.Language)
	return models.TranscribeResult{
		Text:             strings.TrimSpace(resp.Text),
		DetectedLanguage: resp.Language,
	}, nil
}

func (c *OpenAIClient) Translate(ctx context.Context, text string, lang models.Language) (out string, err error) {
	if strings.TrimSpace(text) == "" {
		return "", models.ErrEmptyInput
	}
	if !lang.Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedLanguage, lang)
	}
	start := time.Now()
	defer func() { c.metrics.ObserveBackend(OpTranslate, start, err) }()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"Translate the user's message into %s. Reply with the translation only.",
					lang.Name()),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(OpTranslate, err)
	}
	if len(resp.Choices) == 0 {
		return "", &HTTPError{Op: OpTranslate, StatusCode: 200, Body: "no choices in response"}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text string, lang models.Language) (audio models.Audio, err error) {
	if strings.TrimSpace(text) == "" {
		return models.Audio{}, models.ErrEmptyInput
	}
	if c.tts != nil {
		return c.tts.Synthesize(ctx, text, lang)
	}
	start := time.Now()
	defer func() { c.metrics.ObserveBackend(OpSynthesize, start, err) }()

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.VoiceAlloy,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return models.Audio{}, classifyOpenAIError(OpSynthesize, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return models.Audio{}, &NetworkError{Op: OpSynthesize, Err: err}
	}
	return models.Audio{Data: data, MIMEType: "audio/mpeg"}, nil
}

// classifyOpenAIError maps go-openai errors onto the backend taxonomy.
func classifyOpenAIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &HTTPError{Op: op, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &HTTPError{Op: op, StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	return &NetworkError{Op: op, Err: err}
}
