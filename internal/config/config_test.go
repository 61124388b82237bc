package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:5000", cfg.Backend.URL)
	assert.Equal(t, ProviderHTTP, cfg.Backend.Provider)
	assert.Equal(t, time.Duration(0), cfg.Backend.Timeout)
	assert.False(t, cfg.TranslateParallel)
	assert.Equal(t, 16000, cfg.Capture.SampleRate)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, []models.Language{models.Spanish, models.French, models.Mandarin}, cfg.LanguageList())
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"BACKEND_URL":        "http://192.168.0.100:5000/",
		"BACKEND_TIMEOUT":    "30s",
		"TRANSLATE_PARALLEL": "true",
		"LANGUAGES":          "zh,es",
		"S3_ENDPOINT":        "s3.example.com",
		"S3_BUCKET":          "speech",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://192.168.0.100:5000", cfg.Backend.URL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.TranslateParallel)
	assert.Equal(t, []models.Language{models.Mandarin, models.Spanish}, cfg.LanguageList())
	assert.True(t, cfg.S3.Enabled())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		want    string
	}{
		{"relative backend url", map[string]string{"BACKEND_URL": "localhost"}, "BACKEND_URL"},
		{"unknown provider", map[string]string{"BACKEND_PROVIDER": "grpc"}, "unknown BACKEND_PROVIDER"},
		{"openai without key", map[string]string{"BACKEND_PROVIDER": "openai"}, "OPENAI_API_KEY"},
		{"unknown language", map[string]string{"LANGUAGES": "es,de"}, "unsupported language"},
		{"bad sample rate", map[string]string{"CAPTURE_SAMPLE_RATE": "0"}, "CAPTURE_SAMPLE_RATE"},
		{"bucket missing", map[string]string{"S3_ENDPOINT": "s3.example.com"}, "S3_BUCKET"},
		{"negative timeout", map[string]string{"BACKEND_TIMEOUT": "-1s"}, "BACKEND_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpenAIProviderWithKey(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"BACKEND_PROVIDER": "openai",
		"OPENAI_API_KEY":   "sk-test",
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Backend.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}
