package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

const (
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	Backend  BackendConfig
	Capture  CaptureConfig
	Playback PlaybackConfig
	S3       S3Config
	Telegram TelegramConfig
	OpenAI   OpenAIConfig

	Languages         []string `env:"LANGUAGES" envDefault:"es,fr,zh" envSeparator:","`
	TranslateParallel bool     `env:"TRANSLATE_PARALLEL" envDefault:"false"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	// APIToken, when set, is required as a Bearer token on the session API.
	APIToken string `env:"API_TOKEN"`
}

type BackendConfig struct {
	URL      string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	Provider string        `env:"BACKEND_PROVIDER" envDefault:"http"`
	Timeout  time.Duration `env:"BACKEND_TIMEOUT" envDefault:"0s"`
}

type CaptureConfig struct {
	Command    string `env:"CAPTURE_COMMAND" envDefault:"arecord -q -f S16_LE -c 1 -r 16000 -t raw"`
	SampleRate int    `env:"CAPTURE_SAMPLE_RATE" envDefault:"16000"`
	Raw        bool   `env:"CAPTURE_RAW" envDefault:"false"`
	RawMIME    string `env:"CAPTURE_RAW_MIME" envDefault:"audio/ogg"`
}

type PlaybackConfig struct {
	Dir string `env:"PLAYBACK_DIR"`
}

type S3Config struct {
	Endpoint  string        `env:"S3_ENDPOINT"`
	AccessKey string        `env:"S3_ACCESS_KEY"`
	SecretKey string        `env:"S3_SECRET_KEY"`
	Bucket    string        `env:"S3_BUCKET"`
	Region    string        `env:"S3_REGION"`
	Secure    bool          `env:"S3_SECURE" envDefault:"true"`
	URLTTL    time.Duration `env:"S3_URL_TTL" envDefault:"1h"`
}

func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type TelegramConfig struct {
	Token string `env:"TELEGRAM_TOKEN"`
}

type OpenAIConfig struct {
	APIKey            string `env:"OPENAI_API_KEY"`
	Model             string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID string `env:"ELEVENLABS_VOICE_ID" envDefault:"EXAVITQu4vr4xnSDxMaL"`
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFrom parses an explicit environment, skipping .env and the process env.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.Backend.URL))
	}
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")

	switch c.Backend.Provider {
	case ProviderHTTP:
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BACKEND_PROVIDER %q", c.Backend.Provider))
	}

	if c.Backend.Timeout < 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT must not be negative"))
	}

	if len(c.Languages) == 0 {
		errs = append(errs, errors.New("LANGUAGES must not be empty"))
	} else if _, err := models.ParseLanguages(c.Languages); err != nil {
		errs = append(errs, fmt.Errorf("LANGUAGES: %w", err))
	}

	if c.Capture.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("CAPTURE_SAMPLE_RATE must be positive, got %d", c.Capture.SampleRate))
	}
	if strings.TrimSpace(c.Capture.Command) == "" {
		errs = append(errs, errors.New("CAPTURE_COMMAND must not be empty"))
	}

	if c.S3.Endpoint != "" && c.S3.Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required when S3_ENDPOINT is set"))
	}

	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}

	return errors.Join(errs...)
}

// LanguageList returns the configured languages in their enumerated order.
func (c *Config) LanguageList() []models.Language {
	langs, err := models.ParseLanguages(c.Languages)
	if err != nil {
		return models.DefaultLanguages
	}
	return langs
}
