package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/backend"
	"github.com/Vovarama1992/voice_translator/internal/capture"
	"github.com/Vovarama1992/voice_translator/internal/config"
	"github.com/Vovarama1992/voice_translator/internal/metrics"
	"github.com/Vovarama1992/voice_translator/internal/notificator"
	"github.com/Vovarama1992/voice_translator/internal/playback"
	"github.com/Vovarama1992/voice_translator/internal/recorder"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
	backend  backend.Client
	store    playback.Store
	device   capture.Device
	notes    *notificator.MemoryInfra
	notifier *notificator.Service
	sessions *recorder.Sessions
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	// =========================================================================
	// BACKEND
	// =========================================================================

	switch cfg.Backend.Provider {
	case config.ProviderOpenAI:
		c := backend.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, a.metrics, log)
		if cfg.OpenAI.ElevenLabsAPIKey != "" {
			c.WithSynthesizer(backend.NewElevenLabsClient(cfg.OpenAI.ElevenLabsAPIKey, cfg.OpenAI.ElevenLabsVoiceID, a.metrics))
		}
		a.backend = c
	default:
		a.backend = backend.NewHTTPClient(cfg.Backend.URL, cfg.Backend.Timeout, a.metrics, log)
	}

	// =========================================================================
	// PLAYBACK STORE
	// =========================================================================

	if cfg.S3.Enabled() {
		s3, err := playback.NewS3Store(ctx, playback.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Secure:    cfg.S3.Secure,
			URLTTL:    cfg.S3.URLTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 playback store: %w", err)
		}
		a.store = s3
	} else {
		fs, err := playback.NewFileStore(cfg.Playback.Dir)
		if err != nil {
			return nil, fmt.Errorf("init playback dir: %w", err)
		}
		a.store = fs
	}

	// =========================================================================
	// CAPTURE
	// =========================================================================

	device, err := capture.NewCommandDevice(cfg.Capture.Command)
	if err != nil {
		log.Warnw("[app] microphone disabled", "error", err)
	} else {
		a.device = device
	}

	// =========================================================================
	// NOTIFICATIONS / SESSIONS
	// =========================================================================

	a.notes = notificator.NewMemoryInfra(0)
	a.notifier = notificator.NewService(log, a.notes)
	a.sessions = recorder.NewSessions(a.newWorkflow, a.metrics)

	return a, nil
}

// newWorkflow is the session factory. Telegram chats get no microphone.
func (a *app) newWorkflow(id string) (*recorder.Workflow, error) {
	deps := recorder.Deps{
		Backend:   a.backend,
		Player:    playback.NewPlayer(a.store, id, a.metrics, a.log),
		Notifier:  a.notifier,
		Languages: a.cfg.LanguageList(),
		Parallel:  a.cfg.TranslateParallel,
		Metrics:   a.metrics,
		Log:       a.log,
	}
	if a.device != nil && !strings.HasPrefix(id, notificator.TelegramPrefix) {
		deps.Capturer = capture.NewCapturer(a.device, capture.Options{
			Raw:        a.cfg.Capture.Raw,
			RawMIME:    a.cfg.Capture.RawMIME,
			SampleRate: a.cfg.Capture.SampleRate,
		}, a.log)
	}
	return recorder.NewWorkflow(id, deps), nil
}

func (a *app) close(ctx context.Context) {
	if err := a.sessions.CloseAll(ctx); err != nil {
		a.log.Warnw("[app] close sessions", "error", err)
	}
}
