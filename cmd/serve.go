package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/voice_translator/internal/delivery"
	"github.com/Vovarama1992/voice_translator/internal/notificator"
	"github.com/Vovarama1992/voice_translator/internal/telegram"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, with TELEGRAM_TOKEN set, the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *debug)
		},
	}
}

func serve(parent context.Context, debug bool) error {
	cfg, base, err := setup(debug)
	if err != nil {
		return err
	}
	defer base.Sync()
	zl := logger.NewZapLogger(base.Sugar())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, base.Sugar())
	if err != nil {
		return err
	}

	// =========================================================================
	// TELEGRAM BOT
	// =========================================================================

	var (
		bot     *tgbotapi.BotAPI
		botDone = make(chan struct{})
	)
	if cfg.Telegram.Token != "" {
		bot, err = tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("failed to init telegram bot: %w", err)
		}
		a.notifier.AddSink(notificator.NewTelegramInfra(bot))
		a.log.Infow("[bot_app] ready", "username", bot.Self.UserName)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates := bot.GetUpdatesChan(u)

		botApp := telegram.NewBotApp(bot, a.sessions, a.log)
		go func() {
			defer close(botDone)
			botApp.Run(ctx, updates)
		}()
	} else {
		close(botDone)
	}

	// =========================================================================
	// HTTP SERVER
	// =========================================================================

	h := delivery.NewSessionHandler(a.sessions, a.notes, zl)
	r := delivery.NewRouter(h, delivery.RouteOptions{
		APIToken:           cfg.APIToken,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Metrics:            a.metrics.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "listening at " + srv.Addr,
			Service: "voice_translator",
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		zl.Log(logger.LogEntry{Level: "error", Message: "server error", Error: serveErr, Service: "voice_translator"})
	}

	// =========================================================================
	// SHUTDOWN
	// =========================================================================

	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shCtx); err != nil {
		a.log.Warnw("[serve] http shutdown", "error", err)
	}
	if bot != nil {
		bot.StopReceivingUpdates()
	}
	stop()
	<-botDone
	a.close(shCtx)

	a.log.Infow("[serve] stopped")
	return serveErr
}
