package notificator

import (
	"context"

	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

// Service fans a notification out to every sink. Notifications are transient:
// a failing sink is logged and otherwise ignored.
type Service struct {
	sinks []Notificator
	log   *zap.SugaredLogger
}

var _ Notificator = (*Service)(nil)

func NewService(log *zap.SugaredLogger, sinks ...Notificator) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{sinks: sinks, log: log}
}

// AddSink — для синков, которые появляются после старта (телеграм-бот)
func (s *Service) AddSink(n Notificator) {
	s.sinks = append(s.sinks, n)
}

func (s *Service) Notify(ctx context.Context, sessionID string, n models.Notification) error {
	logFn := s.log.Infow
	if n.Level == models.LevelError {
		logFn = s.log.Warnw
	}
	logFn("[notify] "+n.Message, "session", sessionID, "level", n.Level)

	for _, sink := range s.sinks {
		if err := sink.Notify(ctx, sessionID, n); err != nil {
			s.log.Warnw("[notify] sink failed", "session", sessionID, "error", err)
		}
	}
	return nil
}

func (s *Service) Success(ctx context.Context, sessionID, msg string) {
	_ = s.Notify(ctx, sessionID, models.NewNotification(models.LevelSuccess, msg))
}

func (s *Service) Info(ctx context.Context, sessionID, msg string) {
	_ = s.Notify(ctx, sessionID, models.NewNotification(models.LevelInfo, msg))
}

func (s *Service) Error(ctx context.Context, sessionID, msg string) {
	_ = s.Notify(ctx, sessionID, models.NewNotification(models.LevelError, msg))
}
