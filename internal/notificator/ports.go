package notificator

import (
	"context"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

// Notificator — доставка короткоживущих уведомлений пользователю (аналог toast)
type Notificator interface {
	Notify(ctx context.Context, sessionID string, n models.Notification) error
}
