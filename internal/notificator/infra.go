package notificator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

const TelegramPrefix = "tg:"

// Sender is the slice of *tgbotapi.BotAPI the notificator needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramInfra delivers notifications of telegram sessions ("tg:<chatID>")
// as chat messages. Other sessions are ignored.
type TelegramInfra struct {
	bot Sender
}

var _ Notificator = (*TelegramInfra)(nil)

func NewTelegramInfra(bot Sender) *TelegramInfra {
	return &TelegramInfra{bot: bot}
}

func TelegramSessionID(chatID int64) string {
	return TelegramPrefix + strconv.FormatInt(chatID, 10)
}

func ChatIDFromSession(sessionID string) (int64, bool) {
	if !strings.HasPrefix(sessionID, TelegramPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(sessionID, TelegramPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (i *TelegramInfra) Notify(_ context.Context, sessionID string, n models.Notification) error {
	chatID, ok := ChatIDFromSession(sessionID)
	if !ok {
		return nil
	}
	if i.bot == nil {
		return fmt.Errorf("telegram bot not set")
	}

	_, err := i.bot.Send(tgbotapi.NewMessage(chatID, icon(n.Level)+" "+n.Message))
	return err
}

func icon(l models.Level) string {
	switch l {
	case models.LevelSuccess:
		return "✅"
	case models.LevelError:
		return "⚠️"
	default:
		return "ℹ️"
	}
}
