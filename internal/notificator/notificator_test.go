package notificator

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

type failingSink struct{}

func (failingSink) Notify(context.Context, string, models.Notification) error {
	return errors.New("down")
}

func TestMemoryInfraDrain(t *testing.T) {
	m := NewMemoryInfra(2)
	ctx := context.Background()

	m.Notify(ctx, "a", models.NewNotification(models.LevelInfo, "one"))
	m.Notify(ctx, "a", models.NewNotification(models.LevelInfo, "two"))
	m.Notify(ctx, "a", models.NewNotification(models.LevelError, "three"))
	m.Notify(ctx, "b", models.NewNotification(models.LevelInfo, "other"))

	got := m.Drain("a")
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
	assert.Empty(t, m.Drain("a"))
	assert.Len(t, m.Drain("b"), 1)
}

func TestServiceSwallowsSinkErrors(t *testing.T) {
	mem := NewMemoryInfra(0)
	s := NewService(nil, failingSink{}, mem)

	err := s.Notify(context.Background(), "s1", models.NewNotification(models.LevelError, "boom"))
	assert.NoError(t, err)
	assert.Len(t, mem.Drain("s1"), 1)
}

func TestServiceHelpers(t *testing.T) {
	mem := NewMemoryInfra(0)
	s := NewService(nil)
	s.AddSink(mem)

	s.Success(context.Background(), "s", "ok")
	s.Info(context.Background(), "s", "fyi")
	s.Error(context.Background(), "s", "bad")

	got := mem.Drain("s")
	require.Len(t, got, 3)
	assert.Equal(t, models.LevelSuccess, got[0].Level)
	assert.Equal(t, models.LevelInfo, got[1].Level)
	assert.Equal(t, models.LevelError, got[2].Level)
}

func TestTelegramInfra(t *testing.T) {
	sender := &fakeSender{}
	infra := NewTelegramInfra(sender)

	require.NoError(t, infra.Notify(context.Background(), TelegramSessionID(42),
		models.NewNotification(models.LevelSuccess, "Transcription successful!")))
	require.NoError(t, infra.Notify(context.Background(), "http-session",
		models.NewNotification(models.LevelError, "ignored")))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Equal(t, "✅ Transcription successful!", sender.sent[0].Text)
}

func TestChatIDFromSession(t *testing.T) {
	id, ok := ChatIDFromSession("tg:-100123")
	assert.True(t, ok)
	assert.Equal(t, int64(-100123), id)

	_, ok = ChatIDFromSession("tg:abc")
	assert.False(t, ok)
	_, ok = ChatIDFromSession("abc")
	assert.False(t, ok)
}
