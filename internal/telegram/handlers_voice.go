package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vovarama1992/voice_translator/internal/capture"
	"github.com/Vovarama1992/voice_translator/internal/models"
)

type audioFile struct {
	FileID   string
	Name     string
	MIMEType string
}

// handleVoice — голосовое или аудиофайл становится новой записью сессии
func (app *BotApp) handleVoice(ctx context.Context, msg *tgbotapi.Message, f audioFile) {
	chatID := msg.Chat.ID
	app.log.Infow("[voice] start", "chat", chatID, "file", f.FileID)

	wf, err := app.session(chatID)
	if err != nil {
		app.log.Errorw("[voice] session", "chat", chatID, "error", err)
		app.reply(chatID, "⚠️ Could not open a session.")
		return
	}

	rec, err := app.download(ctx, f)
	if err != nil {
		app.log.Warnw("[voice] download fail", "chat", chatID, "error", err)
		app.reply(chatID, "⚠️ Could not download the audio.")
		return
	}

	app.log.Infow("[voice] downloaded", "chat", chatID, "size", humanize.Bytes(uint64(rec.Size())))
	if err := wf.SubmitRecording(ctx, rec); err != nil {
		app.log.Warnw("[voice] submit fail", "chat", chatID, "error", err)
		app.reply(chatID, "⚠️ "+err.Error())
	}
}

func (app *BotApp) download(ctx context.Context, f audioFile) (*models.Recording, error) {
	url, err := app.bot.GetFileDirectURL(f.FileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := app.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	name := f.Name
	if name == "" {
		name = "audio.ogg"
	}
	rec, err := capture.FromReader(name, f.MIMEType, io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, err
	}
	rec.Source = models.SourceTelegram
	return rec, nil
}
