package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vovarama1992/voice_translator/internal/models"
	"github.com/Vovarama1992/voice_translator/internal/playback"
	"github.com/Vovarama1992/voice_translator/internal/recorder"
)

const (
	cbSpeech   = "speech_"
	cbDownload = "dl_"
)

func (app *BotApp) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// всегда отвечаем Telegram
	app.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data
	app.log.Infow("[callback]", "chat", chatID, "data", data)

	wf, err := app.session(chatID)
	if err != nil {
		app.reply(chatID, "⚠️ Could not open a session.")
		return
	}

	switch {
	case strings.HasPrefix(data, cbSpeech):
		lang, err := models.ParseLanguage(strings.TrimPrefix(data, cbSpeech))
		if err != nil {
			app.reply(chatID, "⚠️ Unknown language.")
			return
		}
		app.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVoice))
		if _, err := wf.GenerateSpeech(ctx, lang); err != nil {
			app.log.Infow("[callback] speech fail", "chat", chatID, "lang", lang, "error", err)
			return
		}
		app.sendAudio(ctx, chatID, wf, playback.LanguageSlot(lang), "speech_"+string(lang))

	case strings.HasPrefix(data, cbDownload):
		lang, err := models.ParseLanguage(strings.TrimPrefix(data, cbDownload))
		if err != nil {
			app.reply(chatID, "⚠️ Unknown language.")
			return
		}
		text, err := wf.TranslationText(lang)
		if err != nil {
			app.reply(chatID, "No "+lang.Name()+" translation yet.")
			return
		}
		app.send(tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  recorder.TranslationFilename(lang),
			Bytes: []byte(text),
		}))

	default:
		app.log.Warnw("[callback] unknown data", "chat", chatID, "data", data)
	}
}

func (app *BotApp) sendAudio(ctx context.Context, chatID int64, wf *recorder.Workflow, slot playback.Slot, name string) {
	rc, h, err := wf.OpenAudio(ctx, slot)
	if err != nil {
		app.log.Warnw("[bot] open audio", "chat", chatID, "slot", slot, "error", err)
		app.reply(chatID, "⚠️ Audio is no longer available.")
		return
	}
	defer rc.Close()

	app.send(tgbotapi.NewAudio(chatID, tgbotapi.FileReader{
		Name:   name + extension(h.MIMEType),
		Reader: rc,
	}))
}

func extension(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mpeg"):
		return ".mp3"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	default:
		return ".wav"
	}
}
