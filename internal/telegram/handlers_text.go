package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vovarama1992/voice_translator/internal/playback"
)

func (app *BotApp) handleUpload(ctx context.Context, chatID int64) {
	wf, err := app.session(chatID)
	if err != nil {
		app.reply(chatID, "⚠️ Could not open a session.")
		return
	}

	res, err := wf.Upload(ctx)
	if err != nil {
		// причина уже ушла уведомлением
		app.log.Infow("[upload] fail", "chat", chatID, "error", err)
		return
	}
	app.reply(chatID, "📤 Saved as "+res.Path)
}

func (app *BotApp) handleClone(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.CommandArguments())

	ref := msg.ReplyToMessage
	var f audioFile
	switch {
	case ref != nil && ref.Voice != nil:
		f = audioFile{FileID: ref.Voice.FileID, Name: "reference.ogg", MIMEType: ref.Voice.MimeType}
	case ref != nil && ref.Audio != nil:
		f = audioFile{FileID: ref.Audio.FileID, Name: ref.Audio.FileName, MIMEType: ref.Audio.MimeType}
	default:
		app.reply(chatID, "Reply to a voice message with /clone <text>.")
		return
	}
	if text == "" {
		app.reply(chatID, "Usage: /clone <text>")
		return
	}

	wf, err := app.session(chatID)
	if err != nil {
		app.reply(chatID, "⚠️ Could not open a session.")
		return
	}

	reference, err := app.download(ctx, f)
	if err != nil {
		app.log.Warnw("[clone] download fail", "chat", chatID, "error", err)
		app.reply(chatID, "⚠️ Could not download the reference audio.")
		return
	}

	app.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadVoice))
	if _, err := wf.CloneVoice(ctx, text, reference); err != nil {
		app.log.Infow("[clone] fail", "chat", chatID, "error", err)
		return
	}
	app.sendAudio(ctx, chatID, wf, playback.SlotCloned, "cloned")
}

func (app *BotApp) handleStatus(chatID int64) {
	wf, err := app.session(chatID)
	if err != nil {
		app.reply(chatID, "⚠️ Could not open a session.")
		return
	}
	st := wf.State()

	var b strings.Builder
	fmt.Fprintf(&b, "State: %s\n", st.Phase)
	if st.Recording != nil {
		fmt.Fprintf(&b, "Recording: %s\n", st.Recording.Filename)
	}
	fmt.Fprintf(&b, "Translations: %d/%d", len(st.Translations), len(wf.Languages()))
	if st.UploadPath != "" {
		fmt.Fprintf(&b, "\nUploaded: %s", st.UploadPath)
	}
	app.reply(chatID, b.String())
}

func (app *BotApp) handleReset(ctx context.Context, chatID int64) {
	if err := app.reset(ctx, chatID); err != nil {
		app.log.Warnw("[reset] fail", "chat", chatID, "error", err)
	}
	app.reply(chatID, "♻️ Session cleared. Send a new recording.")
}
