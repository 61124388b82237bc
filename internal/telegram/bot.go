package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "🎙 Send a voice message or an audio file and I will transcribe it " +
	"and translate it into Spanish, French and Mandarin.\n\n" +
	"/upload — save the last recording on the backend\n" +
	"/clone <text> — reply to a voice message to speak the text in that voice\n" +
	"/status — current progress\n" +
	"/reset — start over"

func (app *BotApp) dispatchUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		app.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		app.handleCallback(ctx, update.CallbackQuery)
	}
}

func (app *BotApp) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	app.log.Debugw("[bot_touch]", "chat", chatID, "message", msg.MessageID)

	if msg.IsCommand() {
		app.handleCommand(ctx, msg)
		return
	}

	textLower := strings.ToLower(msg.Text)
	switch {
	case strings.Contains(textLower, "upload"):
		app.handleUpload(ctx, chatID)
		return
	case strings.Contains(textLower, "new session"):
		app.handleReset(ctx, chatID)
		return
	case strings.Contains(textLower, "status"):
		app.handleStatus(chatID)
		return
	}

	switch {
	case msg.Voice != nil:
		app.handleVoice(ctx, msg, audioFile{
			FileID:   msg.Voice.FileID,
			Name:     "voice.ogg",
			MIMEType: msg.Voice.MimeType,
		})
	case msg.Audio != nil:
		app.handleVoice(ctx, msg, audioFile{
			FileID:   msg.Audio.FileID,
			Name:     msg.Audio.FileName,
			MIMEType: msg.Audio.MimeType,
		})
	case msg.Document != nil && isAudioDocument(msg.Document):
		app.handleVoice(ctx, msg, audioFile{
			FileID:   msg.Document.FileID,
			Name:     msg.Document.FileName,
			MIMEType: msg.Document.MimeType,
		})
	default:
		app.reply(chatID, "📎 Send a voice message or an audio file.")
	}
}

func (app *BotApp) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		app.reply(chatID, helpText)
	case "upload":
		app.handleUpload(ctx, chatID)
	case "clone":
		app.handleClone(ctx, msg)
	case "status":
		app.handleStatus(chatID)
	case "reset":
		app.handleReset(ctx, chatID)
	default:
		app.reply(chatID, "Unknown command. /help")
	}
}

func isAudioDocument(doc *tgbotapi.Document) bool {
	if strings.HasPrefix(doc.MimeType, "audio/") {
		return true
	}
	name := strings.ToLower(doc.FileName)
	for _, ext := range []string{".wav", ".mp3", ".ogg", ".oga", ".m4a", ".flac", ".webm"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
