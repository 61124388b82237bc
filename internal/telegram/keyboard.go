package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vovarama1992/voice_translator/internal/models"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📤 Upload recording"),
			tgbotapi.NewKeyboardButton("📊 Status"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("♻️ New session"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// translationsKeyboard — по строке на язык: озвучить / скачать
func translationsKeyboard(langs []models.Language, translations map[models.Language]string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range langs {
		if translations[l] == "" {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔊 "+l.Name(), cbSpeech+string(l)),
			tgbotapi.NewInlineKeyboardButtonData("⬇ "+l.Name(), cbDownload+string(l)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
