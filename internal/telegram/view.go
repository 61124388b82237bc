package telegram

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vovarama1992/voice_translator/internal/recorder"
)

// chatView renders store snapshots of one chat as messages. Each recording
// generation produces at most one transcription and one translations message.
type chatView struct {
	app         *BotApp
	chatID      int64
	wf          *recorder.Workflow
	unsubscribe func()

	mu               sync.Mutex
	gen              uint64
	phase            recorder.Phase
	sentTranscript   bool
	sentTranslations bool
}

func newChatView(app *BotApp, chatID int64, wf *recorder.Workflow) *chatView {
	return &chatView{app: app, chatID: chatID, wf: wf, phase: recorder.PhaseIdle}
}

func (v *chatView) render(st recorder.State) {
	for _, c := range v.diff(st) {
		if _, ok := c.(tgbotapi.ChatActionConfig); ok {
			v.app.bot.Request(c)
			continue
		}
		v.app.send(c)
	}
}

func (v *chatView) diff(st recorder.State) []tgbotapi.Chattable {
	v.mu.Lock()
	defer v.mu.Unlock()

	if st.Generation != v.gen {
		v.gen = st.Generation
		v.sentTranscript = false
		v.sentTranslations = false
	}
	prev := v.phase
	v.phase = st.Phase

	var out []tgbotapi.Chattable

	if st.Phase == recorder.PhaseTranscribing && prev != recorder.PhaseTranscribing {
		out = append(out, tgbotapi.NewChatAction(v.chatID, tgbotapi.ChatTyping))
	}

	if st.Phase == recorder.PhaseTranslating && !v.sentTranscript {
		v.sentTranscript = true
		out = append(out, tgbotapi.NewMessage(v.chatID, "📝 Transcription:\n"+st.Transcription))
	}

	if prev == recorder.PhaseTranslating && st.Phase == recorder.PhaseIdle && !v.sentTranslations {
		v.sentTranslations = true
		if len(st.Translations) == 0 {
			return out
		}
		m := tgbotapi.NewMessage(v.chatID, translationsText(v.wf, st))
		m.ReplyMarkup = translationsKeyboard(v.wf.Languages(), st.Translations)
		out = append(out, m)
	}
	return out
}

func translationsText(wf *recorder.Workflow, st recorder.State) string {
	var b strings.Builder
	b.WriteString("🌍 Translations")
	for _, l := range wf.Languages() {
		text, ok := st.Translations[l]
		if !ok {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(l.Name())
		b.WriteString(":\n")
		b.WriteString(text)
	}
	return b.String()
}
