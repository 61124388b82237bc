package telegram

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_translator/internal/notificator"
	"github.com/Vovarama1992/voice_translator/internal/recorder"
)

// лимит Bot API на скачивание файлов
const maxDownloadSize = 20 << 20

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type BotApp struct {
	bot      API
	sessions *recorder.Sessions
	http     *http.Client
	log      *zap.SugaredLogger

	mu    sync.Mutex
	views map[int64]*chatView

	inflight sync.WaitGroup
}

func NewBotApp(bot API, sessions *recorder.Sessions, log *zap.SugaredLogger) *BotApp {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &BotApp{
		bot:      bot,
		sessions: sessions,
		http:     &http.Client{Timeout: 60 * time.Second},
		log:      log,
		views:    make(map[int64]*chatView),
	}
}

// Run consumes updates until ctx is done or the channel is closed, then waits
// for the handlers still running.
func (app *BotApp) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	app.log.Infow("[bot_loop] started")
	defer app.inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			app.inflight.Add(1)
			go func() {
				defer app.inflight.Done()
				app.dispatchUpdate(ctx, update)
			}()
		}
	}
}

// session returns the chat's workflow, subscribing the chat view on first use.
func (app *BotApp) session(chatID int64) (*recorder.Workflow, error) {
	wf, err := app.sessions.GetOrCreate(notificator.TelegramSessionID(chatID))
	if err != nil {
		return nil, err
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if v, ok := app.views[chatID]; ok && v.wf == wf {
		return wf, nil
	}
	v := newChatView(app, chatID, wf)
	v.unsubscribe = wf.Subscribe(v.render)
	app.views[chatID] = v
	return wf, nil
}

func (app *BotApp) reset(ctx context.Context, chatID int64) error {
	app.mu.Lock()
	if v, ok := app.views[chatID]; ok {
		v.unsubscribe()
		delete(app.views, chatID)
	}
	app.mu.Unlock()

	err := app.sessions.Close(ctx, notificator.TelegramSessionID(chatID))
	if errors.Is(err, recorder.ErrSessionNotFound) {
		return nil
	}
	return err
}

func (app *BotApp) send(c tgbotapi.Chattable) {
	if _, err := app.bot.Send(c); err != nil {
		app.log.Warnw("[bot] send failed", "error", err)
	}
}

func (app *BotApp) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = mainKeyboard()
	app.send(m)
}
