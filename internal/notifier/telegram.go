package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/julianstephens/habitflow/internal/logger"
)

// botSender is the part of tgbotapi.BotAPI the sink uses.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var newBotFunc = func(token string) (botSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info("Telegram bot authorized", "account", api.Self.UserName)
	return api, nil
}

// Telegram sends reminders as bot messages to one chat. The bot is
// authorized lazily on the first send so an offline start does not fail.
type Telegram struct {
	token  string
	chatID int64

	mu  sync.Mutex
	bot botSender
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is not configured")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id is not configured")
	}
	return &Telegram{token: token, chatID: chatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) client() (botSender, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := newBotFunc(t.token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *Telegram) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := t.client()
	if err != nil {
		return err
	}

	text := html.EscapeString(n.Body)
	if n.Title != "" {
		text = "<b>" + html.EscapeString(n.Title) + "</b>\n" + text
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
