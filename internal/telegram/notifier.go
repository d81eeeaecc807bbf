package telegram

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the slice of the Telegram API the notifier needs.
// Satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers HTML messages to the fixed administrator chat with
// bounded retry on transport failure.
type Notifier struct {
	api      Sender
	chatID   int64
	log      *zap.SugaredLogger
	attempts uint
	delay    time.Duration
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithSendRetry overrides the delivery retry policy.
func WithSendRetry(attempts uint, delay time.Duration) NotifierOption {
	return func(n *Notifier) {
		n.attempts = attempts
		n.delay = delay
	}
}

// NewNotifier creates a Notifier addressing chatID.
func NewNotifier(api Sender, chatID int64, log *zap.SugaredLogger, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		api:      api,
		chatID:   chatID,
		log:      log,
		attempts: 3,
		delay:    time.Second,
	}
	if n.log == nil {
		n.log = zap.NewNop().Sugar()
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Send delivers one HTML-formatted message to the administrator chat.
func (n *Notifier) Send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	return retry.Do(func() error {
		_, err := n.api.Send(msg)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(n.attempts),
		retry.Delay(n.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			n.log.Warnw("message delivery failed, retrying", "attempt", attempt+1, "error", err)
		}),
	)
}
