package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	err := disp.Enqueue(ctx, chatID, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueClosed):
		// Shutdown: the dispatcher accepts nothing more.
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("op", action),
			slog.String("handler", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	default:
		logger.Error(ctx, "tg.sender", "queue.reject",
			slog.String("status", "fail"),
			slog.String("op", action),
			slog.String("handler", endpoint),
			slog.String("err", err.Error()),
		)
		return err
	}
}

// SendText sends raw text (no parse mode) to the current recipient.
// With a dispatcher installed the message is queued and delivered in chat order.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := make([]any, 0, 1)
	for _, rm := range markup {
		if rm != nil {
			opts = append(opts, rm)
		}
	}
	Replies(c).Add(len(opts) > 0)
	raw := Unwrap(c)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return raw.Send(text, opts...)
	})
}

// SendTexts sends messages in order. The markup, if any, is attached to the last one.
func SendTexts(c tele.Context, texts []string, markup ...*tele.ReplyMarkup) error {
	var errs []error
	for i, text := range texts {
		if i == len(texts)-1 {
			errs = append(errs, SendText(c, text, markup...))
			continue
		}
		errs = append(errs, SendText(c, text))
	}
	return errors.Join(errs...)
}

