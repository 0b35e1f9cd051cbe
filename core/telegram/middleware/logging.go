package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const seenTTL = 10 * time.Second

// seenUpdates remembers recently logged update ids so an update routed
// through several handler groups is logged once.
type seenUpdates struct {
	mu   sync.Mutex
	seen map[int]time.Time
}

func (s *seenUpdates) firstTime(updateID int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = make(map[int]time.Time)
	}
	for id, at := range s.seen {
		if now.Sub(at) > seenTTL {
			delete(s.seen, id)
		}
	}
	if _, ok := s.seen[updateID]; ok {
		return false
	}
	s.seen[updateID] = now
	return true
}

var received seenUpdates

// LoggerMiddleware attaches the update context (request id and Telegram ids)
// and writes a sampled debug line describing the incoming update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.NewUpdateContext(c)
		upd := c.Update()
		if logger.ShouldSampleDebug() && received.firstTime(upd.ID, time.Now()) {
			logger.Debug(ctx, "tg", "update.received", updateAttrs(c, upd)...)
		}
		return next(c)
	}
}

func updateAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil && user.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
	}
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}

// RIDFrom returns the request id of the update in c, or "".
func RIDFrom(c tele.Context) string {
	ctx, ok := tghelpers.ContextFrom(c)
	if !ok {
		return ""
	}
	return logger.RIDFrom(ctx)
}

