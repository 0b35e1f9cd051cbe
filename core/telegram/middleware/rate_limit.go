package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude lists update kinds ("message", "callback", "inline_query") that bypass the limit.
	Exclude map[string]struct{}
	// OnLimited answers dropped updates; nil drops them silently.
	OnLimited tele.HandlerFunc
}

// userClock remembers when each user was last let through.
type userClock struct {
	mu       sync.Mutex
	last     map[int64]time.Time
	interval time.Duration
	swept    time.Time
}

// admit records now for userID unless the previous admitted update is closer than interval.
// It returns the gap to the previous update when the update is refused.
func (u *userClock) admit(userID int64, now time.Time) (time.Duration, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if now.Sub(u.swept) > time.Minute {
		for id, at := range u.last {
			if now.Sub(at) >= u.interval {
				delete(u.last, id)
			}
		}
		u.swept = now
	}
	if at, ok := u.last[userID]; ok {
		if gap := now.Sub(at); gap < u.interval {
			return gap, false
		}
	}
	u.last[userID] = now
	return 0, true
}

// RateLimitMiddleware drops updates that arrive sooner than Interval after the
// previous admitted update of the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	clock := &userClock{last: make(map[int64]time.Time), interval: opts.Interval}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			gap, ok := clock.admit(user.ID, time.Now())
			if ok {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("op", kind),
				slog.Duration("duration", gap),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
