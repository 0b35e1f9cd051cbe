package middleware

import (
	"log/slog"

	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions configures AdminOnlyMiddleware. A zero AdminID lets everyone through.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

func (o AdminOptions) allows(user *tele.User) bool {
	return o.AdminID == 0 || (user != nil && user.ID == o.AdminID)
}

// AdminOnlyMiddleware passes updates from the admin and hands everyone else to OnReject.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.allows(c.Sender()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "access.denied", slog.String("status", "skip"))
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
