package middleware

import (
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// countingContext counts replies sent directly through the context.
type countingContext struct {
	tele.Context
	replies *tghelpers.ReplyCounter
}

func (c countingContext) Unwrap() tele.Context { return c.Context }

func (c countingContext) count(err error, opts []any) error {
	if err == nil {
		c.replies.Add(carriesKeyboard(opts))
	}
	return err
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.count(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.count(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.count(c.Context.EditOrReply(what, opts...), opts)
}

func carriesKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware counts the replies of each update for the handler summary line.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return next(countingContext{Context: c, replies: tghelpers.TrackReplies(c)})
	}
}

// GetCounters returns the reply count of the current update and whether any reply had a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	return tghelpers.Replies(c).Snapshot()
}
