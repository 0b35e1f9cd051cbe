package router

import (
	"log/slog"

	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// NotFound handles unknown keys; nil uses the registry's handler.
	NotFound tele.HandlerFunc
}

// CallbackRoute routes inline button presses through the registry by unique key.
// Known callbacks are answered before the handler runs so the button spinner stops.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		s := newSummary("callback."+handlerName(key), slog.String("cb_key", key))

		if h, ok := reg.GetCallback(key); ok {
			_ = c.Respond()
			return s.run(c, h)
		}

		notFound := opts.NotFound
		if notFound == nil {
			notFound = reg.CallbackNotFound()
		}
		if notFound == nil {
			notFound = func(c tele.Context) error { return c.Respond() }
		}
		return s.skipped().run(c, notFound)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
