package router

import (
	"strings"

	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text and non-text updates.
type TextOptions struct {
	UnknownCommand tele.HandlerFunc
	UnknownText    tele.HandlerFunc
	UnknownMedia   tele.HandlerFunc
}

// TextRoutes builds handlers for free text and media.
// Slash text that names a registered command or alias runs that command, other
// slash text goes to UnknownCommand, and plain text goes to the registry text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		msg := c.Text()
		if key, cmd, ok := lookupCommand(reg, msg); ok {
			return newSummary(handlerName(key)).run(c, cmd.Handler)
		}
		if isCommand(msg) {
			return newSummary("unknown_command").skipped().run(c, opts.UnknownCommand)
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return newSummary("text").run(c, fb)
			}
		}
		return newSummary("unknown_text").skipped().run(c, opts.UnknownText)
	}

	media := func(c tele.Context) error {
		return newSummary("unexpected_media").skipped().run(c, opts.UnknownMedia)
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: text}}
	for _, endpoint := range []string{tele.OnDocument, tele.OnPhoto, tele.OnSticker, tele.OnVoice} {
		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: media})
	}
	return routes
}

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// lookupCommand resolves "/name@bot args" style text to a registered command.
func lookupCommand(reg *tg.Registry, text string) (string, commands.Command, bool) {
	if reg == nil || !isCommand(text) {
		return "", commands.Command{}, false
	}
	name, _, _ := strings.Cut(strings.Fields(text)[0], "@")
	return reg.LookupCommand(name)
}
