package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes binds every registered command, and its aliases, to a handler
// that logs a summary line and enforces admin-only access.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		name, next := name, def.Handler
		h := func(c tele.Context) error {
			return newSummary(handlerName(name)).run(c, next)
		}
		if def.AdminOnly {
			h = adminOnly(h)
		}
		for _, endpoint := range def.Names(name) {
			routes = append(routes, tg.Route{Endpoint: endpoint, Handler: h})
		}
	}

	logger.Info(context.Background(), "tg.wire", "routes.commands",
		slog.String("status", "ok"),
		slog.Int("count", len(routes)),
	)
	return routes
}
