package logger

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	ctxMeta contextKey = iota
	ctxLogger
)

// Meta is the per-update correlation data attached to every log line written with the context.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
}

// WithMeta stores m in ctx, replacing earlier metadata.
func WithMeta(ctx context.Context, m Meta) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxMeta, m)
}

// MetaFrom returns the metadata stored in ctx, or the zero Meta.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(ctxMeta).(Meta)
	return m
}

func updateMeta(ctx context.Context, fn func(*Meta)) context.Context {
	m := MetaFrom(ctx)
	fn(&m)
	return WithMeta(ctx, m)
}

// WithLogger stores the provided slog.Logger in context for propagation across layers.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger, log)
}

// FromContext returns the logger stored in ctx, falling back to L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if l, ok := ctx.Value(ctxLogger).(*slog.Logger); ok && l != nil {
		return l
	}
	return L
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return updateMeta(ctx, func(m *Meta) { m.RID = rid })
}

// RIDFrom returns the request correlation id, or "".
func RIDFrom(ctx context.Context) string {
	return MetaFrom(ctx).RID
}

// WithUpdateMeta attaches Telegram update, user and chat identifiers.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return updateMeta(ctx, func(m *Meta) {
		m.UpdateID = updateID
		m.UserID = userID
		m.ChatID = chatID
	})
}

// WithHandler records the handler serving the update. An empty name leaves ctx unchanged.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return updateMeta(ctx, func(m *Meta) { m.Handler = handler })
}

// HandlerFrom returns the handler name, or "".
func HandlerFrom(ctx context.Context) string {
	return MetaFrom(ctx).Handler
}

// UserIDFrom returns the Telegram user id, or 0.
func UserIDFrom(ctx context.Context) int64 {
	return MetaFrom(ctx).UserID
}

// ChatIDFrom returns the Telegram chat id, or 0.
func ChatIDFrom(ctx context.Context) int64 {
	return MetaFrom(ctx).ChatID
}

// UpdateIDFrom returns the Telegram update id, or 0.
func UpdateIDFrom(ctx context.Context) int {
	return MetaFrom(ctx).UpdateID
}
