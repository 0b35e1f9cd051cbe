package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary describes one routed update; run and log write the
// "handler.handled" line once the handler returns.
type summary struct {
	handler string
	start   time.Time
	status  string
	attrs   []slog.Attr
}

func newSummary(handler string, attrs ...slog.Attr) summary {
	return summary{handler: handler, start: time.Now(), attrs: attrs}
}

// skipped marks updates that reached a fallback rather than a real handler.
func (s summary) skipped() summary {
	s.status = "skip"
	return s
}

// run calls h (which may be nil) with the handler name on the update context and logs the result.
func (s summary) run(c tele.Context, h tele.HandlerFunc) error {
	tghelpers.WithHandler(c, s.handler)
	var err error
	if h != nil {
		err = h(c)
	}
	s.log(c, err)
	return err
}

func (s summary) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.handler)
	msgs, kb := middleware.GetCounters(c)

	outcome := logger.Status(err)
	status := s.status
	if status == "" || err != nil {
		status = outcome
	}
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(s.start)),
	}, s.attrs...)
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.Info(ctx, "tg", "handler.handled", attrs...)
}

// handlerName turns a command or callback key into a log-friendly handler name.
func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode prefers an explicit Code() on any wrapped error and falls back to the error's type name.
func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
