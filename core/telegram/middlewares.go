package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain in the order it is applied:
// panic recovery, update logging, per-user rate limiting (when
// rate_limit.interval_ms is set) and reply counters. Rate limiting runs
// after logging so dropped updates still carry a request id.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	chain := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
	if limit := rateLimitOptions(cfg, onLimited); limit.Interval > 0 {
		chain = append(chain, Middleware{Name: "rate_limit", Use: middleware.RateLimitMiddleware(limit)})
	}
	return append(chain, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
}

func rateLimitOptions(cfg *coreconfig.Config, onLimited tele.HandlerFunc) middleware.RateLimitOptions {
	if cfg == nil {
		return middleware.RateLimitOptions{}
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		if kind != "" {
			exclude[kind] = struct{}{}
		}
	}
	return middleware.RateLimitOptions{
		Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:   exclude,
		OnLimited: onLimited,
	}
}
