// Package bot wires the quiz service to Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/quizbot/core/bootstrap"
	"github.com/m3rciful/quizbot/core/logger"
	coretelegram "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/router"
	"github.com/m3rciful/quizbot/quiz"
	"github.com/m3rciful/quizbot/quiz/store"
)

// App holds the initialized quiz service and its infrastructure.
type App struct {
	cfg     *Config
	infra   *bootstrap.Result
	service *quiz.Service
}

// Bootstrap initializes logging, the session backend and the quiz service.
func Bootstrap(cfg *Config) (*App, error) {
	return bootstrapWith(cfg, bootstrap.Options{})
}

func bootstrapWith(cfg *Config, opts bootstrap.Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config provided")
	}
	opts.Config = &cfg.Config
	opts.Database = cfg.DatabaseConfig()
	opts.Redis = cfg.RedisConfig()

	infra, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}

	questions, err := quiz.LoadQuestionSet(cfg.Quiz.QuestionsFile)
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("bot: %w", err)
	}

	sessions, err := newStore(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	svc, err := quiz.NewService(quiz.NewController(questions), sessions)
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("bot: %w", err)
	}

	logger.Info(context.Background(), "app", "bootstrap",
		slog.String("status", "ok"),
		slog.String("db", cfg.Storage.Driver),
		slog.Int("count", questions.Len()),
	)

	return &App{
		cfg:     cfg,
		infra:   infra,
		service: svc,
	}, nil
}

func newStore(cfg *Config, infra *bootstrap.Result) (quiz.Store, error) {
	switch cfg.Storage.Driver {
	case StoragePostgres:
		if infra.DB == nil {
			return nil, fmt.Errorf("bot: postgres storage selected but no database connection")
		}
		return store.NewPostgres(infra.DB), nil
	case StorageRedis:
		if infra.Redis == nil {
			return nil, fmt.Errorf("bot: redis storage selected but no redis connection")
		}
		return store.NewRedis(infra.Redis, cfg.Quiz.KeyPrefix, cfg.Quiz.SessionTTL()), nil
	default:
		return store.NewMemory(), nil
	}
}

// Service exposes the quiz service.
func (a *App) Service() *quiz.Service {
	return a.service
}

// TelegramRunOptions builds the registry, routes and middlewares for the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	h := NewHandlers(a.service, a.cfg.Telegram.AdminID)

	reg := coretelegram.NewRegistry()
	if err := h.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("bot: register handlers: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: h.AdminRejected,
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		UnknownCommand: h.UnknownCommand,
		UnknownMedia:   h.TextOnly,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, h.RateLimited),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if n, err := a.service.Stats(ctx); err == nil {
				attrs = append(attrs, slog.Int("count", n))
			}
			if rt.Dispatcher != nil {
				attrs = append(attrs,
					slog.Uint64("messages", rt.Dispatcher.SentCount()),
					slog.Uint64("send_failures", rt.Dispatcher.ErrorCount()),
				)
			}
			logger.Info(ctx, "app", "summary", attrs...)
			return nil
		},
	}, nil
}

// Close releases database and cache connections.
func (a *App) Close() error {
	return a.infra.Close()
}
