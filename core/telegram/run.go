package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/quizbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, wires middlewares and routes, and runs it until ctx is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	client := BuildHTTPClient(HTTPOptions{
		Timeout:    httpTimeout(cfg.Telegram),
		MaxRetries: cfg.Telegram.HTTPRetries,
	})
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  client,
		OnError: onError(ctx),
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, poller, cfg.Telegram.LongPollTimeoutSeconds, logger.Took(start))

	if _, polling := poller.(*tele.LongPoller); polling && !opts.DisableWebhookCleanup {
		if err := deleteWebhook(ctx, client, apiBaseURL, cfg.Telegram.Token); err != nil {
			logger.Warn(ctx, "tg", "delete_webhook", slog.String("status", "fail"), slog.String("err", err.Error()))
		} else {
			logger.Debug(ctx, "tg", "delete_webhook", slog.String("status", "ok"))
		}
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	InitBotCommands(bot, reg)

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	if !opts.DisableHelperDispatcher {
		tghelpers.SetDispatcher(dispatcher)
		defer tghelpers.SetDispatcher(nil)
	}
	defer dispatcher.Close()

	rt := Runtime{Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	return runErr
}

// serve runs the bot until it stops on its own or ctx is cancelled.
// Cancellation is a normal shutdown and yields nil.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-done:
		return nil
	}
}

func onError(ctx context.Context) func(error, tele.Context) {
	return func(err error, c tele.Context) {
		errCtx := ctx
		if c != nil {
			errCtx = tghelpers.BuildContext(c)
		}
		logger.Error(errCtx, "tg", "handler.error",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

func logMode(ctx context.Context, poller tele.Poller, pollTimeout int, took time.Duration) {
	attrs := []slog.Attr{slog.Duration("duration", took)}
	if wh, ok := poller.(*tele.Webhook); ok {
		attrs = append(attrs,
			slog.String("mode", RunModeWebhook),
			slog.String("listen", wh.Listen),
			slog.String("public_url", wh.Endpoint.PublicURL),
		)
	} else {
		attrs = append(attrs,
			slog.String("mode", RunModeLongpoll),
			slog.Int("timeout_seconds", pollTimeoutSeconds(pollTimeout)),
		)
	}
	logger.Info(ctx, "tg", "mode", attrs...)
}

// httpTimeout keeps the client deadline above the long polling timeout so
// getUpdates is not cut off while it waits for updates.
func httpTimeout(cfg coreconfig.TelegramConfig) time.Duration {
	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	floor := time.Duration(pollTimeoutSeconds(cfg.LongPollTimeoutSeconds)+10) * time.Second
	return max(timeout, floor)
}
