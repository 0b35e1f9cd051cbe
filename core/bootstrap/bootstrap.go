// Package bootstrap prepares shared infrastructure before the bot starts.
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/cache"
	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/core/logger"
)

// Options control the bootstrap pipeline. Database and Redis are optional;
// a nil section means the backend is not used. Nil funcs take the package defaults.
type Options struct {
	Config   *coreconfig.Config
	Database *coredatabase.Config
	Redis    *cache.Config

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config) error
	ConnectRedis func(cache.Config) (*redis.Client, error)
}

func (o *Options) fill() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	if o.ConnectRedis == nil {
		o.ConnectRedis = cache.Connect
	}
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases every opened connection.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	return errors.Join(errs...)
}

// Run initializes the logger, then connects and migrates the configured backends.
// On failure everything opened so far is closed.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	opts.fill()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	for _, step := range []func(*Options, *Result) error{openDatabase, openRedis} {
		if err := step(&opts, res); err != nil {
			_ = res.Close()
			return nil, err
		}
	}
	return res, nil
}

func openDatabase(opts *Options, res *Result) error {
	if opts.Database == nil {
		return nil
	}
	db, err := opts.Connect(*opts.Database)
	if err != nil {
		return fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res.DB = db
	if err := opts.Migrate(*opts.Database); err != nil {
		return fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return nil
}

func openRedis(opts *Options, res *Result) error {
	if opts.Redis == nil {
		return nil
	}
	client, err := opts.ConnectRedis(*opts.Redis)
	if err != nil {
		return fmt.Errorf("bootstrap: redis initialization failed: %w", err)
	}
	res.Redis = client
	return nil
}
