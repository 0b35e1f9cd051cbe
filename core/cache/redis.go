// Package cache connects the bot to Redis.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/logger"
)

const component = "cache.redis"

// Config holds Redis connection settings. URL wins over the discrete fields when set.
type Config struct {
	URL      string `yaml:"url" envconfig:"REDIS_URL"`
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// Options converts the config into go-redis client options.
func (c Config) Options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		return opts, nil
	}
	if c.Addr == "" {
		return nil, fmt.Errorf("redis.addr or redis.url is required")
	}
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}, nil
}

// Connect opens a Redis client and verifies it with PING.
func Connect(cfg Config) (*redis.Client, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error(ctx, component, "redis.connect",
			slog.String("status", "fail"),
			slog.String("host", opts.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info(ctx, component, "redis.connect",
		slog.String("status", "ok"),
		slog.String("host", opts.Addr),
		slog.Int("db", opts.DB),
		slog.Duration("duration", logger.Took(start)),
	)
	return client, nil
}
