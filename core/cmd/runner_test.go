package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coretelegram "github.com/m3rciful/quizbot/core/telegram"
)

type testApp struct {
	started, stopped, closed bool
}

func (a *testApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:  &coreconfig.Config{},
		OnStart: func(context.Context, coretelegram.Runtime) error { a.started = true; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { a.stopped = true; return nil },
	}, nil
}

func (a *testApp) Close() error {
	a.closed = true
	return nil
}

func TestRunLifecycle(t *testing.T) {
	t.Setenv("QUIZBOT_TEST_CONFIG", "")
	app := &testApp{}
	var loadedFrom string

	err := Run(Options{
		ConfigEnvVar:      "QUIZBOT_TEST_CONFIG",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedFrom = path
			return &coreconfig.Config{}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "configs/config.yaml", loadedFrom)
	assert.True(t, app.started)
	assert.True(t, app.stopped)
	assert.True(t, app.closed)
}

func TestRunErrors(t *testing.T) {
	assert.Error(t, Run(Options{}))

	t.Setenv("QUIZBOT_TEST_CONFIG", "/etc/quiz.yaml")
	err := Run(Options{
		ConfigEnvVar: "QUIZBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			assert.Equal(t, "/etc/quiz.yaml", path)
			return nil, errors.New("missing")
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	assert.ErrorContains(t, err, "failed to load config")

	err = Run(Options{
		ConfigEnvVar: "QUIZBOT_TEST_CONFIG",
		LoadConfig:   func(string) (ConfigCarrier, error) { return &coreconfig.Config{}, nil },
		Bootstrap:    func(ConfigCarrier) (TelegramApp, error) { return nil, errors.New("db down") },
	})
	assert.ErrorContains(t, err, "bootstrap failed")
}

func TestConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	_, err := configPath(Options{})
	assert.ErrorContains(t, err, "CONFIG_PATH")

	t.Setenv("CONFIG_PATH", "/srv/quiz.yaml")
	p, err := configPath(Options{DefaultConfigPath: "configs/config.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/quiz.yaml", p)
}

func TestLifecycleLogsKeepHookErrors(t *testing.T) {
	boom := errors.New("boom")
	opts := coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { return boom },
	}
	withLifecycleLogs(&opts, time.Now())
	assert.ErrorIs(t, opts.OnStart(context.Background(), coretelegram.Runtime{}), boom)
	assert.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
}
