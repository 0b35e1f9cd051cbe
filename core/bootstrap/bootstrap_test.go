package bootstrap

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/quizbot/core/cache"
	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	assert.Error(t, err)
}

func TestRunWithoutBackends(t *testing.T) {
	res, err := Run(Options{Config: &coreconfig.Config{}, LoggerInit: noLogger})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.Nil(t, res.Redis)
	assert.NoError(t, res.Close())
}

func TestRunLoggerFailure(t *testing.T) {
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("no dir") },
	})
	assert.ErrorContains(t, err, "logger init failed")
}

func TestRunDatabaseAndMigrations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	var migrated coredatabase.Config
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Name: "quiz", MigrationsDir: "migrations"},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.NewDb(db, "postgres"), nil
		},
		Migrate: func(cfg coredatabase.Config) error {
			migrated = cfg
			return nil
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.DB)
	assert.Equal(t, "quiz", migrated.Name)

	require.NoError(t, res.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationFailureClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	_, err = Run(Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.NewDb(db, "postgres"), nil
		},
		Migrate: func(coredatabase.Config) error { return errors.New("dirty") },
	})
	assert.ErrorContains(t, err, "migrations failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRedis(t *testing.T) {
	client, _ := redismock.NewClientMock()

	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Redis:      &cache.Config{Addr: "localhost:6379"},
		LoggerInit: noLogger,
		ConnectRedis: func(cfg cache.Config) (*redis.Client, error) {
			assert.Equal(t, "localhost:6379", cfg.Addr)
			return client, nil
		},
	})
	require.NoError(t, err)
	assert.Same(t, client, res.Redis)

	_, err = Run(Options{
		Config:       &coreconfig.Config{},
		Redis:        &cache.Config{},
		LoggerInit:   noLogger,
		ConnectRedis: func(cache.Config) (*redis.Client, error) { return nil, errors.New("refused") },
	})
	assert.ErrorContains(t, err, "redis initialization failed")
}
