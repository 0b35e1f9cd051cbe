package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/quizbot/core/logger"
)

const (
	migrateComponent = "db.migrate"
	readyTimeout     = 30 * time.Second
	readyInterval    = 2 * time.Second
)

// RunMigrations applies the up migrations in cfg.MigrationsDir.
func RunMigrations(cfg Config) error {
	return MigrateContext(context.Background(), cfg)
}

// MigrateContext waits for the server, then migrates the schema to the latest version.
// An already current schema is not an error.
func MigrateContext(ctx context.Context, cfg Config) error {
	if err := WaitForPostgres(ctx, cfg.URL(), readyTimeout, readyInterval); err != nil {
		logger.Error(ctx, migrateComponent, "wait",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("database not ready: %w", err)
	}

	dir, err := resolveDir(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	files := listMigrationFiles(dir)
	if logger.ShouldSampleDebug() {
		preview, collapsed := logger.SummarizeStrings(files, 6)
		logger.Debug(ctx, migrateComponent, "resolve",
			slog.String("path", dir),
			slog.Int("count", len(files)),
			slog.String("payload", preview),
			slog.Bool("collapsed", collapsed),
		)
	}

	m, err := migrate.New("file://"+dir, cfg.URL())
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	return up(ctx, m, files)
}

func up(ctx context.Context, m *migrate.Migrate, files []string) error {
	before, _, _ := m.Version()
	start := time.Now()

	err := m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	}
	if err != nil {
		logger.Error(ctx, migrateComponent, "apply",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, _, _ := m.Version()
	logger.Info(ctx, migrateComponent, "summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(before)),
		slog.Uint64("to_ver", uint64(after)),
		slog.Int("count", countApplied(files, uint64(before), uint64(after))),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func resolveDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return abs, nil
}

// listMigrationFiles returns the sorted *.up.sql names in dir, or nil when dir is unreadable.
func listMigrationFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	slices.Sort(ups)
	return ups
}

func parseVersion(name string) uint64 {
	digits, _, _ := strings.Cut(name, "_")
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// countApplied counts files whose version lies in (from, to].
func countApplied(files []string, from, to uint64) int {
	n := 0
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			n++
		}
	}
	return n
}
