package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/stockbot/core/logger"
)

// RunMigrations waits for the server and applies every pending up migration
// found in cfg.MigrationsDir.
func RunMigrations(ctx context.Context, cfg Config) error {
	if err := WaitForPostgres(ctx, cfg.DSN(), 30*time.Second); err != nil {
		logger.MIG.Error("db not ready",
			slog.String("event", "db.migrate"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("database not ready: %w", err)
	}

	dir, err := resolveMigrationsDir(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	files := upFiles(dir)
	preview, truncated := previewFiles(files, 6)
	logger.MIG.Debug("migrations resolved",
		slog.String("event", "resolve"),
		slog.String("path", dir),
		slog.Int("count", len(files)),
		slog.String("payload", preview),
		slog.Bool("collapsed", truncated),
	)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.URL())
	if err != nil {
		logger.MIG.Error("init failed",
			slog.String("event", "db.migrate"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.MIG.Warn("close failed",
				slog.String("event", "db.migrate"),
				slog.Any("err", errors.Join(srcErr, dbErr)),
			)
		}
	}()

	fromVer, dirty, _ := m.Version()
	if dirty {
		return fmt.Errorf("database schema is dirty at version %d; fix it manually", fromVer)
	}

	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	applied := appliedBetween(files, uint64(fromVer), uint64(toVer))
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("count", len(applied)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}

func resolveMigrationsDir(dir string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(cwd, dir), nil
}

func upFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// previewFiles joins at most limit file names and reports whether any were left out.
func previewFiles(files []string, limit int) (string, bool) {
	if len(files) <= limit {
		return strings.Join(files, ", "), false
	}
	return strings.Join(files[:limit], ", ") + ", ...", true
}

func migrationVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := migrationVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
