package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/stockbot/core/logger"
)

// Connect opens the catalog database, configures the pool and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	took := time.Since(start)
	if err != nil {
		logger.DB.Error("db connect failed",
			slog.String("event", "db.connect"),
			slog.String("host", cfg.Host),
			slog.String("port", cfg.Port),
			slog.String("db", cfg.Name),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections / 2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return db, nil
}

// WaitForPostgres polls the server until it accepts connections or the timeout elapses.
func WaitForPostgres(ctx context.Context, dsn string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; ; attempt++ {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			err = db.PingContext(ctx)
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		lastErr = err
		logger.DB.Debug("db not ready",
			slog.String("event", "db.wait"),
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", lastErr)
		case <-time.After(2 * time.Second):
		}
	}
}
