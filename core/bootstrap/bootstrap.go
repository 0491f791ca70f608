package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/stockbot/core/config"
	coredatabase "github.com/m3rciful/stockbot/core/database"
	"github.com/m3rciful/stockbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error

	Modules Modules
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database, applies migrations
// and runs the configured seeders in order.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, opts.Database); err != nil {
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	for i, s := range opts.Modules.Seeders {
		start := time.Now()
		if err := s.Seed(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
		logger.Debug(ctx, "db.seed", "seed.module",
			slog.Int("index", i),
			slog.Duration("duration", logger.Took(start)),
		)
	}

	return &Result{DB: db}, nil
}
