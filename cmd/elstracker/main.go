package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/elstracker/elstracker/internal/config"
	"github.com/elstracker/elstracker/internal/database"
	"github.com/elstracker/elstracker/internal/database/migrations"
	"github.com/elstracker/elstracker/internal/seeder"
	"github.com/elstracker/elstracker/internal/server"
)

// version information - to be set during build time
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "none"
)

func main() {
	// load .env file automatically
	err := godotenv.Load()
	if err != nil {
		log.Println("no .env file found (continuing with system environment)")
	}

	cfg := config.ParseConfigFromEnv()

	// detect the log level
	logLevel := slog.LevelInfo
	if err = logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level: '%s'\n", cfg.LogLevel)
		os.Exit(1)
	}

	// setup our logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// set the maxprocs
	if _, err = maxprocs.Set(maxprocs.Logger(func(message string, args ...any) {
		logger.Info(fmt.Sprintf(message, args...))
	})); err != nil {
		logger.Error("could not set GOMAXPROCS", "error", err)
	}

	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:    "elstracker",
		Usage:   "Track game accounts and characters",
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit),
		Commands: []*cli.Command{
			serveCommand(&cfg, logger),
			migrateCommand(&cfg, logger),
			seedCommand(&cfg, logger),
		},
	}

	if err = root.Run(context.Background(), args); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serveCommand(cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(_ context.Context, _ *cli.Command) error {
			logger = logger.With("role", "serve")
			logger.Info("starting elstracker...", "version", Version)
			return server.Run(cfg, logger)
		},
	}
}

func migrateCommand(cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply (or roll back) the database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "rollback", Usage: "roll back the last migration group"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger = logger.With("role", "migrate")

			db, err := database.Open(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			//nolint:errcheck // process exits right after
			defer db.Close()

			if c.Bool("rollback") {
				return migrations.Rollback(ctx, db.BunDB(), logger)
			}

			return migrations.Migrate(ctx, db.BunDB(), logger)
		},
	}
}

func seedCommand(cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load servers, PvP ranks, classes and specializations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "static-only", Usage: "only seed servers and PvP ranks"},
			&cli.StringFlag{Name: "source-url", Value: cfg.SeederSourceURL, Usage: "page scraped for the class trees"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger = logger.With("role", "seed")

			db, err := database.Open(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			//nolint:errcheck // process exits right after
			defer db.Close()

			if err = migrations.Migrate(ctx, db.BunDB(), logger); err != nil {
				return fmt.Errorf("failed to run database migrations: %w", err)
			}

			source := seeder.NewWikiSource(cfg)
			source.URL = c.String("source-url")

			s := seeder.New(db, source, logger.With("component", "seeder"))
			if c.Bool("static-only") {
				_, err = s.SeedStatic(ctx)
			} else {
				_, err = s.Run(ctx)
			}

			return err
		},
	}
}
