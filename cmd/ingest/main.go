// Command ingest is the NFL analytics ingestion CLI.
//
// Usage:
//
//	nfl-ingest extract 2022 2023 2024 --workers 4
//	nfl-ingest refresh-season 2024 --data-types weekly_stats,injuries
//	nfl-ingest refresh-week 2024 5
//	nfl-ingest refresh-raw-ecr
//	nfl-ingest validate
//	nfl-ingest query --sql "SELECT * FROM weekly_stats WHERE season = 2024 LIMIT 10" --output top.csv
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/riskibarqy/nfl-analytics/internal/app"
	"github.com/riskibarqy/nfl-analytics/internal/config"
	"github.com/riskibarqy/nfl-analytics/internal/observability"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
)

var cliTracer = otel.Tracer("nfl-analytics/cmd/ingest")

// session is the per-invocation state built in PersistentPreRunE.
type session struct {
	database string
	app      *app.App
	logger   *logging.Logger
	out      *message.Printer
	closers  []func(context.Context) error
}

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &session{out: message.NewPrinter(language.English)}
	root := rootCmd(s)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:          "nfl-ingest",
		Short:        "NFL analytics data ingestion CLI",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.close(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&s.database, "database", "d", "", "Database file or postgres URL (default: NFL_DB_PATH)")

	root.AddCommand(extractCmd(s))
	root.AddCommand(refreshSeasonCmd(s))
	root.AddCommand(refreshWeekCmd(s))
	root.AddCommand(refreshRawECRCmd(s))
	root.AddCommand(validateCmd(s))
	root.AddCommand(schemaCmd(s))
	root.AddCommand(queryCmd(s))
	root.AddCommand(lastRefreshCmd(s))
	root.AddCommand(historyCmd(s))
	root.AddCommand(createIndexesCmd(s))
	return root
}

func (s *session) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.database != "" {
		cfg.DBPath = s.database
	}

	logger, err := logging.NewJSON(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logging.SetDefault(logger)
	s.logger = logger

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	s.closers = append(s.closers, shutdownTracing)

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	s.closers = append(s.closers, func(context.Context) error { return stopProfiler() })

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	s.app = a
	return nil
}

func (s *session) close(ctx context.Context) error {
	if s.logger == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if s.app != nil {
		s.app.PushMetrics(shutdownCtx)
		if err := s.app.Close(); err != nil {
			s.logger.Warn("close database failed", "error", err)
		}
		s.app = nil
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](shutdownCtx); err != nil {
			s.logger.Warn("shutdown telemetry failed", "error", err)
		}
	}
	s.closers = nil
	_ = s.logger.Sync()
	return nil
}

// run wraps a command body. cobra skips PersistentPostRunE when RunE fails, so
// a failed command releases its resources here.
func (s *session) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := cliTracer.Start(ctx, "cli."+op)
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if err != nil {
		s.logger.ErrorContext(ctx, "command failed", "command", op, "error", err)
		_ = s.close(ctx)
	}
	return err
}
