package app

import (
	"context"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/nfl-analytics/external/nflverse"
	"github.com/riskibarqy/nfl-analytics/internal/config"
	"github.com/riskibarqy/nfl-analytics/internal/infrastructure/repository/warehouse"
	"github.com/riskibarqy/nfl-analytics/internal/infrastructure/spreadsheet"
	"github.com/riskibarqy/nfl-analytics/internal/observability"
	"github.com/riskibarqy/nfl-analytics/internal/platform/cache"
	idgen "github.com/riskibarqy/nfl-analytics/internal/platform/id"
	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
	"github.com/riskibarqy/nfl-analytics/internal/platform/resilience"
	"github.com/riskibarqy/nfl-analytics/internal/platform/typeresolver"
	"github.com/riskibarqy/nfl-analytics/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

// App holds the wired services behind every CLI command.
type App struct {
	Config     config.Config
	Logger     *logging.Logger
	DB         *sqlx.DB
	Metrics    *observability.Metrics
	Tables     *warehouse.TableRepository
	Ledger     *usecase.RefreshLedger
	Extraction *usecase.ExtractionService
	ECR        *usecase.ECRService
	Quality    *usecase.QualityService
}

// New opens the store named by cfg.DBPath, makes sure the ledger table exists and
// builds the services on top of it.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	refreshLogRepo := warehouse.NewRefreshLogRepository(db)
	if err := refreshLogRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare refresh ledger: %w", err)
	}

	resolver, err := typeresolver.Default(logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load type rules: %w", err)
	}

	tables := warehouse.NewTableRepository(
		db,
		resolver,
		warehouse.NewSchemaRegistry(db),
		logger,
		warehouse.WithBatchRows(cfg.RefreshBatchSize),
	)
	inspect := warehouse.NewInspectRepository(db)
	metrics := observability.NewMetrics()
	ledger := usecase.NewRefreshLedger(refreshLogRepo, logger)

	provider := nflverse.NewClient(nflverse.ClientConfig{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.APITimeout,
		MaxRetries:    cfg.APIRetries,
		RatePerSecond: cfg.APIRatePerSecond,
		Logger:        logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.APICircuitEnabled,
			FailureThreshold: cfg.APICircuitFailureCount,
			OpenTimeout:      cfg.APICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.APICircuitHalfOpenMaxReq,
		},
		Cache: cache.NewStore(0),
	})

	extraction := usecase.NewExtractionService(
		provider,
		tables,
		ledger,
		metrics,
		idgen.NewUUIDGenerator(),
		logger,
		usecase.ExtractionConfig{DefaultWorkers: cfg.MaxWorkers},
	)
	ecrService := usecase.NewECRService(
		usecase.ECRConfig{
			DataDir:           cfg.ECRDataDir,
			FileGlob:          cfg.ECRFileGlob,
			ParseWorkers:      cfg.ECRParseWorkers,
			HeaderRepairYears: cfg.ECRHeaderRepairYears,
		},
		spreadsheet.NewReader(logger),
		tables,
		inspect,
		ledger,
		metrics,
		logger,
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Metrics:    metrics,
		Tables:     tables,
		Ledger:     ledger,
		Extraction: extraction,
		ECR:        ecrService,
		Quality:    usecase.NewQualityService(inspect, logger),
	}, nil
}

// PushMetrics sends this run's ingestion metrics when a Pushgateway is configured.
func (a *App) PushMetrics(ctx context.Context) {
	if err := a.Metrics.Push(ctx, a.Config.PushgatewayURL, a.Config.MetricsJob); err != nil {
		a.Logger.WarnContext(ctx, "push ingestion metrics failed", "error", err)
	}
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func openStore(target string) (*sqlx.DB, error) {
	driver := storeDriver(target)
	dsn := target
	if driver == driverDuckDB {
		dsn = duckDBPath(target)
	}

	db, err := otelsqlx.Open(driver, dsn,
		otelsql.WithAttributes(attribute.String("db.system", driver)),
		otelsql.WithDBName(dbNameFromURL(target)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s store: %w", driver, err)
	}
	otelsql.ReportDBStatsMetrics(db.DB, otelsql.WithAttributes(attribute.String("db.system", driver)))
	return db, nil
}
