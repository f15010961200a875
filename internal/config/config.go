package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/nfl-analytics/internal/platform/logging"
)

// Config stores runtime configuration for the ingestion engine.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	DBPath                     string
	LogLevel                   logging.Level
	LogFile                    string
	MaxWorkers                 int
	DefaultSeasons             []int
	RefreshBatchSize           int
	APIBaseURL                 string
	APITimeout                 time.Duration
	APIRetries                 int
	APIRatePerSecond           float64
	APICircuitEnabled          bool
	APICircuitFailureCount     int
	APICircuitOpenTimeout      time.Duration
	APICircuitHalfOpenMaxReq   int
	ECRDataDir                 string
	ECRFileGlob                string
	ECRParseWorkers            int
	ECRHeaderRepairYears       []int
	PushgatewayURL             string
	MetricsJob                 string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	maxWorkers, err := getEnvAsInt("NFL_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_MAX_WORKERS: %w", err)
	}
	if maxWorkers < 1 {
		return Config{}, fmt.Errorf("NFL_MAX_WORKERS must be >= 1")
	}

	defaultSeasons, err := parseIntList(getEnv("NFL_DEFAULT_SEASONS", "2023,2024"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_DEFAULT_SEASONS: %w", err)
	}
	if len(defaultSeasons) == 0 {
		return Config{}, fmt.Errorf("NFL_DEFAULT_SEASONS cannot be empty")
	}

	refreshBatchSize, err := getEnvAsInt("NFL_REFRESH_BATCH_SIZE", 1000)
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_REFRESH_BATCH_SIZE: %w", err)
	}
	if refreshBatchSize <= 0 {
		return Config{}, fmt.Errorf("NFL_REFRESH_BATCH_SIZE must be > 0")
	}

	apiTimeout, err := parseSeconds(getEnv("NFL_API_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_API_TIMEOUT: %w", err)
	}
	if apiTimeout <= 0 {
		return Config{}, fmt.Errorf("NFL_API_TIMEOUT must be > 0")
	}
	apiRetries, err := getEnvAsInt("NFL_API_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_API_RETRIES: %w", err)
	}
	if apiRetries < 0 {
		return Config{}, fmt.Errorf("NFL_API_RETRIES must be >= 0")
	}
	apiRatePerSecond, err := strconv.ParseFloat(strings.TrimSpace(getEnv("NFL_API_RATE_PER_SECOND", "0")), 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_API_RATE_PER_SECOND: %w", err)
	}
	if apiRatePerSecond < 0 {
		return Config{}, fmt.Errorf("NFL_API_RATE_PER_SECOND must be >= 0")
	}

	apiCircuitEnabled, err := strconv.ParseBool(getEnv("NFL_API_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_API_CIRCUIT_ENABLED: %w", err)
	}
	apiCircuitFailureCount, err := getEnvAsInt("NFL_API_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_API_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if apiCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("NFL_API_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	apiCircuitOpenTimeout, err := time.ParseDuration(getEnv("NFL_API_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_API_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if apiCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("NFL_API_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	apiCircuitHalfOpenMaxReq, err := getEnvAsInt("NFL_API_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_API_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if apiCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("NFL_API_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	ecrParseWorkers, err := getEnvAsInt("NFL_ECR_PARSE_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_ECR_PARSE_WORKERS: %w", err)
	}
	if ecrParseWorkers < 1 {
		return Config{}, fmt.Errorf("NFL_ECR_PARSE_WORKERS must be >= 1")
	}
	ecrHeaderRepairYears, err := parseIntList(getEnv("NFL_ECR_HEADER_REPAIR_YEARS", "2017"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NFL_ECR_HEADER_REPAIR_YEARS: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "nfl-analytics"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		DBPath:                     strings.TrimSpace(getEnv("NFL_DB_PATH", "nfl_analytics.duckdb")),
		LogLevel:                   parseLogLevel(getEnv("NFL_LOG_LEVEL", "info")),
		LogFile:                    strings.TrimSpace(getEnv("NFL_LOG_FILE", "")),
		MaxWorkers:                 maxWorkers,
		DefaultSeasons:             defaultSeasons,
		RefreshBatchSize:           refreshBatchSize,
		APIBaseURL:                 strings.TrimRight(strings.TrimSpace(getEnv("NFL_API_BASE_URL", "https://github.com/nflverse/nflverse-data/releases/download")), "/"),
		APITimeout:                 apiTimeout,
		APIRetries:                 apiRetries,
		APIRatePerSecond:           apiRatePerSecond,
		APICircuitEnabled:          apiCircuitEnabled,
		APICircuitFailureCount:     apiCircuitFailureCount,
		APICircuitOpenTimeout:      apiCircuitOpenTimeout,
		APICircuitHalfOpenMaxReq:   apiCircuitHalfOpenMaxReq,
		ECRDataDir:                 strings.TrimSpace(getEnv("NFL_ECR_DATA_DIR", "data/raw_ecr")),
		ECRFileGlob:                strings.TrimSpace(getEnv("NFL_ECR_FILE_GLOB", "FantasyPros_*.xl*")),
		ECRParseWorkers:            ecrParseWorkers,
		ECRHeaderRepairYears:       ecrHeaderRepairYears,
		PushgatewayURL:             strings.TrimSpace(getEnv("NFL_PUSHGATEWAY_URL", "")),
		MetricsJob:                 strings.TrimSpace(getEnv("NFL_METRICS_JOB", "nfl_ingest")),
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("NFL_DB_PATH cannot be empty")
	}
	if cfg.PushgatewayURL != "" && cfg.MetricsJob == "" {
		return Config{}, fmt.Errorf("NFL_METRICS_JOB cannot be empty when NFL_PUSHGATEWAY_URL is set")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error", "critical":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseIntList(raw string) ([]int, error) {
	items := splitCSV(raw)
	out := make([]int, 0, len(items))
	for _, item := range items {
		value, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", item, err)
		}
		out = append(out, value)
	}
	return out, nil
}

// parseSeconds accepts a Go duration or a bare number of seconds.
func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
