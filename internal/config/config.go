package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

const (
	LedgerSourceCSV      = "csv"
	LedgerSourceSQLite   = "sqlite"
	LedgerSourcePostgres = "postgres"
	LedgerSourceMemory   = "memory"
)

const (
	OutputFormatJSON = "json"
	OutputFormatCSV  = "csv"
)

// Config stores runtime configuration for the predictor.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	LedgerSource               string
	LedgerPath                 string
	LedgerFromSeason           int
	LedgerCacheEnabled         bool
	LedgerCacheTTL             time.Duration
	DBURL                      string
	DBDisablePreparedBinary    bool
	OutputFormat               string
	OutputPath                 string
	OutputPersist              bool
	PriceFeedURL               string
	PriceFeedToken             string
	PriceFeedTimeout           time.Duration
	RacedataBaseURL            string
	RacedataTimeout            time.Duration
	RacedataMaxConns           int
	FetchWorkers               int
	FetchMinDelay              time.Duration
	FetchRetryAttempts         int
	FetchRetryBaseDelay        time.Duration
	FetchRetryMaxDelay         time.Duration
	FetchCircuitEnabled        bool
	FetchCircuitFailureCount   int
	FetchCircuitOpenTimeout    time.Duration
	FetchCircuitHalfOpenMaxReq int
	IdentityMatchThreshold     int
	ScoringSeasonCutoff        int
	NamesLastFirst             bool
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	MetricsEnabled             bool
	MetricsPushgatewayURL      string
	MetricsJob                 string
	LogLevel                   logging.Level
	LogFormat                  logging.Format
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "fantasy-skiing"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		LedgerPath:                 strings.TrimSpace(getEnv("LEDGER_PATH", "")),
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		OutputPath:                 strings.TrimSpace(getEnv("OUTPUT_PATH", "")),
		PriceFeedURL:               strings.TrimSpace(getEnv("PRICE_FEED_URL", "")),
		PriceFeedToken:             getEnv("PRICE_FEED_TOKEN", ""),
		RacedataBaseURL:            strings.TrimSpace(getEnv("RACEDATA_BASE_URL", "")),
		PyroscopeAppName:           getEnv("PYROSCOPE_APP_NAME", "fantasy-skiing"),
		PyroscopeAuthToken:         getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeBasicAuthUser:     getEnv("PYROSCOPE_BASIC_AUTH_USER", ""),
		PyroscopeBasicAuthPassword: getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""),
		MetricsJob:                 getEnv("METRICS_JOB", "fantasy_skiing_predict"),
	}

	ledgerSource, err := parseLedgerSource(getEnv("LEDGER_SOURCE", LedgerSourceCSV))
	if err != nil {
		return Config{}, err
	}
	cfg.LedgerSource = ledgerSource
	switch ledgerSource {
	case LedgerSourceCSV, LedgerSourceSQLite:
		if cfg.LedgerPath == "" {
			return Config{}, fmt.Errorf("LEDGER_PATH is required when LEDGER_SOURCE=%s", ledgerSource)
		}
	case LedgerSourcePostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required when LEDGER_SOURCE=%s", ledgerSource)
		}
	}

	cfg.LedgerFromSeason, err = getEnvAsInt("LEDGER_FROM_SEASON", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse LEDGER_FROM_SEASON: %w", err)
	}
	if cfg.LedgerFromSeason < 0 {
		return Config{}, fmt.Errorf("LEDGER_FROM_SEASON must be >= 0")
	}

	cfg.LedgerCacheEnabled, err = strconv.ParseBool(getEnv("LEDGER_CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEDGER_CACHE_ENABLED: %w", err)
	}
	cfg.LedgerCacheTTL, err = time.ParseDuration(getEnv("LEDGER_CACHE_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEDGER_CACHE_TTL: %w", err)
	}
	if cfg.LedgerCacheTTL <= 0 {
		return Config{}, fmt.Errorf("LEDGER_CACHE_TTL must be > 0")
	}

	cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg.OutputFormat, err = parseOutputFormat(getEnv("OUTPUT_FORMAT", OutputFormatJSON))
	if err != nil {
		return Config{}, err
	}
	cfg.OutputPersist, err = strconv.ParseBool(getEnv("OUTPUT_PERSIST", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OUTPUT_PERSIST: %w", err)
	}
	if cfg.OutputPersist && ledgerSource != LedgerSourcePostgres && ledgerSource != LedgerSourceSQLite {
		return Config{}, fmt.Errorf("OUTPUT_PERSIST=true requires LEDGER_SOURCE=%s or %s", LedgerSourcePostgres, LedgerSourceSQLite)
	}

	cfg.PriceFeedTimeout, err = time.ParseDuration(getEnv("PRICE_FEED_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PRICE_FEED_TIMEOUT: %w", err)
	}
	if cfg.PriceFeedTimeout <= 0 {
		return Config{}, fmt.Errorf("PRICE_FEED_TIMEOUT must be > 0")
	}

	cfg.RacedataTimeout, err = time.ParseDuration(getEnv("RACEDATA_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse RACEDATA_TIMEOUT: %w", err)
	}
	if cfg.RacedataTimeout <= 0 {
		return Config{}, fmt.Errorf("RACEDATA_TIMEOUT must be > 0")
	}
	cfg.RacedataMaxConns, err = getEnvAsInt("RACEDATA_MAX_CONNS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse RACEDATA_MAX_CONNS: %w", err)
	}
	if cfg.RacedataMaxConns < 1 {
		return Config{}, fmt.Errorf("RACEDATA_MAX_CONNS must be >= 1")
	}

	cfg.FetchWorkers, err = getEnvAsInt("FETCH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_WORKERS: %w", err)
	}
	if cfg.FetchWorkers < 1 {
		return Config{}, fmt.Errorf("FETCH_WORKERS must be >= 1")
	}
	cfg.FetchMinDelay, err = time.ParseDuration(getEnv("FETCH_MIN_DELAY", "500ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_MIN_DELAY: %w", err)
	}
	if cfg.FetchMinDelay < 0 {
		return Config{}, fmt.Errorf("FETCH_MIN_DELAY must be >= 0")
	}

	cfg.FetchRetryAttempts, err = getEnvAsInt("FETCH_RETRY_ATTEMPTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_RETRY_ATTEMPTS: %w", err)
	}
	if cfg.FetchRetryAttempts < 1 {
		return Config{}, fmt.Errorf("FETCH_RETRY_ATTEMPTS must be >= 1")
	}
	cfg.FetchRetryBaseDelay, err = time.ParseDuration(getEnv("FETCH_RETRY_BASE_DELAY", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_RETRY_BASE_DELAY: %w", err)
	}
	if cfg.FetchRetryBaseDelay <= 0 {
		return Config{}, fmt.Errorf("FETCH_RETRY_BASE_DELAY must be > 0")
	}
	cfg.FetchRetryMaxDelay, err = time.ParseDuration(getEnv("FETCH_RETRY_MAX_DELAY", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_RETRY_MAX_DELAY: %w", err)
	}
	if cfg.FetchRetryMaxDelay < cfg.FetchRetryBaseDelay {
		return Config{}, fmt.Errorf("FETCH_RETRY_MAX_DELAY must be >= FETCH_RETRY_BASE_DELAY")
	}

	cfg.FetchCircuitEnabled, err = strconv.ParseBool(getEnv("FETCH_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_CIRCUIT_ENABLED: %w", err)
	}
	cfg.FetchCircuitFailureCount, err = getEnvAsInt("FETCH_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.FetchCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("FETCH_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.FetchCircuitOpenTimeout, err = time.ParseDuration(getEnv("FETCH_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if cfg.FetchCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("FETCH_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cfg.FetchCircuitHalfOpenMaxReq, err = getEnvAsInt("FETCH_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FETCH_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.FetchCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("FETCH_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cfg.IdentityMatchThreshold, err = getEnvAsInt("IDENTITY_MATCH_THRESHOLD", 80)
	if err != nil {
		return Config{}, fmt.Errorf("parse IDENTITY_MATCH_THRESHOLD: %w", err)
	}
	if cfg.IdentityMatchThreshold < 1 || cfg.IdentityMatchThreshold > 100 {
		return Config{}, fmt.Errorf("IDENTITY_MATCH_THRESHOLD must be between 1 and 100")
	}
	cfg.ScoringSeasonCutoff, err = getEnvAsInt("SCORING_SEASON_CUTOFF", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCORING_SEASON_CUTOFF: %w", err)
	}
	if cfg.ScoringSeasonCutoff < 0 {
		return Config{}, fmt.Errorf("SCORING_SEASON_CUTOFF must be >= 0")
	}
	cfg.NamesLastFirst, err = strconv.ParseBool(getEnv("NAMES_LAST_FIRST", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NAMES_LAST_FIRST: %w", err)
	}

	cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	cfg.UptraceLogsEnabled, err = strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeUploadRate, err = time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if cfg.PyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg.MetricsEnabled, err = strconv.ParseBool(getEnv("METRICS_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}
	cfg.MetricsPushgatewayURL = strings.TrimSpace(getEnv("METRICS_PUSHGATEWAY_URL", ""))
	if cfg.MetricsEnabled && cfg.MetricsPushgatewayURL == "" {
		return Config{}, fmt.Errorf("METRICS_PUSHGATEWAY_URL is required when METRICS_ENABLED=true")
	}

	cfg.LogLevel = logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info"))
	cfg.LogFormat, err = logging.ParseFormat(getEnv("APP_LOG_FORMAT", string(logging.FormatJSON)))
	if err != nil {
		return Config{}, fmt.Errorf("invalid APP_LOG_FORMAT: %w", err)
	}

	return cfg, nil
}

func parseLedgerSource(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case LedgerSourceCSV, LedgerSourceSQLite, LedgerSourcePostgres, LedgerSourceMemory:
		return value, nil
	default:
		return "", fmt.Errorf("invalid LEDGER_SOURCE %q: valid values are %s, %s, %s, %s",
			v, LedgerSourceCSV, LedgerSourceSQLite, LedgerSourcePostgres, LedgerSourceMemory)
	}
}

// ParseOutputFormat is shared with the -format flag of cmd/predict.
func ParseOutputFormat(v string) (string, error) {
	return parseOutputFormat(v)
}

func parseOutputFormat(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case OutputFormatJSON, OutputFormatCSV:
		return value, nil
	default:
		return "", fmt.Errorf("invalid OUTPUT_FORMAT %q: valid values are %s, %s", v, OutputFormatJSON, OutputFormatCSV)
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
