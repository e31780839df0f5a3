package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Dataset   DatasetConfig
	Dashboard DashboardConfig
	Logger    LoggerConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatasetConfig struct {
	Source      string
	CSVFile     string
	SnapshotDir string
	SQLitePath  string
	PostgresDSN string
	LoadTimeout time.Duration
}

type DashboardConfig struct {
	TopLocations   int
	TopCategories  int
	Currency       string
	CurrencyLocale string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first; variables already set take precedence.
// Malformed values are reported together with any failed validation.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var env envReader
	cfg := &Config{
		Server: ServerConfig{
			Host:            env.String("SERVER_HOST", "localhost"),
			Port:            env.Int("SERVER_PORT", 8084),
			ReadTimeout:     env.Duration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    env.Duration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     env.Duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.Duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			Source:      strings.ToLower(env.String("DATASET_SOURCE", SourceCSV)),
			CSVFile:     env.String("CSV_FILE", "dashboard/main_data.csv"),
			SnapshotDir: env.String("SNAPSHOT_DIR", ".cache"),
			SQLitePath:  env.String("SQLITE_PATH", "data/orders.db"),
			PostgresDSN: env.String("POSTGRES_DSN", ""),
			LoadTimeout: env.Duration("DATASET_LOAD_TIMEOUT", 30*time.Second),
		},
		Dashboard: DashboardConfig{
			TopLocations:   env.Int("TOP_LOCATIONS", 4),
			TopCategories:  env.Int("TOP_CATEGORIES", 10),
			Currency:       env.String("CURRENCY", "BRL"),
			CurrencyLocale: env.String("CURRENCY_LOCALE", "es-CO"),
		},
		Logger: LoggerConfig{
			Level:  strings.ToLower(env.String("LOG_LEVEL", "info")),
			Format: strings.ToLower(env.String("LOG_FORMAT", "json")),
		},
		Security: SecurityConfig{
			EnableRateLimit: env.Bool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    env.Int("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  env.Int("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  env.List("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  env.List("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := errors.Join(append(env.errs, cfg.validate()...)...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port >= 1 && c.Server.Port <= 65535, "server port must be between 1 and 65535, got %d", c.Server.Port)
	check(c.Server.ReadTimeout > 0, "server read timeout must be positive")
	check(c.Server.WriteTimeout > 0, "server write timeout must be positive")

	switch c.Dataset.Source {
	case SourceCSV:
		check(c.Dataset.CSVFile != "", "CSV_FILE cannot be empty")
	case SourceSQLite:
		check(c.Dataset.SQLitePath != "", "SQLITE_PATH cannot be empty when DATASET_SOURCE=sqlite")
	case SourcePostgres:
		check(c.Dataset.PostgresDSN != "", "POSTGRES_DSN cannot be empty when DATASET_SOURCE=postgres")
	default:
		check(false, "invalid dataset source %q, must be one of: %s", c.Dataset.Source, strings.Join(sources, ", "))
	}
	check(c.Dataset.LoadTimeout > 0, "dataset load timeout must be positive")

	check(c.Dashboard.TopLocations > 0 && c.Dashboard.TopCategories > 0, "top-N limits must be positive")

	check(slices.Contains(logLevels, c.Logger.Level), "invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(logLevels, ", "))
	check(slices.Contains(logFormats, c.Logger.Format), "invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(logFormats, ", "))

	check(c.Security.RateLimitRPS > 0, "rate limit RPS must be positive")
	check(c.Security.RateLimitBurst > 0, "rate limit burst must be positive")

	return errs
}

var (
	sources    = []string{SourceCSV, SourceSQLite, SourcePostgres}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// envReader looks up variables, falling back to defaults for unset ones and
// remembering every value that failed to parse.
type envReader struct {
	errs []error
}

func lookup[T any](r *envReader, key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (r *envReader) String(key, def string) string {
	return lookup(r, key, def, func(s string) (string, error) { return s, nil })
}

func (r *envReader) Int(key string, def int) int {
	return lookup(r, key, def, strconv.Atoi)
}

func (r *envReader) Bool(key string, def bool) bool {
	return lookup(r, key, def, strconv.ParseBool)
}

func (r *envReader) Duration(key string, def time.Duration) time.Duration {
	return lookup(r, key, def, time.ParseDuration)
}

func (r *envReader) List(key string, def []string) []string {
	return lookup(r, key, def, func(s string) ([]string, error) {
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return slices.DeleteFunc(parts, func(p string) bool { return p == "" }), nil
	})
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
