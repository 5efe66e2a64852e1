package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Skotchmaster/snakeoil/internal/access"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	QuantityStrict  = "strict"
	QuantityLenient = "lenient"
)

type Config struct {
	ServerPort int    `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`
	CSRFEnabled  bool          `envconfig:"CSRF_ENABLED" default:"true"`

	AccessDeniedMode   string `envconfig:"ACCESS_DENIED_MODE" default:"redirect"`
	CartQuantityPolicy string `envconfig:"CART_QUANTITY_POLICY" default:"strict"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`

	ESURL      []string `envconfig:"ES_URL"`
	ESUser     string   `envconfig:"ES_USER"`
	ESPassword string   `envconfig:"ES_PASSWORD"`
	ESIndex    string   `envconfig:"ES_INDEX" default:"products"`
}

// Load reads .env when present and then decodes the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file, using process environment", "error", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.ESURL = compact(cfg.ESURL)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT out of range: %d", c.ServerPort))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug|info|warn|error, got %q", c.LogLevel))
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if _, err := access.ParseDenialMode(c.AccessDeniedMode); err != nil {
		errs = append(errs, fmt.Errorf("ACCESS_DENIED_MODE: %w", err))
	}
	switch c.CartQuantityPolicy {
	case QuantityStrict, QuantityLenient:
	default:
		errs = append(errs, fmt.Errorf("CART_QUANTITY_POLICY must be strict or lenient, got %q", c.CartQuantityPolicy))
	}
	return errors.Join(errs...)
}

func (c Config) DenialMode() access.DenialMode {
	m, _ := access.ParseDenialMode(c.AccessDeniedMode)
	return m
}

// DSN is the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLiteDSN()
	}
	return c.DatabaseURL
}

// SQLiteDSN falls back to a shared in-memory database for local runs.
func (c Config) SQLiteDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "file:snakeoil?mode=memory&cache=shared"
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
