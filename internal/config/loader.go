package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// GYMDASH_DATABASE_DRIVER overrides database.driver.
const EnvPrefix = "GYMDASH"

// Load reads .env (if present), then config.yaml from the usual search paths,
// then environment overrides, and returns a validated Config.
// PRE: none
// POST: returns a Config with defaults applied, or a validation error
func Load() (*Config, error) {
	loadEnvFile()
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return LoadWith(v)
}

// LoadWith finishes loading from a viper instance whose config source, if
// any, has already been read. Tests use it with an in-memory YAML document.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// bindEnvKeys registers every scalar key so AutomaticEnv overrides work even
// when no config file mentions the key.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"app.name", "app.environment", "app.addr", "app.seed_demo",
		"database.driver", "database.path", "database.max_open_conns", "database.max_idle_conns", "database.slow_query_ms",
		"database.postgres.host", "database.postgres.port", "database.postgres.user",
		"database.postgres.password", "database.postgres.name", "database.postgres.sslmode",
		"redis.enabled", "redis.address", "redis.password", "redis.db", "redis.ttl",
		"auth.csrf_key", "auth.jwt_secret", "auth.token_ttl", "auth.session_ttl",
		"auth.admin_email", "auth.admin_password", "auth.rate_limit", "auth.allowed_origins",
		"email.provider", "email.resend_key", "email.from", "email.reply_to", "email.region",
		"sms.provider", "sms.region", "sms.sender_id",
		"alerts.enabled", "alerts.interval", "alerts.recipients", "alerts.low_stock_enabled",
		"alerts.overdue_grace", "alerts.capacity_warning_pct", "alerts.outbox_interval",
		"logging.level", "logging.format",
		"remote.base_url", "remote.timeout", "remote.token",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gymdash"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.Addr == "" {
		cfg.App.Addr = ":8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "gymdash.db"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.SlowQueryMs == 0 {
		cfg.Database.SlowQueryMs = 50
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = time.Minute
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 24 * time.Hour
	}
	if cfg.Auth.RateLimit == 0 {
		cfg.Auth.RateLimit = 200
	}
	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "noop"
	}
	if cfg.Email.From == "" {
		cfg.Email.From = "Gym Dashboard <noreply@gymdash.local>"
	}
	if cfg.SMS.Provider == "" {
		cfg.SMS.Provider = "noop"
	}
	if cfg.Alerts.Interval == 0 {
		cfg.Alerts.Interval = 15 * time.Minute
	}
	if cfg.Alerts.OutboxInterval == 0 {
		cfg.Alerts.OutboxInterval = time.Minute
	}
	if cfg.Alerts.OverdueGrace == 0 {
		cfg.Alerts.OverdueGrace = 72 * time.Hour
	}
	if cfg.Alerts.CapacityWarningPct == 0 {
		cfg.Alerts.CapacityWarningPct = 90
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		if cfg.App.IsProduction() {
			cfg.Logging.Format = "json"
		} else {
			cfg.Logging.Format = "console"
		}
	}
	if cfg.Remote.BaseURL == "" {
		cfg.Remote.BaseURL = "http://localhost:8080"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = 10 * time.Second
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == "postgres" && (cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Name == "") {
		return errors.New("database.postgres.host and database.postgres.name are required for postgres")
	}
	switch cfg.Email.Provider {
	case "noop", "ses":
	case "resend":
		if cfg.Email.ResendKey == "" {
			return errors.New("email.resend_key is required when email.provider is resend")
		}
	default:
		return fmt.Errorf("email.provider must be resend, ses or noop, got %q", cfg.Email.Provider)
	}
	if (cfg.Email.Provider == "ses" || cfg.SMS.Provider == "sns") && cfg.Email.Region == "" && cfg.SMS.Region == "" {
		return errors.New("an AWS region is required for ses or sns")
	}
	switch cfg.SMS.Provider {
	case "noop", "sns":
	default:
		return fmt.Errorf("sms.provider must be sns or noop, got %q", cfg.SMS.Provider)
	}
	if cfg.Alerts.CapacityWarningPct < 0 || cfg.Alerts.CapacityWarningPct > 100 {
		return fmt.Errorf("alerts.capacity_warning_pct must be within 0..100, got %v", cfg.Alerts.CapacityWarningPct)
	}
	if cfg.App.IsProduction() {
		if len(cfg.Auth.CSRFKey) != 32 {
			return errors.New("auth.csrf_key must be exactly 32 bytes in production")
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required in production")
		}
	}
	return nil
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		p := d.Postgres
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode)
	}
	return d.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
