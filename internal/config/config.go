// Package config loads gymdash settings from .env, an optional YAML file and
// GYMDASH_* environment variables.
package config

import "time"

// Config is the full runtime configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Email    EmailConfig    `mapstructure:"email"`
	SMS      SMSConfig      `mapstructure:"sms"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Access   AccessConfig   `mapstructure:"access"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Remote   RemoteConfig   `mapstructure:"remote"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Addr        string `mapstructure:"addr"`
	SeedDemo    bool   `mapstructure:"seed_demo"`
}

// IsProduction reports whether cookies and CSRF should require TLS.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type DatabaseConfig struct {
	Driver       string         `mapstructure:"driver"` // sqlite or postgres
	Path         string         `mapstructure:"path"`
	Postgres     PostgresConfig `mapstructure:"postgres"`
	MaxOpenConns int            `mapstructure:"max_open_conns"`
	MaxIdleConns int            `mapstructure:"max_idle_conns"`
	SlowQueryMs  int            `mapstructure:"slow_query_ms"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	CSRFKey       string        `mapstructure:"csrf_key"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	AdminEmail    string        `mapstructure:"admin_email"`
	AdminPassword string        `mapstructure:"admin_password"`
	RateLimit     int           `mapstructure:"rate_limit"` // requests per minute per IP
	// AllowedOrigins lists browser origins allowed to call /api cross-site.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type EmailConfig struct {
	Provider  string `mapstructure:"provider"` // resend, ses or noop
	ResendKey string `mapstructure:"resend_key"`
	From      string `mapstructure:"from"`
	ReplyTo   string `mapstructure:"reply_to"`
	Region    string `mapstructure:"region"`
}

type SMSConfig struct {
	Provider string `mapstructure:"provider"` // sns or noop
	Region   string `mapstructure:"region"`
	SenderID string `mapstructure:"sender_id"`
}

type AlertsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	Interval           time.Duration `mapstructure:"interval"`
	Recipients         []string      `mapstructure:"recipients"`
	LowStockEnabled    bool          `mapstructure:"low_stock_enabled"`
	OverdueGrace       time.Duration `mapstructure:"overdue_grace"`
	CapacityWarningPct float64       `mapstructure:"capacity_warning_pct"`
	OutboxInterval     time.Duration `mapstructure:"outbox_interval"`
}

type AccessConfig struct {
	Rules []AccessRuleConfig `mapstructure:"rules"`
}

// AccessRuleConfig mirrors accesslog.Rule so the config package stays free of
// domain imports.
type AccessRuleConfig struct {
	Name     string   `mapstructure:"name"`
	Area     string   `mapstructure:"area"`
	Packages []string `mapstructure:"packages"`
	From     string   `mapstructure:"from"`
	To       string   `mapstructure:"to"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}
