package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	AppEnv         string `mapstructure:"app_env"`
	Port           int    `mapstructure:"port"`
	DatabaseURL    string `mapstructure:"database_url"`
	DatabaseDriver string `mapstructure:"database_driver"`
	MigrationsDir  string `mapstructure:"migrations_dir"`

	SessionSecret     string `mapstructure:"session_secret"`
	SessionIssuer     string `mapstructure:"session_issuer"`
	SessionTTLSeconds int64  `mapstructure:"session_ttl_seconds"`
	AdminEmail        string `mapstructure:"admin_email"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
	AdminExternalID   string `mapstructure:"admin_external_id"`
	WebhookSecret     string `mapstructure:"webhook_secret"`
	AdminEmailsRaw    string `mapstructure:"admin_emails"`

	UploadsRoot    string `mapstructure:"uploads_root"`
	UploadMaxBytes int64  `mapstructure:"upload_max_bytes"`
	ClamdAddr      string `mapstructure:"clamd_addr"`

	CorsOriginsRaw        string `mapstructure:"cors_origins"`
	CSPConnectSourcesRaw  string `mapstructure:"csp_connect_sources"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`

	CacheTTLSeconds          int    `mapstructure:"cache_ttl_seconds"`
	ContactRateLimit         int    `mapstructure:"contact_rate_limit"`
	ContactRateWindowSeconds int    `mapstructure:"contact_rate_window_seconds"`
	RedisAddr                string `mapstructure:"redis_addr"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SMTPFrom     string `mapstructure:"smtp_from"`
	NotifyEmail  string `mapstructure:"notify_email"`

	RevalidationURL    string `mapstructure:"revalidation_url"`
	RevalidationSecret string `mapstructure:"revalidation_secret"`

	MetricsSampleSeconds int    `mapstructure:"metrics_sample_interval"`
	LogDir               string `mapstructure:"log_dir"`
	LogRetentionDays     int    `mapstructure:"log_retention_days"`
}

var keys = []string{
	"app_env", "port", "database_url", "database_driver", "migrations_dir",
	"session_secret", "session_issuer", "session_ttl_seconds",
	"admin_email", "admin_password_hash", "admin_external_id", "webhook_secret", "admin_emails",
	"uploads_root", "upload_max_bytes", "clamd_addr",
	"cors_origins", "csp_connect_sources", "request_timeout_seconds",
	"cache_ttl_seconds", "contact_rate_limit", "contact_rate_window_seconds", "redis_addr",
	"smtp_host", "smtp_port", "smtp_user", "smtp_password", "smtp_from", "notify_email",
	"revalidation_url", "revalidation_secret",
	"metrics_sample_interval", "log_dir", "log_retention_days",
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("database_driver", "pgx")
	v.SetDefault("session_issuer", "devfolio")
	v.SetDefault("session_ttl_seconds", 14400)
	v.SetDefault("admin_external_id", "local-admin")
	v.SetDefault("uploads_root", "storage/uploads")
	v.SetDefault("upload_max_bytes", 5<<20)
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("cache_ttl_seconds", 60)
	v.SetDefault("contact_rate_limit", 5)
	v.SetDefault("contact_rate_window_seconds", 600)
	v.SetDefault("smtp_port", 587)
	v.SetDefault("metrics_sample_interval", 5)
	v.SetDefault("log_dir", "storage/logs")
	v.SetDefault("log_retention_days", 7)
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("missing env var: DATABASE_URL")
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return errors.New("missing env var: SESSION_SECRET")
	}
	if cfg.Port <= 0 {
		return errors.New("port must be positive")
	}
	if cfg.UploadMaxBytes <= 0 {
		return errors.New("upload max bytes must be positive")
	}
	return nil
}

func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c Config) CorsOrigins() []string       { return parseCSV(c.CorsOriginsRaw) }
func (c Config) CSPConnectSources() []string { return parseCSV(c.CSPConnectSourcesRaw) }

// AdminEmails is the allow-list consulted when the identity webhook provisions admins.
func (c Config) AdminEmails() []string {
	emails := parseCSV(c.AdminEmailsRaw)
	for i, email := range emails {
		emails[i] = strings.ToLower(email)
	}
	return emails
}

func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) ContactRateWindow() time.Duration {
	return time.Duration(c.ContactRateWindowSeconds) * time.Second
}

func (c Config) MetricsSampleInterval() time.Duration {
	if c.MetricsSampleSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.MetricsSampleSeconds) * time.Second
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
