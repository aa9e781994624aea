// Package config loads the application configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracking TrackingConfig `yaml:"tracking"`
	Admin    AdminConfig    `yaml:"admin"`
	OIDC     OIDCConfig     `yaml:"oidc"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	WebDir          string        `yaml:"web_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects and tunes the storage backend.
type DatabaseConfig struct {
	// Driver is one of postgres, sqlite or memory. Empty infers it from URL.
	Driver          string        `yaml:"driver"`
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// SessionConfig configures where sessions live and how the cookie is set.
type SessionConfig struct {
	// Backend is one of database, memory or redis.
	Backend         string        `yaml:"backend"`
	TTL             time.Duration `yaml:"ttl"`
	CookieName      string        `yaml:"cookie_name"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// RedisConfig configures the Redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// TrackingConfig configures the counter write paths.
type TrackingConfig struct {
	// ManualMode is timestamp or day.
	ManualMode string        `yaml:"manual_mode"`
	Timeout    time.Duration `yaml:"timeout"`
}

// AdminConfig holds the optional bootstrap admin account.
type AdminConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Enabled reports whether a bootstrap admin is configured.
func (a AdminConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

// OIDCConfig configures the optional single sign-on login.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether SSO is configured.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != ""
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			WebDir:          "web",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Session: SessionConfig{
			Backend:         "database",
			TTL:             24 * time.Hour,
			CookieName:      "session",
			CleanupInterval: time.Hour,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Tracking: TrackingConfig{
			ManualMode: "timestamp",
			Timeout:    2 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// any), a .env file in the working directory (if any) and the environment,
// in increasing order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 -- path is from CLI args, controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		data = []byte(expandEnvVars(string(data)))
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	// Missing .env is fine; variables already set in the environment win.
	_ = godotenv.Load()

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Database.Driver = inferDriver(cfg.Database.Driver, cfg.Database.URL)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "ADDR")
	setString(&cfg.Server.WebDir, "WEB_DIR")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Session.Backend, "SESSION_BACKEND")
	setString(&cfg.Session.CookieName, "COOKIE_NAME")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Tracking.ManualMode, "TRACKING_MANUAL_MODE")
	setString(&cfg.Admin.Username, "ADMIN_USERNAME")
	setString(&cfg.Admin.Email, "ADMIN_EMAIL")
	setString(&cfg.Admin.Password, "ADMIN_PASSWORD")
	setString(&cfg.OIDC.Issuer, "OIDC_ISSUER")
	setString(&cfg.OIDC.ClientID, "OIDC_CLIENT_ID")
	setString(&cfg.OIDC.ClientSecret, "OIDC_CLIENT_SECRET")
	setString(&cfg.OIDC.RedirectURL, "OIDC_REDIRECT_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if err := setDuration(&cfg.Session.TTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Tracking.Timeout, "TRACKING_TIMEOUT"); err != nil {
		return err
	}
	if err := setBool(&cfg.Session.CookieSecure, "COOKIE_SECURE"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func inferDriver(driver, url string) string {
	if driver != "" {
		return strings.ToLower(driver)
	}
	switch {
	case url == "":
		return "memory"
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	default:
		return "sqlite"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case "postgres", "sqlite":
		if c.Database.URL == "" {
			errs = append(errs, "database.url is required for driver "+c.Database.Driver)
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of postgres, sqlite, memory", c.Database.Driver))
	}

	switch c.Session.Backend {
	case "database", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required when session.backend is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("session.backend %q is not one of database, memory, redis", c.Session.Backend))
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	if c.Session.CookieName == "" {
		errs = append(errs, "session.cookie_name is required")
	}

	switch strings.ToLower(c.Tracking.ManualMode) {
	case "", "timestamp", "day":
	default:
		errs = append(errs, fmt.Sprintf("tracking.manual_mode %q is not one of timestamp, day", c.Tracking.ManualMode))
	}

	if (c.Admin.Email == "") != (c.Admin.Password == "") {
		errs = append(errs, "admin.email and admin.password must be set together")
	}

	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		errs = append(errs, "oidc.client_id and oidc.redirect_url are required when oidc.issuer is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
