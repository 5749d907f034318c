package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names recognized as overrides of the config file.
const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvServerPort   = "SERVER_PORT"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUser     = "SMTP_USER"
	EnvSMTPPass     = "SMTP_PASS"
	EnvSMTPFrom     = "SMTP_FROM"
	EnvRedisAddr    = "REDIS_ADDR"
	EnvCORSOrigins  = "CORS_ORIGINS"
)

// defaultJWTExpiry matches the 7-day bearer token lifetime issued at login.
const defaultJWTExpiry = 7 * 24 * time.Hour

// ErrMissingDatabaseDSN indicates no database DSN is configured.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database.dsn` in config file or DB_CONNECTION)")

// ErrMissingJWTSecret indicates no JWT signing secret is configured. The
// secret is security-critical and is never defaulted.
var ErrMissingJWTSecret = errors.New("missing jwt secret (set `jwt.secret` in config file or JWT_SECRET)")

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// SMTPConfig holds outbound email settings. Email sending is disabled when
// the host is empty.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// RedisConfig holds optional Redis settings for rate limiting and caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Config is the resolved application configuration.
type Config struct {
	Port        int         // HTTP listen port.
	DatabaseDSN string      // Postgres DSN, or a sqlite path/URI.
	JWT         JWTConfig   // Token signing settings.
	SMTP        SMTPConfig  // Outbound email settings.
	Redis       RedisConfig // Optional Redis settings.
	CORSOrigins []string    // Allowed CORS origins; empty allows any.
	RatePerSec  int         // Per-user request budget per second; 0 disables limiting.
}

// fileConfig maps the YAML layout of the config file.
type fileConfig struct {
	Port        int    `yaml:"port"`
	DatabaseDSN string `yaml:"database-dsn"`
	Database    struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	JWT         JWTConfig   `yaml:"jwt"`
	SMTP        SMTPConfig  `yaml:"smtp"`
	Redis       RedisConfig `yaml:"redis"`
	CORSOrigins []string    `yaml:"cors-origins"`
	RatePerSec  int         `yaml:"rate-per-second"`
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the config file when present, applies environment overrides,
// and validates the result. The file is optional; the mandatory values can
// be supplied entirely through the environment.
func Load(configPath string) (Config, error) {
	var file fileConfig
	if data, errRead := os.ReadFile(configPath); errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &file); errUnmarshal != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", configPath, errUnmarshal)
		}
	} else if !os.IsNotExist(errRead) {
		return Config{}, fmt.Errorf("config: read %s: %w", configPath, errRead)
	}

	cfg := Config{
		Port:        file.Port,
		DatabaseDSN: strings.TrimSpace(file.DatabaseDSN),
		JWT:         file.JWT,
		SMTP:        file.SMTP,
		Redis:       file.Redis,
		CORSOrigins: file.CORSOrigins,
		RatePerSec:  file.RatePerSec,
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = strings.TrimSpace(file.Database.DSN)
	}

	applyEnvOverrides(&cfg)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = 8080
	}
	if cfg.JWT.Expiry <= 0 {
		cfg.JWT.Expiry = defaultJWTExpiry
	}
	if cfg.SMTP.Port <= 0 {
		cfg.SMTP.Port = 587
	}

	if cfg.DatabaseDSN == "" {
		return Config{}, ErrMissingDatabaseDSN
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return Config{}, ErrMissingJWTSecret
	}
	return cfg, nil
}

// applyEnvOverrides replaces config values with environment settings.
func applyEnvOverrides(cfg *Config) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if portRaw := strings.TrimSpace(os.Getenv(EnvServerPort)); portRaw != "" {
		if port, errParse := strconv.Atoi(portRaw); errParse == nil {
			cfg.Port = port
		}
	}
	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		cfg.JWT.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			cfg.JWT.Expiry = expiry
		}
	}
	if host := strings.TrimSpace(os.Getenv(EnvSMTPHost)); host != "" {
		cfg.SMTP.Host = host
	}
	if portRaw := strings.TrimSpace(os.Getenv(EnvSMTPPort)); portRaw != "" {
		if port, errParse := strconv.Atoi(portRaw); errParse == nil {
			cfg.SMTP.Port = port
		}
	}
	if user := strings.TrimSpace(os.Getenv(EnvSMTPUser)); user != "" {
		cfg.SMTP.Username = user
	}
	if pass := strings.TrimSpace(os.Getenv(EnvSMTPPass)); pass != "" {
		cfg.SMTP.Password = pass
	}
	if from := strings.TrimSpace(os.Getenv(EnvSMTPFrom)); from != "" {
		cfg.SMTP.From = from
	}
	if addr := strings.TrimSpace(os.Getenv(EnvRedisAddr)); addr != "" {
		cfg.Redis.Addr = addr
	}
	if origins := strings.TrimSpace(os.Getenv(EnvCORSOrigins)); origins != "" {
		parts := strings.Split(origins, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		cfg.CORSOrigins = out
	}
}
