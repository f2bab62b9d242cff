// Package config loads runtime settings from .env, the process environment
// and an optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of the API server.
type Config struct {
	Port      string        `yaml:"port"`
	LogLevel  string        `yaml:"log_level"`
	UploadDir string        `yaml:"upload_dir"`
	DB        DBConfig      `yaml:"db"`
	JWT       JWTConfig     `yaml:"jwt"`
	CORS      CORSConfig    `yaml:"cors"`
	SMTP      SMTPConfig    `yaml:"smtp"`
	Jobs      JobsConfig    `yaml:"jobs"`
	Login     LoginConfig   `yaml:"login"`
	Shutdown  time.Duration `yaml:"shutdown_timeout"`
}

// DBConfig holds connection settings for Postgres.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	TimeZone string `yaml:"timezone"`
}

// DSN renders the Postgres connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone)
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// SMTPConfig is optional. The digest job logs instead of mailing when Host is empty.
type SMTPConfig struct {
	Host       string   `yaml:"host"`
	Port       string   `yaml:"port"`
	User       string   `yaml:"user"`
	Password   string   `yaml:"password"`
	From       string   `yaml:"from"`
	Recipients []string `yaml:"recipients"`
}

// Enabled reports whether outgoing mail is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type JobsConfig struct {
	ReconcileCron string `yaml:"reconcile_cron"`
	DigestCron    string `yaml:"digest_cron"`
}

// LoginConfig bounds login attempts per client IP.
type LoginConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// Load reads .env (if present), then the environment, then the YAML file named
// by CONFIG_FILE (if set), applies defaults and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded")
	}

	cfg := fromEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse unmarshals YAML bytes over the defaults. Used by tests and tooling.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	cfg := &Config{
		Port:      os.Getenv("PORT"),
		LogLevel:  os.Getenv("LOG_LEVEL"),
		UploadDir: os.Getenv("UPLOAD_DIR"),
		DB: DBConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  os.Getenv("DB_SSLMODE"),
			TimeZone: os.Getenv("DB_TIMEZONE"),
		},
		JWT: JWTConfig{Secret: os.Getenv("JWT_SECRET")},
		SMTP: SMTPConfig{
			Host:       os.Getenv("SMTP_HOST"),
			Port:       os.Getenv("SMTP_PORT"),
			User:       os.Getenv("SMTP_USER"),
			Password:   os.Getenv("SMTP_PASSWORD"),
			From:       os.Getenv("MAIL_FROM"),
			Recipients: splitList(os.Getenv("DIGEST_RECIPIENTS")),
		},
		Jobs: JobsConfig{
			ReconcileCron: os.Getenv("RECONCILE_CRON"),
			DigestCron:    os.Getenv("DIGEST_CRON"),
		},
		CORS: CORSConfig{Origins: splitList(os.Getenv("CORS_ORIGINS"))},
	}
	if ttl, err := time.ParseDuration(os.Getenv("JWT_TTL")); err == nil {
		cfg.JWT.TTL = ttl
	}
	if r, err := strconv.ParseFloat(os.Getenv("LOGIN_RATE"), 64); err == nil {
		cfg.Login.Rate = r
	}
	if b, err := strconv.Atoi(os.Getenv("LOGIN_BURST")); err == nil {
		cfg.Login.Burst = b
	}
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyDefaults fills in unset values.
func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "9000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.DB.Host == "" {
		c.DB.Host = "localhost"
	}
	if c.DB.Port == "" {
		c.DB.Port = "5432"
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
	if c.DB.TimeZone == "" {
		c.DB.TimeZone = "UTC"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 7 * 24 * time.Hour
	}
	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"http://localhost:3000", "http://localhost:9000"}
	}
	if c.SMTP.Port == "" {
		c.SMTP.Port = "587"
	}
	if c.Jobs.ReconcileCron == "" {
		c.Jobs.ReconcileCron = "30 2 * * *"
	}
	if c.Jobs.DigestCron == "" {
		c.Jobs.DigestCron = "0 7 * * *"
	}
	if c.Login.Rate == 0 {
		c.Login.Rate = 1
	}
	if c.Login.Burst == 0 {
		c.Login.Burst = 5
	}
	if c.Shutdown == 0 {
		c.Shutdown = 30 * time.Second
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p < 0 || p > 65535 {
		errs = append(errs, fmt.Sprintf("invalid PORT %q", c.Port))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL %q", c.LogLevel))
	}
	if c.Login.Rate < 0 || c.Login.Burst < 0 {
		errs = append(errs, "login rate and burst must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateDB reports missing database settings. Only commands that open a
// connection call it.
func (c *Config) ValidateDB() error {
	var missing []string
	if c.DB.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.DB.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
