package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/userexport/internal/export"
	"github.com/isdelr/userexport/internal/models"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int                 `yaml:"port"`
	DatabasePath    string              `yaml:"database_path"`
	ReplicaPath     string              `yaml:"replica_path"` // Read-only copy used for exports; defaults to DatabasePath
	JWTSecret       string              `yaml:"jwt_secret"`
	AppEnv          string              `yaml:"app_env"`
	LogLevel        string              `yaml:"log_level"`
	ExportDir       string              `yaml:"export_dir"`
	ExportFilename  string              `yaml:"export_filename"`
	SweepSchedule   string              `yaml:"sweep_schedule"`
	SweepMaxAge     time.Duration       `yaml:"sweep_max_age"`
	AllowedOrigins  []string            `yaml:"allowed_origins"`
	Catalog         []models.FieldSpec  `yaml:"catalog"`
	GroupRights     map[string][]string `yaml:"group_rights"`
	SessionLifetime time.Duration       `yaml:"session_lifetime"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		ServerPort:      8080,
		DatabasePath:    "./userexport.db",
		AppEnv:          "development",
		LogLevel:        "info",
		ExportDir:       filepath.Join(os.TempDir(), "userexport"),
		ExportFilename:  "mediawiki_users.csv",
		SweepSchedule:   "@every 15m",
		SweepMaxAge:     time.Hour,
		AllowedOrigins:  []string{"http://localhost:3000"},
		SessionLifetime: 24 * time.Hour,
	}
}

// defaultGroupRights grants the export right to administrators.
func defaultGroupRights() map[string][]string {
	return map[string][]string{
		"sysop": {"userexport"},
	}
}

// Load loads configuration from an optional YAML file named by CONFIG_PATH,
// then applies environment variable overrides. Environment variables win.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := getEnv("CONFIG_PATH", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.ReplicaPath == "" {
		cfg.ReplicaPath = cfg.DatabasePath
	}
	if len(cfg.Catalog) == 0 {
		cfg.Catalog = export.DefaultFieldSpecs()
	}
	if len(cfg.GroupRights) == 0 {
		cfg.GroupRights = defaultGroupRights()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile reads a YAML file over cfg. Keys missing from the file keep the
// values already in cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := getEnv("PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.ServerPort = port
	}
	if v := getEnv("EXPORT_SWEEP_MAX_AGE", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid EXPORT_SWEEP_MAX_AGE %q: %w", v, err)
		}
		cfg.SweepMaxAge = d
	}
	if v := getEnv("SESSION_LIFETIME", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_LIFETIME %q: %w", v, err)
		}
		cfg.SessionLifetime = d
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}

	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DatabasePath)
	cfg.ReplicaPath = getEnv("REPLICA_PATH", cfg.ReplicaPath)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ExportDir = getEnv("EXPORT_DIR", cfg.ExportDir)
	cfg.ExportFilename = getEnv("EXPORT_FILENAME", cfg.ExportFilename)
	cfg.SweepSchedule = getEnv("EXPORT_SWEEP_SCHEDULE", cfg.SweepSchedule)
	return nil
}

// Validate checks values that would otherwise fail later at runtime. The
// catalog itself is validated when the export catalog is built.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("port %d out of range", c.ServerPort)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.ExportFilename == "" {
		return fmt.Errorf("export filename cannot be empty")
	}
	if c.SweepMaxAge <= 0 {
		return fmt.Errorf("sweep max age must be positive")
	}
	if c.SessionLifetime <= 0 {
		return fmt.Errorf("session lifetime must be positive")
	}
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", c.SweepSchedule, err)
	}
	if c.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
