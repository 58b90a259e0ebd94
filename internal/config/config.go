// Package config provides configuration management for LaporKota.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like DATABASE_URL, LOG_LEVEL)
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	River     RiverConfig     `mapstructure:"river"`
	Retention RetentionConfig `mapstructure:"retention"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// DatabaseConfig contains PostgreSQL connection settings.
// One shared pgx pool backs both the ORM and River.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// RedisConfig contains settings-cache connection settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River Queue settings.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// RetentionConfig contains audit log retention horizons.
// CriticalDays applies to role_change and delete actions, which are kept
// longer than the rest for compliance investigations.
type RetentionConfig struct {
	Days         int `mapstructure:"days"`
	CriticalDays int `mapstructure:"critical_days"`
}

// Horizon returns the standard retention horizon as a duration.
func (c RetentionConfig) Horizon() time.Duration {
	return time.Duration(c.Days) * 24 * time.Hour
}

// CriticalHorizon returns the extended horizon for critical actions.
func (c RetentionConfig) CriticalHorizon() time.Duration {
	return time.Duration(c.CriticalDays) * 24 * time.Hour
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
	QueryPoolSize   int `mapstructure:"query_pool_size"`
}

// Load reads configuration from file and environment variables.
// Standard environment variables without prefix (DATABASE_URL, LOG_LEVEL, etc.).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/laporkota")

	// Maps nested config: database.max_conns → DATABASE_MAX_CONNS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Retention.Days <= 0 {
		return fmt.Errorf("retention.days must be positive")
	}
	if c.Retention.CriticalDays < c.Retention.Days {
		return fmt.Errorf("retention.critical_days must be >= retention.days")
	}
	if c.River.MaxWorkers <= 0 {
		return fmt.Errorf("river.max_workers must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "laporkota")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "laporkota")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", false)

	// Redis (settings cache)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "5m")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// River
	v.SetDefault("river.max_workers", 5)
	v.SetDefault("river.completed_job_retention_period", "24h")

	// Audit retention: one year baseline, two years for role_change/delete.
	v.SetDefault("retention.days", 365)
	v.SetDefault("retention.critical_days", 730)

	// Worker pool
	v.SetDefault("worker.general_pool_size", 50)
	v.SetDefault("worker.query_pool_size", 20)
}
