package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port        string         `mapstructure:"port"`
	Origin      string         `mapstructure:"origin"`
	Environment string         `mapstructure:"environment"`
	JWTSecret   string         `mapstructure:"jwt_secret"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Booking     BookingConfig  `mapstructure:"booking"`
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	DSN          string `mapstructure:"dsn"`
	TxIsolation  string `mapstructure:"tx_isolation"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	LogQueries   bool   `mapstructure:"log_queries"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// RedisConfig configures the optional slot cache. An empty Addr disables it.
type RedisConfig struct {
	Addr           string `mapstructure:"addr"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	SlotTTLSeconds int    `mapstructure:"slot_ttl_seconds"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"` // console or json
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables rotated file output next to stdout.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// BookingConfig holds the clinic-level booking rules.
type BookingConfig struct {
	Timezone       string `mapstructure:"timezone"`
	MaxAdvanceDays int    `mapstructure:"max_advance_days"`
}

// envBindings keeps the flat environment names the deployment already uses.
var envBindings = map[string]string{
	"port":                     "PORT",
	"origin":                   "ORIGIN",
	"environment":              "APP_ENV",
	"jwt_secret":               "JWT_SECRET",
	"database.driver":          "DB_DRIVER",
	"database.host":            "DB_HOST",
	"database.port":            "DB_PORT",
	"database.username":        "DB_USERNAME",
	"database.password":        "DB_PASSWORD",
	"database.name":            "DB_NAME",
	"database.dsn":             "DB_DSN",
	"database.tx_isolation":    "DB_TX_ISOLATION",
	"database.auto_migrate":    "DB_AUTO_MIGRATE",
	"database.log_queries":     "DB_LOG_QUERIES",
	"database.max_open_conns":  "DB_MAX_OPEN_CONNS",
	"redis.addr":               "REDIS_ADDR",
	"redis.password":           "REDIS_PASSWORD",
	"redis.db":                 "REDIS_DB",
	"redis.slot_ttl_seconds":   "SLOT_CACHE_TTL_SECONDS",
	"logging.level":            "LOG_LEVEL",
	"logging.format":           "LOG_FORMAT",
	"logging.file.enabled":     "LOG_FILE_ENABLED",
	"logging.file.path":        "LOG_FILE_PATH",
	"booking.timezone":         "CLINIC_TIMEZONE",
	"booking.max_advance_days": "BOOKING_MAX_ADVANCE_DAYS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3001")
	v.SetDefault("origin", "http://localhost:4200")
	v.SetDefault("environment", "development")
	v.SetDefault("jwt_secret", "default_jwt_secret")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "hospital")
	v.SetDefault("database.tx_isolation", "serializable")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 20)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.slot_ttl_seconds", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.path", "logs/server.log")
	v.SetDefault("logging.file.max_size_mb", 50)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.max_age_days", 28)

	v.SetDefault("booking.timezone", "UTC")
	v.SetDefault("booking.max_advance_days", 90)
}

// LoadConfig reads .env (if present), an optional config file and the
// environment, in increasing order of precedence. configFile may be empty.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Database.DSN == "" && cfg.Database.Driver == "mysql" {
		// loc=UTC keeps DATE columns from shifting across the server's zone.
		cfg.Database.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Isolation(); err != nil {
		return err
	}
	if c.Booking.MaxAdvanceDays < 0 {
		return errors.New("booking max advance days must not be negative")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// Location resolves the clinic time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid clinic timezone %q: %w", c.Booking.Timezone, err)
	}
	return loc, nil
}

// Isolation maps the configured name to a transaction isolation level.
func (c *Config) Isolation() (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.ReplaceAll(c.Database.TxIsolation, "-", "_")) {
	case "", "default":
		return sql.LevelDefault, nil
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return 0, fmt.Errorf("unsupported transaction isolation %q", c.Database.TxIsolation)
	}
}

// SlotCacheTTL is how long computed slot lists stay cached.
func (c *Config) SlotCacheTTL() time.Duration {
	return time.Duration(c.Redis.SlotTTLSeconds) * time.Second
}
