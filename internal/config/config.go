package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port              int           `yaml:"port"`
	DBDriver          string        `yaml:"db_driver"`
	DBFile            string        `yaml:"db_file"`
	MySQLDSN          string        `yaml:"mysql_dsn"`
	CORSOrigin        string        `yaml:"cors_origin"`
	RedisAddr         string        `yaml:"redis_addr"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	GRPCAddr          string        `yaml:"grpc_addr"`
	LowStockThreshold int           `yaml:"low_stock_threshold"`
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Port:              5000,
		DBDriver:          "sqlite",
		DBFile:            "database.sqlite",
		CORSOrigin:        "http://localhost:3000",
		CacheTTL:          30 * time.Second,
		GRPCAddr:          ":50051",
		LowStockThreshold: 10,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when empty), then a .env file in the working directory, then the
// process environment. Later sources win. The result is not validated, so
// callers can apply their own overrides first and then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	if err := integer("PORT", &c.Port); err != nil {
		return err
	}
	if err := integer("LOW_STOCK_THRESHOLD", &c.LowStockThreshold); err != nil {
		return err
	}
	str("DB_DRIVER", &c.DBDriver)
	str("DB_FILE", &c.DBFile)
	str("MYSQL_DSN", &c.MySQLDSN)
	str("CORS_ORIGIN", &c.CORSOrigin)
	str("REDIS_ADDR", &c.RedisAddr)
	str("GRPC_ADDR", &c.GRPCAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	if v, ok := lookup("CACHE_TTL"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "sqlite3":
		if c.DBFile == "" {
			errs = append(errs, errors.New("db_file is required for sqlite"))
		}
	case "mysql":
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("mysql_dsn is required for mysql"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported db_driver %q", c.DBDriver))
	}
	if c.LowStockThreshold < 0 {
		errs = append(errs, fmt.Errorf("low_stock_threshold %d is negative", c.LowStockThreshold))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl %s is negative", c.CacheTTL))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// StoreTarget is the file path or DSN handed to the storage layer.
func (c Config) StoreTarget() string {
	if strings.EqualFold(c.DBDriver, "mysql") {
		return c.MySQLDSN
	}
	return c.DBFile
}

func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
