package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "KABRAJI"

type Config struct {
	Port              string        `envconfig:"PORT" default:"8080"`
	AllowedOrigin     string        `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`
	DataFile          string        `envconfig:"DATA_FILE" default:"kabraji_data.json"`
	Ephemeral         bool          `envconfig:"EPHEMERAL" default:"false"`
	InvoiceDir        string        `envconfig:"INVOICE_DIR" default:"."`
	SeedDefaults      bool          `envconfig:"SEED_DEFAULTS" default:"true"`
	LowStockThreshold int           `envconfig:"LOW_STOCK_THRESHOLD" default:"10"`
	TopProducts       int           `envconfig:"TOP_PRODUCTS" default:"10"`
	RedisAddr         string        `envconfig:"REDIS_ADDR"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD"`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	ReportCacheTTL    time.Duration `envconfig:"REPORT_CACHE_TTL" default:"60s"`
	RateLimit         int           `envconfig:"RATE_LIMIT" default:"300"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat         string        `envconfig:"LOG_FORMAT" default:"text"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "read environment")
	}
	cfg.AllowedOrigin = strings.TrimSpace(cfg.AllowedOrigin)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	// Stock is never negative, so a threshold below 1 could never raise an alert.
	if c.LowStockThreshold < 1 {
		return errors.Errorf("%s_LOW_STOCK_THRESHOLD must be at least 1", envPrefix)
	}
	if c.TopProducts < 1 {
		return errors.Errorf("%s_TOP_PRODUCTS must be at least 1", envPrefix)
	}
	if c.RateLimit < 1 {
		return errors.Errorf("%s_RATE_LIMIT must be at least 1", envPrefix)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "%s_LOG_LEVEL", envPrefix)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("%s_LOG_FORMAT must be text or json, got %q", envPrefix, c.LogFormat)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// NewLogger builds the process logger from the log settings.
func (c Config) NewLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger
}
