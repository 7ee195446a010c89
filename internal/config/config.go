// Package config loads rpcd settings from the environment, optionally seeded
// from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mnehpets/rpcschema/codec"
)

// EnvPrefix prefixes every environment variable: RPCD_LISTEN_ADDR etc.
const EnvPrefix = "RPCD"

const (
	DefaultListenAddr   = ":8080"
	DefaultRPCPath      = "/rpc"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultMetricsPath  = "/metrics"
	DefaultEndpoint     = "http://localhost:8080/rpc"
	DefaultCodec        = "json"
	DefaultMaxBodyBytes = 1 << 20
)

// Error reports an invalid setting.
type Error struct {
	Key string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s_%s: %s", EnvPrefix, e.Key, e.Msg)
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type Config struct {
	listenAddr       string
	rpcPath          string
	logLevel         string
	logFormat        string
	metricsConfig    *MetricsConfig
	endpoint         string
	codec            string
	validateParams   bool
	validateResults  bool
	maxBodyBytes     int64
	batchConcurrency int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LISTEN_ADDR", DefaultListenAddr)
	v.SetDefault("RPC_PATH", DefaultRPCPath)
	v.SetDefault("LOG_LEVEL", DefaultLogLevel)
	v.SetDefault("LOG_FORMAT", DefaultLogFormat)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", DefaultMetricsPath)
	v.SetDefault("ENDPOINT", DefaultEndpoint)
	v.SetDefault("CODEC", DefaultCodec)
	v.SetDefault("VALIDATE_PARAMS", true)
	v.SetDefault("VALIDATE_RESULTS", true)
	v.SetDefault("MAX_BODY_BYTES", DefaultMaxBodyBytes)
	v.SetDefault("BATCH_CONCURRENCY", 0)
}

// Load reads the configuration. A .env file in the working directory is
// loaded first when present; variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromViper(viper.New())
}

// FromViper builds a Config from v, after installing the defaults and the
// environment binding. Values set on v directly take precedence.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	c := &Config{
		listenAddr: v.GetString("LISTEN_ADDR"),
		rpcPath:    v.GetString("RPC_PATH"),
		logLevel:   strings.ToLower(v.GetString("LOG_LEVEL")),
		logFormat:  strings.ToLower(v.GetString("LOG_FORMAT")),
		metricsConfig: &MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
		endpoint:         v.GetString("ENDPOINT"),
		codec:            strings.ToLower(v.GetString("CODEC")),
		validateParams:   v.GetBool("VALIDATE_PARAMS"),
		validateResults:  v.GetBool("VALIDATE_RESULTS"),
		maxBodyBytes:     v.GetInt64("MAX_BODY_BYTES"),
		batchConcurrency: v.GetInt("BATCH_CONCURRENCY"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.listenAddr == "" {
		return &Error{"LISTEN_ADDR", "required field is missing"}
	}
	if !strings.HasPrefix(c.rpcPath, "/") {
		return &Error{"RPC_PATH", fmt.Sprintf("invalid value %q, must start with /", c.rpcPath)}
	}
	switch c.logFormat {
	case "json", "console":
	default:
		return &Error{"LOG_FORMAT", fmt.Sprintf("invalid value %q, must be 'json' or 'console'", c.logFormat)}
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return &Error{"LOG_LEVEL", fmt.Sprintf("invalid value %q, must be one of debug, info, warn, error", c.logLevel)}
	}
	if c.metricsConfig.Enabled {
		if !strings.HasPrefix(c.metricsConfig.Path, "/") {
			return &Error{"METRICS_PATH", fmt.Sprintf("invalid value %q, must start with /", c.metricsConfig.Path)}
		}
		if c.metricsConfig.Path == c.rpcPath {
			return &Error{"METRICS_PATH", "must differ from RPC_PATH"}
		}
	}
	if _, err := codec.ByName(c.codec); err != nil {
		return &Error{"CODEC", fmt.Sprintf("invalid value %q, must be 'json' or 'cbor'", c.codec)}
	}
	if c.maxBodyBytes <= 0 {
		return &Error{"MAX_BODY_BYTES", "must be positive"}
	}
	if c.batchConcurrency < 0 {
		return &Error{"BATCH_CONCURRENCY", "must not be negative"}
	}
	return nil
}

func (c Config) GetListenAddr() string {
	return c.listenAddr
}

func (c Config) GetRPCPath() string {
	return c.rpcPath
}

func (c Config) GetLogLevel() slog.Level {
	switch c.logLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) GetLogFormat() string {
	return c.logFormat
}

func (c Config) GetMetricsConfig() *MetricsConfig {
	return c.metricsConfig
}

// GetEndpoint is the URL the client commands call.
func (c Config) GetEndpoint() string {
	return c.endpoint
}

func (c Config) GetCodec() codec.Codec {
	cd, err := codec.ByName(c.codec)
	if err != nil {
		return codec.JSON
	}
	return cd
}

func (c Config) ValidateParams() bool {
	return c.validateParams
}

func (c Config) ValidateResults() bool {
	return c.validateResults
}

func (c Config) GetMaxBodyBytes() int64 {
	return c.maxBodyBytes
}

func (c Config) GetBatchConcurrency() int {
	return c.batchConcurrency
}
