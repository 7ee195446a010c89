package config

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnehpets/rpcschema/codec"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.GetListenAddr())
	assert.Equal(t, DefaultRPCPath, cfg.GetRPCPath())
	assert.Equal(t, slog.LevelInfo, cfg.GetLogLevel())
	assert.Equal(t, "console", cfg.GetLogFormat())
	assert.Equal(t, &MetricsConfig{Enabled: true, Path: DefaultMetricsPath}, cfg.GetMetricsConfig())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
	assert.Equal(t, codec.JSON, cfg.GetCodec())
	assert.True(t, cfg.ValidateParams())
	assert.True(t, cfg.ValidateResults())
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.GetMaxBodyBytes())
	assert.Equal(t, 0, cfg.GetBatchConcurrency())
}

func TestEnvironment(t *testing.T) {
	t.Setenv("RPCD_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("RPCD_LOG_LEVEL", "DEBUG")
	t.Setenv("RPCD_LOG_FORMAT", "json")
	t.Setenv("RPCD_CODEC", "cbor")
	t.Setenv("RPCD_VALIDATE_RESULTS", "false")
	t.Setenv("RPCD_BATCH_CONCURRENCY", "8")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.GetListenAddr())
	assert.Equal(t, slog.LevelDebug, cfg.GetLogLevel())
	assert.Equal(t, "json", cfg.GetLogFormat())
	assert.Equal(t, codec.CBOR, cfg.GetCodec())
	assert.True(t, cfg.ValidateParams())
	assert.False(t, cfg.ValidateResults())
	assert.Equal(t, 8, cfg.GetBatchConcurrency())
}

func TestValidation(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"LISTEN_ADDR", ""},
		{"RPC_PATH", "rpc"},
		{"LOG_FORMAT", "xml"},
		{"LOG_LEVEL", "verbose"},
		{"METRICS_PATH", "/rpc"},
		{"CODEC", "msgpack"},
		{"MAX_BODY_BYTES", 0},
		{"BATCH_CONCURRENCY", -1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := FromViper(v)
			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.key, cfgErr.Key)
			assert.Contains(t, err.Error(), "RPCD_"+tt.key)
		})
	}
}

func TestMetricsPathIgnoredWhenDisabled(t *testing.T) {
	v := viper.New()
	v.Set("METRICS_ENABLED", false)
	v.Set("METRICS_PATH", "/rpc")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.False(t, cfg.GetMetricsConfig().Enabled)
}
