package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustscope/trustscope/internal/disclosure"
)

func load(t *testing.T) (*Config, error) {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	return Load(v)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, disclosure.ModeServer, cfg.DisclosureMode)
	assert.Equal(t, 5*time.Second, cfg.CollectorTimeout)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 100, cfg.APIRateLimit)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.OpenAIKey)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TRUSTSCOPE_HTTP_ADDR", ":9090")
	t.Setenv("TRUSTSCOPE_DB_URL", "postgres://localhost/trustscope")
	t.Setenv("TRUSTSCOPE_DISCLOSURE_MODE", "client")
	t.Setenv("TRUSTSCOPE_COLLECTOR_TIMEOUT", "250ms")
	t.Setenv("TRUSTSCOPE_LOG_JSON", "true")
	t.Setenv("TRUSTSCOPE_SIGNAL_RATE", "2.5")
	t.Setenv("TRUSTSCOPE_WORKERS", "8")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres://localhost/trustscope", cfg.DatabaseURL)
	assert.Equal(t, disclosure.ModeClient, cfg.DisclosureMode)
	assert.Equal(t, 250*time.Millisecond, cfg.CollectorTimeout)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 2.5, cfg.SignalRate)
	assert.Equal(t, 8, cfg.Workers)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown disclosure mode", "TRUSTSCOPE_DISCLOSURE_MODE", "overlay"},
		{"zero collector timeout", "TRUSTSCOPE_COLLECTOR_TIMEOUT", "0s"},
		{"no workers", "TRUSTSCOPE_WORKERS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := load(t)
			assert.Error(t, err)
		})
	}
}
