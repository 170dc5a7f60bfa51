package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/trustscope/trustscope/internal/disclosure"
)

// EnvPrefix is prepended to every environment variable, e.g. TRUSTSCOPE_DB_URL
const EnvPrefix = "TRUSTSCOPE"

// Config holds all application configuration
type Config struct {
	// HTTP Server
	HTTPAddr       string
	RequestTimeout time.Duration
	APIRateLimit   int // requests per minute per client

	// Database, in-memory storage when empty
	DatabaseURL string

	// Logging
	LogLevel string
	LogJSON  bool

	// Disclosure
	DisclosureMode disclosure.Mode
	JWTSecret      string

	// Signals
	CollectorTimeout time.Duration
	ContentRulesPath string
	SignalServiceURL string
	SignalRate       float64 // requests per second to the signal service
	SignalBurst      int
	CacheTTL         time.Duration

	// AI commentary, disabled without a key
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// Batch analysis
	Workers int
}

// SetDefaults registers default values and environment lookup on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("api_rate_limit", 100)
	v.SetDefault("db_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("disclosure_mode", string(disclosure.ModeServer))
	v.SetDefault("jwt_secret", "")
	v.SetDefault("collector_timeout", "5s")
	v.SetDefault("content_rules", "")
	v.SetDefault("signal_service_url", "")
	v.SetDefault("signal_rate", 5.0)
	v.SetDefault("signal_burst", 10)
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("workers", 4)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
}

// Load reads configuration from v, which should have had SetDefaults applied
func Load(v *viper.Viper) (*Config, error) {
	mode, err := disclosure.ParseMode(v.GetString("disclosure_mode"))
	if err != nil {
		return nil, fmt.Errorf("%s_DISCLOSURE_MODE: %w", EnvPrefix, err)
	}

	cfg := &Config{
		HTTPAddr:         v.GetString("http_addr"),
		RequestTimeout:   v.GetDuration("request_timeout"),
		APIRateLimit:     v.GetInt("api_rate_limit"),
		DatabaseURL:      v.GetString("db_url"),
		LogLevel:         v.GetString("log_level"),
		LogJSON:          v.GetBool("log_json"),
		DisclosureMode:   mode,
		JWTSecret:        v.GetString("jwt_secret"),
		CollectorTimeout: v.GetDuration("collector_timeout"),
		ContentRulesPath: v.GetString("content_rules"),
		SignalServiceURL: v.GetString("signal_service_url"),
		SignalRate:       v.GetFloat64("signal_rate"),
		SignalBurst:      v.GetInt("signal_burst"),
		CacheTTL:         v.GetDuration("cache_ttl"),
		OpenAIKey:        v.GetString("openai_api_key"),
		OpenAIModel:      v.GetString("openai_model"),
		OpenAIBaseURL:    v.GetString("openai_base_url"),
		Workers:          v.GetInt("workers"),
	}

	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("%s_HTTP_ADDR is required", EnvPrefix)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("%s_REQUEST_TIMEOUT must be positive", EnvPrefix)
	}
	if cfg.CollectorTimeout <= 0 {
		return nil, fmt.Errorf("%s_COLLECTOR_TIMEOUT must be positive", EnvPrefix)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%s_WORKERS must be at least 1", EnvPrefix)
	}

	return cfg, nil
}
