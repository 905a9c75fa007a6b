package config

import (
	"fmt"
	"strings"

	"github.com/soap-note-server/internal/domain"
	"github.com/spf13/viper"
)

// Manager loads and validates application configuration using Viper.
// The resulting Config is resolved once at startup and treated as
// immutable for the process lifetime; components receive the pieces
// they need as explicit constructor parameters.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file and environment sources.
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/soap-note-server/")

	// Environment overrides, e.g. SOAPNOTE_GEMINI_API_KEY.
	viper.SetEnvPrefix("SOAPNOTE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars cover everything
	// except the API key.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values.
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "120s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Generative model defaults
	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/")
	viper.SetDefault("gemini.model", "gemini-2.5-flash-preview-09-2025")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("gemini.breaker_enabled", true)
	viper.SetDefault("gemini.breaker_interval", "30s")
	viper.SetDefault("gemini.breaker_timeout", "60s")

	// Auth defaults
	viper.SetDefault("auth.enabled", true)
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.issuer", "")

	// Rate limiting defaults
	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requests_per_second", 1.0)
	viper.SetDefault("ratelimit.burst", 5)
	viper.SetDefault("ratelimit.max_callers", 1000)

	// Cache defaults (denylist disabled unless Redis is configured)
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.denylist_enabled", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration.
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetGeminiConfig returns the generative-model service configuration.
func (m *Manager) GetGeminiConfig() *domain.GeminiConfig {
	return &m.config.Gemini
}

// Validate validates the configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Gemini.BaseURL == "" {
		return fmt.Errorf("gemini base URL is required")
	}
	if config.Gemini.Model == "" {
		return fmt.Errorf("gemini model is required")
	}
	if config.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required (set SOAPNOTE_GEMINI_API_KEY)")
	}

	if config.Auth.Enabled && config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth is enabled but no JWT secret is configured")
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("invalid rate limit: %f requests per second", config.RateLimit.RequestsPerSecond)
		}
		if config.RateLimit.Burst <= 0 {
			return fmt.Errorf("invalid rate limit burst: %d", config.RateLimit.Burst)
		}
	}

	if config.Cache.DenylistEnabled && config.Cache.RedisURL == "" {
		return fmt.Errorf("token denylist is enabled but no Redis URL is configured")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
