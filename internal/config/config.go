// Package config loads and validates process configuration.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full process configuration.
type Config struct {
	// Env selects logging format and other dev conveniences: "production" or "development".
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`

	Server    ServerConfig    `koanf:"server"`
	Evaluator EvaluatorConfig `koanf:"evaluator"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	LLM       LLMConfig       `koanf:"llm"`
	Speech    SpeechConfig    `koanf:"speech"`
	Meeting   MeetingConfig   `koanf:"meeting"`
	Stream    StreamConfig    `koanf:"stream"`
	Auth      AuthConfig      `koanf:"auth"`
	Session   SessionConfig   `koanf:"session"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string          `koanf:"addr"`
	CORSOrigin      string          `koanf:"cors_origin"`
	ShutdownTimeout time.Duration   `koanf:"shutdown_timeout"`
	RateLimit       RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig configures the per-client token buckets. Endpoint limits are fixed in code.
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	DefaultLimit    int           `koanf:"default_limit"`
	DefaultWindow   time.Duration `koanf:"default_window"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	Whitelist       []string      `koanf:"whitelist"`
	Blacklist       []string      `koanf:"blacklist"`
}

// EvaluatorConfig configures code evaluation.
type EvaluatorConfig struct {
	Concurrency      int           `koanf:"concurrency"`
	ExecutionTimeout time.Duration `koanf:"execution_timeout"`
	LatencyMin       time.Duration `koanf:"latency_min"`
	LatencyMax       time.Duration `koanf:"latency_max"`
}

// DatabaseConfig configures PostgreSQL. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL                     string        `koanf:"url"`
	TranscriptFlushInterval time.Duration `koanf:"transcript_flush_interval"`
}

// RedisConfig configures the question cache. An empty Addr selects the in-memory cache.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	TTL      time.Duration `koanf:"ttl"`
}

// LLMConfig configures question generation.
type LLMConfig struct {
	APIKey        string `koanf:"api_key"`
	Model         string `koanf:"model"`
	QuestionCount int    `koanf:"question_count"`
}

// SpeechConfig configures the transcription service.
type SpeechConfig struct {
	APIKey   string `koanf:"api_key"`
	Endpoint string `koanf:"endpoint"`
	Model    string `koanf:"model"`
}

// MeetingConfig configures the hosted video meeting tenant.
type MeetingConfig struct {
	Domain     string        `koanf:"domain"`
	AppID      string        `koanf:"app_id"`
	KeyID      string        `koanf:"key_id"`
	Room       string        `koanf:"room"`
	PrivateKey string        `koanf:"private_key"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
}

// StreamConfig configures the confidence poller. An empty URL disables it.
type StreamConfig struct {
	URL      string        `koanf:"url"`
	Interval time.Duration `koanf:"interval"`
}

// AuthConfig configures session tokens. Server-side sessions expire with their token.
type AuthConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	ExpirationHours int           `koanf:"expiration_hours"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// SessionConfig configures the CLI session file.
type SessionConfig struct {
	File string `koanf:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Env:      "production",
		LogLevel: "info",
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigin:      "*",
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:         true,
				DefaultLimit:    600,
				DefaultWindow:   time.Minute,
				CleanupInterval: 5 * time.Minute,
			},
		},
		Evaluator: EvaluatorConfig{
			Concurrency:      4,
			ExecutionTimeout: 5 * time.Second,
			LatencyMin:       100 * time.Millisecond,
			LatencyMax:       600 * time.Millisecond,
		},
		Database: DatabaseConfig{
			TranscriptFlushInterval: 5 * time.Second,
		},
		Redis: RedisConfig{
			TTL: time.Hour,
		},
		LLM: LLMConfig{
			Model:         "gemini-2.5-flash-lite",
			QuestionCount: 5,
		},
		Speech: SpeechConfig{
			Endpoint: "https://api.deepgram.com/v1/listen",
			Model:    "nova-2",
		},
		Meeting: MeetingConfig{
			Domain:   "8x8.vc",
			Room:     "InterVueX",
			TokenTTL: 2 * time.Hour,
		},
		Stream: StreamConfig{
			Interval: 3 * time.Second,
		},
		Auth: AuthConfig{
			ExpirationHours: 24,
			CleanupInterval: 5 * time.Minute,
		},
		Session: SessionConfig{
			File: ".intervuex/session.json",
		},
	}
}

// IsDevelopment reports whether Env selects development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Validate checks value ranges. Secrets are checked by the components that need them.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr must not be empty", ErrInvalidConfig)
	}
	if rl := c.Server.RateLimit; rl.Enabled && (rl.DefaultLimit < 1 || rl.DefaultWindow <= 0) {
		return fmt.Errorf("%w: server.rate_limit needs a positive default_limit and default_window", ErrInvalidConfig)
	}
	if c.Evaluator.Concurrency < 1 {
		return fmt.Errorf("%w: evaluator.concurrency must be at least 1, got %d", ErrInvalidConfig, c.Evaluator.Concurrency)
	}
	if c.Evaluator.ExecutionTimeout <= 0 {
		return fmt.Errorf("%w: evaluator.execution_timeout must be positive", ErrInvalidConfig)
	}
	if c.Evaluator.LatencyMin < 0 || c.Evaluator.LatencyMax < c.Evaluator.LatencyMin {
		return fmt.Errorf("%w: evaluator latency range [%s, %s] is invalid",
			ErrInvalidConfig, c.Evaluator.LatencyMin, c.Evaluator.LatencyMax)
	}
	if c.Database.TranscriptFlushInterval <= 0 {
		return fmt.Errorf("%w: database.transcript_flush_interval must be positive", ErrInvalidConfig)
	}
	if c.Stream.Interval <= 0 {
		return fmt.Errorf("%w: stream.interval must be positive", ErrInvalidConfig)
	}
	if c.LLM.QuestionCount < 1 {
		return fmt.Errorf("%w: llm.question_count must be at least 1", ErrInvalidConfig)
	}
	if c.Auth.ExpirationHours < 1 {
		return fmt.Errorf("%w: auth.expiration_hours must be at least 1 hour, got %d", ErrInvalidConfig, c.Auth.ExpirationHours)
	}
	return nil
}
