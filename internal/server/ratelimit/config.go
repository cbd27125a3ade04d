package ratelimit

import (
	"strings"
	"time"

	"github.com/techieRahul17/intervuex/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// FromConfig builds the limiter configuration from the server section of the process config.
func FromConfig(rl config.RateLimitConfig) *Config {
	if !rl.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    rl.DefaultLimit,
		DefaultWindow:   rl.DefaultWindow,
		CleanupInterval: rl.CleanupInterval,
		Whitelist:       ipSet(rl.Whitelist),
		Blacklist:       ipSet(rl.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Calls that reach a paid upstream model or transcription service.
		{Path: "/generate_question", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/transcribe", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Code evaluation burns CPU in the embedded runtime.
		{Path: "/evaluate", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/challenges/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// Writes
		{Path: "/challenges", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/auth/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/sessions/", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// ipSet trims and indexes a list of client addresses.
func ipSet(list []string) map[string]bool {
	result := make(map[string]bool, len(list))
	for _, ip := range list {
		// A single env value may carry a comma-separated list.
		for _, part := range strings.Split(ip, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result[part] = true
			}
		}
	}
	return result
}
