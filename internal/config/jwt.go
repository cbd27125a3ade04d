package config

import (
	"fmt"
	"time"
)

// JWTConfig holds configuration for session token signing and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// JWT returns the session token configuration. A secret is required.
func (c *Config) JWT() (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret:          c.Auth.JWTSecret,
		ExpirationHours: c.Auth.ExpirationHours,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Expiration returns the token lifetime.
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required but not set", ErrInvalidConfig)
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("%w: JWT_SECRET must be at least 16 characters", ErrInvalidConfig)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("%w: auth.expiration_hours must be at least 1 hour, got: %d", ErrInvalidConfig, c.ExpirationHours)
	}
	return nil
}
