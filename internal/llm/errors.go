package llm

import "fmt"

// ConfigError represents a missing or invalid client configuration
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("llm config error: %s", e.Message)
}

// GenerationError represents a failed or unusable model response
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
