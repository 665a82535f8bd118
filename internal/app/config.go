package app

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// GraphPaths are HCL documents or directories, or a single saved
	// document (.yaml, .yml, .fgb).
	GraphPaths []string `validate:"required,min=1,dive,required"`
	// Pattern selects HCL documents inside directories.
	Pattern string
	// Events are the entry nodes to trigger, in order. Empty means every
	// event node.
	Events []string `validate:"dive,required"`

	// CheckOnly stops after reporting diagnostics.
	CheckOnly bool
	// EmitPath receives the emitted Go program instead of running the
	// graph; "-" writes to the output.
	EmitPath string
	// SavePath receives the loaded graph as a document.
	SavePath string

	// MaxTicks bounds the scheduler; 0 runs until idle.
	MaxTicks     int           `validate:"gte=0"`
	TickInterval time.Duration `validate:"gt=0"`

	LogFormat   string `validate:"oneof=text json"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	MetricsPort int    `validate:"gte=0,lte=65535"`
}

var validate = validator.New()

// NewConfig fills defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.TickInterval == 0 {
		cfg.TickInterval = 10 * time.Millisecond
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
