package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RecipePath string `validate:"required"` // hcl file or directory

	LogFormat       string `validate:"oneof=text json"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	HealthcheckPort int    `validate:"min=0,max=65535"`
	// Workers is the queue's worker slot count. 0 keeps the queue default.
	Workers int `validate:"min=0"`
	// Iterations overrides the recipe's iteration count when positive.
	Iterations int `validate:"min=0"`
	// TraceExporter selects where run spans go. Empty means none.
	TraceExporter string `validate:"omitempty,oneof=none stdout"`
	// PlanNodes limits the plan output to these node identifiers.
	PlanNodes []string `validate:"dive,required"`
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
