package engine

import (
	"github.com/go-playground/validator/v10"

	"github.com/quantmill/mlbacktest/pkg/errors"
)

// Config holds the run-wide engine parameters shared by every strategy
// evaluated in the same session.
type Config struct {
	// InitialCapital is the cash the portfolio starts with.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"required,gt=0"`
	// ShowProgress renders a progress bar while bars are processed.
	ShowProgress bool `yaml:"show_progress" json:"show_progress"`
}

// DefaultConfig returns the engine defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100000,
		ShowProgress:   true,
	}
}

// Validate rejects unusable engine parameters before any run starts.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid engine config", err)
	}

	return nil
}
