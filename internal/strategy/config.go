// Package strategy defines the parametric trading presets and the pure signal
// evaluation rules they drive. The conservative and aggressive variants differ
// only in configuration values; both run one shared algorithm.
package strategy

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/quantmill/mlbacktest/internal/types"
	"github.com/quantmill/mlbacktest/pkg/errors"
)

// Config holds the immutable per-variant parameters of one trading preset.
type Config struct {
	Name string `yaml:"name" json:"name" validate:"required" jsonschema:"title=Name,description=Preset name used in reasons and output paths"`
	// PositionSizeFraction is the fraction of available capital committed per
	// entry, in (0, 1].
	PositionSizeFraction float64 `yaml:"position_size_fraction" json:"position_size_fraction" validate:"required,gt=0,lte=1" jsonschema:"title=Position Size Fraction,minimum=0,maximum=1"`
	// StopLossFraction is the loss fraction below the entry price that forces
	// an exit vote.
	StopLossFraction float64 `yaml:"stop_loss_fraction" json:"stop_loss_fraction" validate:"required,gt=0,lt=1" jsonschema:"title=Stop Loss Fraction,minimum=0,maximum=1"`
	// TrailingStopReference names the indicator used as the trailing stop floor.
	TrailingStopReference types.IndicatorName `yaml:"trailing_stop_reference" json:"trailing_stop_reference" validate:"required,oneof=SMA10 SMA20 SMA50 SMA100 SMA200" jsonschema:"title=Trailing Stop Reference"`
	// MinEntrySignals is the vote count required to enter, the fused model
	// vote included.
	MinEntrySignals int `yaml:"min_entry_signals" json:"min_entry_signals" validate:"required,gt=0" jsonschema:"title=Minimum Entry Signals,minimum=1"`
	// MinExitSignals is the vote count required to exit, the fused model vote
	// included.
	MinExitSignals int `yaml:"min_exit_signals" json:"min_exit_signals" validate:"required,gt=0" jsonschema:"title=Minimum Exit Signals,minimum=1"`
	// RSIOversoldThreshold is the RSI level below which the oversold entry
	// vote fires.
	RSIOversoldThreshold float64 `yaml:"rsi_oversold_threshold" json:"rsi_oversold_threshold" validate:"required,gt=0,lt=100" jsonschema:"title=RSI Oversold Threshold,minimum=0,maximum=100"`
	// BBProximityFactor widens the Bollinger band proximity tests for both
	// entry (lower band) and exit (upper band).
	BBProximityFactor float64 `yaml:"bb_proximity_factor" json:"bb_proximity_factor" validate:"gte=0,lt=1" jsonschema:"title=Bollinger Proximity Factor,minimum=0"`
	// LowerBandExit switches the band exit rule: false keeps the upper-band
	// proximity exit, true replaces it with the unconditional lower-band
	// breach exit.
	LowerBandExit bool `yaml:"lower_band_exit" json:"lower_band_exit" jsonschema:"title=Lower Band Exit"`
}

// Conservative returns the conservative preset: half-size entries and three
// confirming votes on both sides.
func Conservative() Config {
	return Config{
		Name:                  "conservative",
		PositionSizeFraction:  0.50,
		StopLossFraction:      0.05,
		TrailingStopReference: types.IndicatorSMA50,
		MinEntrySignals:       3,
		MinExitSignals:        3,
		RSIOversoldThreshold:  40,
		BBProximityFactor:     0.01,
		LowerBandExit:         false,
	}
}

// Aggressive returns the aggressive preset: larger entries, two votes, and
// the lower-band breach exit in place of the upper-band proximity exit.
func Aggressive() Config {
	return Config{
		Name:                  "aggressive",
		PositionSizeFraction:  0.70,
		StopLossFraction:      0.05,
		TrailingStopReference: types.IndicatorSMA50,
		MinEntrySignals:       2,
		MinExitSignals:        2,
		RSIOversoldThreshold:  45,
		BBProximityFactor:     0.02,
		LowerBandExit:         true,
	}
}

// Presets returns the built-in preset by name.
func Presets(name string) (Config, error) {
	switch name {
	case "conservative":
		return Conservative(), nil
	case "aggressive":
		return Aggressive(), nil
	default:
		return Config{}, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy preset %q", name)
	}
}

// Validate checks the configuration invariants. All violations are rejected
// at construction, before any run starts.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	return nil
}

// LoadConfig reads and validates a preset from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to read strategy config", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse strategy config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// GenerateSchemaJSON generates a JSON schema string for Config, for editor
// support when writing preset files.
func GenerateSchemaJSON() (string, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "strategy-config"
	schema.Description = "Configuration schema for a trading strategy preset"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
