package rans

import (
	"github.com/pkg/errors"

	"github.com/xann16/simple-rans/model"
)

// A Config selects the model and precision of a Codec.
type Config struct {
	// Precision is the total mass exponent N of the model.
	Precision uint `json:"precision"`

	// Model is the kind of model the codec derives; only Quantized and Alias can be coded.
	Model model.Kind `json:"model"`

	// Smooth gives every symbol present in a block at least one unit of mass
	// instead of failing with model.ErrDegenerateModel.
	Smooth bool `json:"smooth"`

	// Verbose logs every coding step.
	Verbose bool `json:"verbose"`
}

// DefaultConfig returns an alias model at the default precision.
func DefaultConfig() Config {
	return Config{Precision: model.DefaultPrecision, Model: model.Alias}
}

// Validate reports whether the configuration can code width-bit symbols.
func (cfg Config) Validate(width uint) error {
	switch cfg.Model {
	case model.Quantized, model.Alias:
	default:
		return errors.Wrapf(ErrUnsupportedModel, "%v", cfg.Model)
	}
	if cfg.Precision < width || cfg.Precision > model.MaxPrecision {
		return errors.Wrapf(model.ErrInvalidPrecision, "%d for %d-bit symbols, want [%d, %d]", cfg.Precision, width, width, model.MaxPrecision)
	}
	return nil
}

func (cfg Config) params() model.Params {
	return model.Params{Precision: cfg.Precision, Smooth: cfg.Smooth, Rate: model.DefaultRate}
}
