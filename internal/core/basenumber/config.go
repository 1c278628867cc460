package basenumber

import (
	"time"

	"sfgnexus/internal/core/apperror"
)

// Config holds allocation configuration.
type Config struct {
	// SequenceID identifies the singleton Sequence row.
	SequenceID string

	// StartValue is written on bootstrap; the first allocation returns StartValue+1.
	StartValue int64

	// MaxAttempts bounds the number of transactions tried per allocation.
	MaxAttempts int

	// RetryBackoff is the base delay between attempts, multiplied by the
	// attempt number and jittered.
	RetryBackoff time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SequenceID:   "base_number",
		StartValue:   10000,
		MaxAttempts:  5,
		RetryBackoff: 5 * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
// A zero StartValue is kept: starting from zero is legitimate.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.SequenceID == "" {
		c.SequenceID = def.SequenceID
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	return c
}

// Validate rejects configurations that could only ever produce numbers that
// are not valid BaseNumbers.
func (c Config) Validate() error {
	if c.StartValue < 0 {
		return apperror.NewValidation("sequence start value must not be negative").
			WithDetail("startValue", c.StartValue)
	}
	return nil
}
