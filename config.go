package redos

import "github.com/coregx/redos/pump"

// Config bounds the work a single check may do.
//
// Example:
//
//	config := redos.DefaultConfig()
//	config.MaxPairVisits = 100_000 // search harder before giving up
//	result, err := redos.CheckWithConfig(`(x+x+)+y`, config)
type Config struct {
	// MaxPairVisits caps the distinct state/transition pairs the pumpability
	// search visits per decision point. Exceeding it yields an Inconclusive
	// verdict.
	// Default: 10000
	MaxPairVisits int

	// MaxRecursionDepth limits group nesting during NFA compilation.
	// Default: 100
	MaxRecursionDepth int

	// MaxStates limits the number of states allocated while compiling, before
	// simplification. Counted repetitions are unrolled, so a{1000} alone
	// needs a thousand states.
	// Default: 100000
	MaxStates int
}

// DefaultConfig returns the configuration used by Check.
func DefaultConfig() Config {
	return Config{
		MaxPairVisits:     pump.DefaultMaxPairVisits,
		MaxRecursionDepth: 100,
		MaxStates:         100_000,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxPairVisits: 1 to 100,000,000
//   - MaxRecursionDepth: 10 to 1,000
//   - MaxStates: 1 to 10,000,000
func (c Config) Validate() error {
	if c.MaxPairVisits < 1 || c.MaxPairVisits > 100_000_000 {
		return &ConfigError{
			Field:   "MaxPairVisits",
			Message: "must be between 1 and 100,000,000",
		}
	}

	if c.MaxRecursionDepth < 10 || c.MaxRecursionDepth > 1_000 {
		return &ConfigError{
			Field:   "MaxRecursionDepth",
			Message: "must be between 10 and 1,000",
		}
	}

	if c.MaxStates < 1 || c.MaxStates > 10_000_000 {
		return &ConfigError{
			Field:   "MaxStates",
			Message: "must be between 1 and 10,000,000",
		}
	}

	return nil
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "redos: invalid config: " + e.Field + ": " + e.Message
}
