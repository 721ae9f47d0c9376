package matcher

import (
	"fmt"
	"math"
)

// Default matching parameters. Tolerance applies to both weight and volume
// sums; the exact cap bounds combinatorial cost at C(18,k) in the worst case.
const (
	DefaultTolerance       = 0.10
	DefaultMaxExactItems   = 18
	DefaultMaxSearchPasses = 300
)

// MatchingConfig holds the tunable parameters of the subset matcher. A config
// is constructed per reconciliation run and never mutated during one.
type MatchingConfig struct {
	// Tolerance is the permitted absolute deviation of the picked subset's
	// weight and volume sums from the invoice targets.
	Tolerance float64

	// MaxExactItems is the largest pool for which every k-combination is
	// enumerated; larger pools use the greedy local search.
	MaxExactItems int

	// MaxSearchPasses bounds the local search of the approximate matcher.
	MaxSearchPasses int

	// KnownVendors gates candidate pools: a target whose vendor part is not
	// in this set gets an empty pool.
	KnownVendors map[string]bool
}

// DefaultMatchingConfig returns the configuration used in production runs.
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Tolerance:       DefaultTolerance,
		MaxExactItems:   DefaultMaxExactItems,
		MaxSearchPasses: DefaultMaxSearchPasses,
		KnownVendors: map[string]bool{
			"HE": true, "SIM": true, "SCT": true, "SEI": true,
			"PPL": true, "MOSB": true, "ALM": true, "SHU": true,
			"NIE": true, "ALS": true, "SKM": true, "SAS": true,
		},
	}
}

// Validate validates the matching configuration.
func (c *MatchingConfig) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %f", c.Tolerance)
	}

	if c.MaxExactItems < 1 {
		return fmt.Errorf("max exact items must be at least 1, got %d", c.MaxExactItems)
	}

	if c.MaxSearchPasses < 1 {
		return fmt.Errorf("max search passes must be at least 1, got %d", c.MaxSearchPasses)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *MatchingConfig) Clone() *MatchingConfig {
	clone := &MatchingConfig{
		Tolerance:       c.Tolerance,
		MaxExactItems:   c.MaxExactItems,
		MaxSearchPasses: c.MaxSearchPasses,
		KnownVendors:    make(map[string]bool, len(c.KnownVendors)),
	}
	for vendor, ok := range c.KnownVendors {
		clone.KnownVendors[vendor] = ok
	}
	return clone
}

// WithinTolerance reports whether two values are within the configured
// tolerance of each other.
func (c *MatchingConfig) WithinTolerance(a, b float64) bool {
	return math.Abs(a-b) <= c.Tolerance
}

// IsKnownVendor reports whether a vendor code is recognized. An empty vendor
// set disables the gate.
func (c *MatchingConfig) IsKnownVendor(vendor string) bool {
	if len(c.KnownVendors) == 0 {
		return true
	}
	return c.KnownVendors[vendor]
}
