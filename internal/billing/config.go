// Package billing classifies warehouses into billing modes, computes
// day-weighted occupancy, and verifies per-warehouse-month invoice amounts
// against recomputed system amounts.
package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode is the billing policy of a warehouse. Every normalized warehouse name
// maps to exactly one mode; names the classifier does not recognize are
// ModeUnknown, never silently coerced to a default.
type Mode string

const (
	ModeRate        Mode = "rate"
	ModePassthrough Mode = "passthrough"
	ModeNoCharge    Mode = "no-charge"
	ModeUnknown     Mode = "unknown"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Config holds the warehouse classification tables and verification
// thresholds for one reconciliation run. Externally supplied mappings replace
// the defaults wholesale; the verifier never falls back behind the caller's
// back.
type Config struct {
	// Variants maps each canonical warehouse name to the spellings that
	// should normalize to it. The canonical name itself is always a variant.
	Variants map[string][]string

	// Modes maps canonical warehouse names to their billing mode.
	Modes map[string]Mode

	// Rates maps canonical warehouse names to their contract rate in
	// currency per square meter per month. Passthrough and no-charge
	// warehouses carry zero because their charge is not rate-derived.
	Rates map[string]decimal.Decimal

	// PassThresholdPct and WarnThresholdPct bound the relative delta, in
	// percent, for rate-mode verdicts.
	PassThresholdPct decimal.Decimal
	WarnThresholdPct decimal.Decimal

	// PassthroughBound is the sanity bound, in currency units, on the
	// absolute delta of a passthrough line.
	PassthroughBound decimal.Decimal
}

// DefaultConfig returns the contract tables and thresholds used in
// production runs.
func DefaultConfig() *Config {
	return &Config{
		Variants: map[string][]string{
			"DSV Al Markaz": {"DSV Al Markaz", "DSV AlMarkaz", "Al Markaz", "AlMarkaz"},
			"DSV Indoor":    {"DSV Indoor", "DSVIndoor", "Indoor"},
			"DSV Outdoor":   {"DSV Outdoor", "DSVOutdoor", "Outdoor"},
			"DSV MZP":       {"DSV MZP", "DSVMZP", "MZP"},
			"AAA Storage":   {"AAA Storage", "AAAStorage", "AAA"},
			"Hauler Indoor": {"Hauler Indoor", "HaulerIndoor", "Hauler"},
			"DHL Warehouse": {"DHL Warehouse", "DHLWarehouse", "DHL"},
			"MOSB":          {"MOSB", "MOSB Storage"},
		},
		Modes: map[string]Mode{
			"DSV Outdoor":   ModeRate,
			"DSV MZP":       ModeRate,
			"DSV Indoor":    ModeRate,
			"DSV Al Markaz": ModeRate,
			"AAA Storage":   ModePassthrough,
			"Hauler Indoor": ModePassthrough,
			"DHL Warehouse": ModePassthrough,
			"MOSB":          ModeNoCharge,
		},
		Rates: map[string]decimal.Decimal{
			"DSV Outdoor":   decimal.NewFromFloat(18.0),
			"DSV MZP":       decimal.NewFromFloat(33.0),
			"DSV Indoor":    decimal.NewFromFloat(47.0),
			"DSV Al Markaz": decimal.NewFromFloat(47.0),
			"AAA Storage":   decimal.Zero,
			"Hauler Indoor": decimal.Zero,
			"DHL Warehouse": decimal.Zero,
			"MOSB":          decimal.Zero,
		},
		PassThresholdPct: decimal.NewFromInt(2),
		WarnThresholdPct: decimal.NewFromInt(5),
		PassthroughBound: decimal.NewFromFloat(0.5),
	}
}

// Validate validates the billing configuration.
func (c *Config) Validate() error {
	if c.PassThresholdPct.IsNegative() {
		return fmt.Errorf("pass threshold cannot be negative: %s", c.PassThresholdPct)
	}

	if c.WarnThresholdPct.LessThan(c.PassThresholdPct) {
		return fmt.Errorf("warn threshold %s cannot be below pass threshold %s",
			c.WarnThresholdPct, c.PassThresholdPct)
	}

	if c.PassthroughBound.IsNegative() {
		return fmt.Errorf("passthrough bound cannot be negative: %s", c.PassthroughBound)
	}

	for name, mode := range c.Modes {
		rate, ok := c.Rates[name]
		if !ok {
			return fmt.Errorf("warehouse '%s' has a mode but no rate entry", name)
		}

		switch mode {
		case ModeRate:
			if !rate.IsPositive() {
				return fmt.Errorf("rate-mode warehouse '%s' must carry a positive rate, got %s", name, rate)
			}
		case ModePassthrough, ModeNoCharge:
			if !rate.IsZero() {
				return fmt.Errorf("%s warehouse '%s' must carry a zero rate, got %s", mode, name, rate)
			}
		default:
			return fmt.Errorf("warehouse '%s' has invalid mode '%s'", name, mode)
		}
	}

	return nil
}

// NormalizeWarehouse maps a reported warehouse name onto its canonical form.
// Exact variant membership wins; failing that, case-insensitive substring
// containment in either direction; failing that, the input comes back
// unchanged so the caller can classify it as unknown.
func (c *Config) NormalizeWarehouse(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	// Sorted canonical order keeps substring resolution deterministic when a
	// name grazes variants of more than one warehouse.
	canonicals := make([]string, 0, len(c.Variants))
	for canonical := range c.Variants {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		for _, variant := range c.Variants[canonical] {
			if name == variant {
				return canonical
			}
		}
	}

	lower := strings.ToLower(name)
	for _, canonical := range canonicals {
		for _, variant := range c.Variants[canonical] {
			variantLower := strings.ToLower(variant)
			if strings.Contains(lower, variantLower) || strings.Contains(variantLower, lower) {
				return canonical
			}
		}
	}

	return name
}

// Classify normalizes a warehouse name and returns its billing mode.
func (c *Config) Classify(name string) Mode {
	canonical := c.NormalizeWarehouse(name)
	if mode, ok := c.Modes[canonical]; ok {
		return mode
	}
	return ModeUnknown
}

// RateFor returns the contract rate of a warehouse after normalization. The
// rate for an unrecognized warehouse is zero.
func (c *Config) RateFor(name string) decimal.Decimal {
	canonical := c.NormalizeWarehouse(name)
	if rate, ok := c.Rates[canonical]; ok {
		return rate
	}
	return decimal.Zero
}
