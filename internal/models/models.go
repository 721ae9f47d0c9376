// Package models defines the domain records exchanged between the parsers,
// the matching engine, and the billing verifier.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Verdict is the shared result vocabulary for match and billing rows.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictWarn Verdict = "WARN"
	VerdictFail Verdict = "FAIL"
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// IsValid checks if the verdict is one of the known values.
func (v Verdict) IsValid() bool {
	return v == VerdictPass || v == VerdictWarn || v == VerdictFail
}

// ReasonCode identifies why a row did not pass. Reason codes are attached to
// result rows and never abort the batch.
type ReasonCode string

const (
	ReasonNoCandidate         ReasonCode = "NO_CANDIDATE"
	ReasonInvalidPkgCount     ReasonCode = "INVALID_PKG_COUNT"
	ReasonNoUnits             ReasonCode = "NO_UNITS"
	ReasonSubsetNotFound      ReasonCode = "SUBSET_NOT_FOUND"
	ReasonModeMissing         ReasonCode = "MODE_MISSING"
	ReasonRateDiff            ReasonCode = "RATE_DIFF"
	ReasonProrationMismatch   ReasonCode = "PRORATION_MISMATCH"
	ReasonPassthroughMismatch ReasonCode = "PASSTHROUGH_MISMATCH"
	ReasonNoChargeViolation   ReasonCode = "NOCHARGE_VIOLATION"
)

// ShipmentRecord is one authoritative shipment line. Records are immutable
// once loaded; the matching engine treats the record set as read-only for the
// duration of a run.
type ShipmentRecord struct {
	Code         string     `json:"code"`
	CodeParts    [5]string  `json:"code_parts"`
	VendorCode   string     `json:"vendor_code"`
	PackageCount int        `json:"package_count"`
	GrossWeight  float64    `json:"gross_weight"`
	Volume       float64    `json:"volume"`
	AreaSqm      float64    `json:"area_sqm"`
	Location     string     `json:"location"`
	InboundDate  *time.Time `json:"inbound_date,omitempty"`
	OutboundDate *time.Time `json:"outbound_date,omitempty"`
}

// Validate performs basic validation on the ShipmentRecord.
func (r *ShipmentRecord) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("shipment code cannot be empty")
	}

	if r.PackageCount < 0 {
		return fmt.Errorf("package count cannot be negative: %d", r.PackageCount)
	}

	if r.GrossWeight < 0 {
		return fmt.Errorf("gross weight cannot be negative: %f", r.GrossWeight)
	}

	if r.Volume < 0 {
		return fmt.Errorf("volume cannot be negative: %f", r.Volume)
	}

	return nil
}

// HasValidPackages reports whether the record can contribute package units.
// A record with a package count of zero or less yields no units and cannot
// satisfy any target.
func (r *ShipmentRecord) HasValidPackages() bool {
	return r.PackageCount > 0
}

// String returns a string representation of the ShipmentRecord.
func (r *ShipmentRecord) String() string {
	return fmt.Sprintf("ShipmentRecord{Code: %s, Pkg: %d, GW: %.2f, CBM: %.2f, Location: %s}",
		r.Code, r.PackageCount, r.GrossWeight, r.Volume, r.Location)
}

// PackageUnit is an evenly divided fractional share of a shipment record,
// one per physical package. Units are ephemeral: they are derived per target
// and discarded with the match result. RecordIndex points back to the
// originating record in the candidate pool for traceability only.
type PackageUnit struct {
	RecordIndex int     `json:"record_index"`
	UnitIndex   int     `json:"unit_index"`
	Weight      float64 `json:"weight"`
	Volume      float64 `json:"volume"`
}

// InvoiceLineTarget is one distinct invoice identifier with its claimed
// package count, weight, and volume. Created once per identifier; read-only.
type InvoiceLineTarget struct {
	RawCode      string          `json:"raw_code"`
	Expanded     []string        `json:"expanded"`
	PackageCount int             `json:"package_count"`
	GrossWeight  float64         `json:"gross_weight"`
	Volume       float64         `json:"volume"`
	BillingMonth string          `json:"billing_month,omitempty"`
	Location     string          `json:"location,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
}

// Validate performs basic validation on the InvoiceLineTarget.
func (t *InvoiceLineTarget) Validate() error {
	if strings.TrimSpace(t.RawCode) == "" {
		return fmt.Errorf("invoice code cannot be empty")
	}

	if t.GrossWeight < 0 {
		return fmt.Errorf("target weight cannot be negative: %f", t.GrossWeight)
	}

	if t.Volume < 0 {
		return fmt.Errorf("target volume cannot be negative: %f", t.Volume)
	}

	return nil
}

// InExpanded reports whether a canonical code is in the target's expanded
// identifier set.
func (t *InvoiceLineTarget) InExpanded(code string) bool {
	for _, c := range t.Expanded {
		if c == code {
			return true
		}
	}
	return false
}

// ExpandedList returns the expanded set as a sorted, comma-joined string for
// report output.
func (t *InvoiceLineTarget) ExpandedList() string {
	codes := make([]string, len(t.Expanded))
	copy(codes, t.Expanded)
	sort.Strings(codes)
	return strings.Join(codes, ", ")
}

// MonthlyInvoiceLine is one reported warehouse charge for a billing month,
// as it appears on the invoice. The billing verifier reconciles these against
// recomputed system amounts.
type MonthlyInvoiceLine struct {
	Month     string          `json:"month"` // YYYY-MM
	Warehouse string          `json:"warehouse"`
	Amount    decimal.Decimal `json:"amount"`
	Rate      decimal.Decimal `json:"rate"`
	BilledSqm float64         `json:"billed_sqm"`
}

// Validate performs basic validation on the MonthlyInvoiceLine.
func (l *MonthlyInvoiceLine) Validate() error {
	if _, err := ParseMonth(l.Month); err != nil {
		return err
	}

	if strings.TrimSpace(l.Warehouse) == "" {
		return fmt.Errorf("warehouse name cannot be empty")
	}

	if l.Amount.IsNegative() {
		return fmt.Errorf("invoice amount cannot be negative: %s", l.Amount.String())
	}

	return nil
}

// ParseMonth parses a YYYY-MM billing month into the first instant of that
// month in UTC.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("billing month cannot be empty")
	}

	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid billing month '%s': %w", s, err)
	}
	return t, nil
}

// FormatMonth formats a timestamp as its YYYY-MM billing month.
func FormatMonth(t time.Time) string {
	return t.Format("2006-01")
}

// ParseFloat parses a float value from string, tolerating thousand
// separators and surrounding whitespace. An empty string parses to zero,
// matching how blank spreadsheet cells arrive from collaborators.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value '%s': %w", s, err)
	}
	return f, nil
}

// ParseCount parses a package count. Fractional counts are floored, matching
// the exploder's treatment of package counts.
func ParseCount(s string) (int, error) {
	f, err := ParseFloat(s)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// ParseDecimalFromString parses a decimal amount from string with validation.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}

	// Remove common currency markers and thousand separators
	s = strings.ReplaceAll(s, "AED", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseTimeWithFormats attempts to parse a timestamp using the formats that
// show up in shipment exports.
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"01/02/2006",
		"2006/01/02",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// ParseOptionalTime parses a timestamp that may legitimately be absent, such
// as the outbound date of a shipment still occupying a warehouse.
func ParseOptionalTime(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	t, err := ParseTimeWithFormats(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
