package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"warehouse-reconciliation-service/internal/models"
	"warehouse-reconciliation-service/pkg/logger"
)

// rateEpsilon bounds the permitted difference between the contract rate and
// the rate implied by the invoice line before RATE_DIFF is raised.
var rateEpsilon = decimal.New(1, -6)

// WarehouseBillingRecord is the verification result for one warehouse and
// billing month. One record exists per (month, warehouse) pair.
type WarehouseBillingRecord struct {
	Month     string `json:"month"`
	Warehouse string `json:"warehouse"` // normalized
	Mode      Mode   `json:"mode"`

	ContractRate   decimal.Decimal `json:"contract_rate"`
	AvgOccupiedSqm float64         `json:"avg_occupied_sqm"`

	SystemAmount  decimal.Decimal `json:"system_amount"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	DeltaAbs      decimal.Decimal `json:"delta_abs"`
	DeltaPct      decimal.Decimal `json:"delta_pct"`

	Verdict models.Verdict    `json:"verdict"`
	Reason  models.ReasonCode `json:"reason,omitempty"`
}

// String returns a one-line summary of the billing record.
func (r *WarehouseBillingRecord) String() string {
	return fmt.Sprintf("BillingRecord{%s %s mode=%s system=%s invoice=%s verdict=%s}",
		r.Month, r.Warehouse, r.Mode, r.SystemAmount, r.InvoiceAmount, r.Verdict)
}

// Verifier checks reported warehouse charges against recomputed system
// amounts using the mode tables of its configuration.
type Verifier struct {
	config *Config
	logger logger.Logger
}

// NewVerifier creates a billing verifier with the given configuration.
func NewVerifier(config *Config) *Verifier {
	if config == nil {
		config = DefaultConfig()
	}

	return &Verifier{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("billing"),
	}
}

// Config returns the verifier's configuration.
func (v *Verifier) Config() *Config {
	return v.config
}

// VerifyLine verifies one reported warehouse charge. avgOccupiedSqm is the
// day-weighted occupancy computed for the line's warehouse and month; it is
// ignored for passthrough and no-charge warehouses, whose amounts are not
// rate-derived.
func (v *Verifier) VerifyLine(line *models.MonthlyInvoiceLine, avgOccupiedSqm float64) *WarehouseBillingRecord {
	warehouse := v.config.NormalizeWarehouse(line.Warehouse)
	mode := v.config.Classify(line.Warehouse)

	record := &WarehouseBillingRecord{
		Month:          line.Month,
		Warehouse:      warehouse,
		Mode:           mode,
		ContractRate:   v.config.RateFor(line.Warehouse),
		AvgOccupiedSqm: avgOccupiedSqm,
		InvoiceAmount:  line.Amount,
	}

	switch mode {
	case ModeRate:
		v.verifyRate(record, line, avgOccupiedSqm)
	case ModePassthrough:
		v.verifyPassthrough(record)
	case ModeNoCharge:
		v.verifyNoCharge(record)
	default:
		record.Verdict = models.VerdictFail
		record.Reason = models.ReasonModeMissing
	}

	v.logger.WithFields(logger.Fields{
		"month":     record.Month,
		"warehouse": record.Warehouse,
		"mode":      record.Mode.String(),
		"verdict":   record.Verdict.String(),
	}).Debug("Verified warehouse billing line")

	return record
}

// verifyRate recomputes the system amount as occupancy times contract rate
// and grades the relative delta against the PASS and WARN thresholds. A zero
// invoice amount grades as a zero relative delta.
func (v *Verifier) verifyRate(record *WarehouseBillingRecord, line *models.MonthlyInvoiceLine, avgOccupiedSqm float64) {
	record.SystemAmount = record.ContractRate.Mul(decimal.NewFromFloat(avgOccupiedSqm)).Round(2)
	record.DeltaAbs = record.InvoiceAmount.Sub(record.SystemAmount).Abs()

	if record.InvoiceAmount.IsZero() {
		record.DeltaPct = decimal.Zero
	} else {
		record.DeltaPct = record.DeltaAbs.Div(record.InvoiceAmount).Mul(decimal.NewFromInt(100))
	}

	switch {
	case record.DeltaPct.LessThanOrEqual(v.config.PassThresholdPct):
		record.Verdict = models.VerdictPass
	case record.DeltaPct.LessThanOrEqual(v.config.WarnThresholdPct):
		record.Verdict = models.VerdictWarn
		record.Reason = v.rateReason(record, line)
	default:
		record.Verdict = models.VerdictFail
		record.Reason = v.rateReason(record, line)
	}
}

// rateReason distinguishes a wrong rate from a wrong proration: if the rate
// implied by the invoice line disagrees with the contract rate the charge was
// computed at the wrong price, otherwise the occupancy itself diverges.
func (v *Verifier) rateReason(record *WarehouseBillingRecord, line *models.MonthlyInvoiceLine) models.ReasonCode {
	implied := line.Rate
	if implied.IsZero() && line.BilledSqm > 0 {
		implied = line.Amount.Div(decimal.NewFromFloat(line.BilledSqm))
	}

	if !implied.IsZero() && implied.Sub(record.ContractRate).Abs().GreaterThan(rateEpsilon) {
		return models.ReasonRateDiff
	}
	return models.ReasonProrationMismatch
}

// verifyPassthrough takes the invoice amount as the system amount and checks
// only the sanity bound. The mode cannot fail unless the reconciliation data
// itself is corrupt.
func (v *Verifier) verifyPassthrough(record *WarehouseBillingRecord) {
	record.SystemAmount = record.InvoiceAmount
	record.DeltaAbs = record.InvoiceAmount.Sub(record.SystemAmount).Abs()
	record.DeltaPct = decimal.Zero

	if record.DeltaAbs.LessThan(v.config.PassthroughBound) {
		record.Verdict = models.VerdictPass
	} else {
		record.Verdict = models.VerdictFail
		record.Reason = models.ReasonPassthroughMismatch
	}
}

// verifyNoCharge requires the invoice amount to be exactly zero. Occupancy
// is irrelevant: the system amount of a no-charge warehouse is always zero.
func (v *Verifier) verifyNoCharge(record *WarehouseBillingRecord) {
	record.SystemAmount = decimal.Zero
	record.DeltaAbs = record.InvoiceAmount.Abs()
	record.DeltaPct = decimal.Zero

	if record.InvoiceAmount.IsZero() {
		record.Verdict = models.VerdictPass
	} else {
		record.Verdict = models.VerdictFail
		record.Reason = models.ReasonNoChargeViolation
	}
}
