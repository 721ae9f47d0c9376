package billing

import (
	"testing"

	"github.com/shopspring/decimal"

	"warehouse-reconciliation-service/internal/models"
)

func makeLine(warehouse, amount string) *models.MonthlyInvoiceLine {
	amt, _ := decimal.NewFromString(amount)
	return &models.MonthlyInvoiceLine{
		Month:     "2025-06",
		Warehouse: warehouse,
		Amount:    amt,
	}
}

func TestVerifyLine_RatePass(t *testing.T) {
	// 120.5 sqm at 47.0 AED/sqm gives a system amount of 5663.50; an invoice
	// of 5600.00 is about 1.13% off, inside the 2% threshold.
	verifier := NewVerifier(nil)

	record := verifier.VerifyLine(makeLine("DSV Indoor", "5600.00"), 120.5)

	if record.Verdict != models.VerdictPass {
		t.Fatalf("Expected PASS, got %s (delta %s%%)", record.Verdict, record.DeltaPct)
	}

	want, _ := decimal.NewFromString("5663.50")
	if !record.SystemAmount.Equal(want) {
		t.Errorf("System amount = %s, want %s", record.SystemAmount, want)
	}

	if record.Mode != ModeRate {
		t.Errorf("Expected rate mode, got %s", record.Mode)
	}
}

func TestVerifyLine_RateWarn(t *testing.T) {
	// 100 sqm at 18.0 gives 1800.00; an invoice of 1740.00 is about 3.4% off,
	// past the 2% threshold but inside the 5% warning band.
	verifier := NewVerifier(nil)

	record := verifier.VerifyLine(makeLine("DSV Outdoor", "1740.00"), 100.0)

	if record.Verdict != models.VerdictWarn {
		t.Fatalf("Expected WARN, got %s (delta %s%%)", record.Verdict, record.DeltaPct)
	}

	if record.Reason != models.ReasonProrationMismatch {
		t.Errorf("Expected reason %s, got %s", models.ReasonProrationMismatch, record.Reason)
	}
}

func TestVerifyLine_RateFailProration(t *testing.T) {
	verifier := NewVerifier(nil)

	record := verifier.VerifyLine(makeLine("DSV MZP", "2000.00"), 100.0) // system 3300.00

	if record.Verdict != models.VerdictFail {
		t.Fatalf("Expected FAIL, got %s", record.Verdict)
	}

	if record.Reason != models.ReasonProrationMismatch {
		t.Errorf("Expected reason %s, got %s", models.ReasonProrationMismatch, record.Reason)
	}
}

func TestVerifyLine_RateFailRateDiff(t *testing.T) {
	// The invoice line carries its own rate; when that rate disagrees with the
	// contract, the failure is attributed to the rate, not the proration.
	verifier := NewVerifier(nil)

	line := makeLine("DSV Indoor", "5200.00")
	line.Rate = decimal.NewFromInt(52)
	line.BilledSqm = 100.0

	record := verifier.VerifyLine(line, 100.0) // system 4700.00, ~9.6% off

	if record.Verdict != models.VerdictFail {
		t.Fatalf("Expected FAIL, got %s", record.Verdict)
	}

	if record.Reason != models.ReasonRateDiff {
		t.Errorf("Expected reason %s, got %s", models.ReasonRateDiff, record.Reason)
	}
}

func TestVerifyLine_RateImpliedFromAmount(t *testing.T) {
	// No explicit rate column: the implied rate falls back to amount divided
	// by billed area. 5200 / 100 = 52, still a rate mismatch.
	verifier := NewVerifier(nil)

	line := makeLine("DSV Indoor", "5200.00")
	line.BilledSqm = 100.0

	record := verifier.VerifyLine(line, 100.0)

	if record.Reason != models.ReasonRateDiff {
		t.Errorf("Expected reason %s, got %s", models.ReasonRateDiff, record.Reason)
	}
}

func TestVerifyLine_RateZeroInvoice(t *testing.T) {
	// A zero invoice amount grades as a zero relative delta.
	verifier := NewVerifier(nil)

	record := verifier.VerifyLine(makeLine("DSV Indoor", "0"), 50.0)

	if record.Verdict != models.VerdictPass {
		t.Errorf("Expected PASS for zero invoice amount, got %s", record.Verdict)
	}

	if !record.DeltaPct.IsZero() {
		t.Errorf("Expected zero relative delta, got %s", record.DeltaPct)
	}
}

func TestVerifyLine_Passthrough(t *testing.T) {
	verifier := NewVerifier(nil)

	record := verifier.VerifyLine(makeLine("AAA Storage", "1234.56"), 0)

	if record.Verdict != models.VerdictPass {
		t.Errorf("Expected PASS, got %s", record.Verdict)
	}

	if !record.SystemAmount.Equal(record.InvoiceAmount) {
		t.Errorf("Passthrough system amount %s must equal invoice amount %s",
			record.SystemAmount, record.InvoiceAmount)
	}
}

func TestVerifyLine_NoChargeZero(t *testing.T) {
	verifier := NewVerifier(nil)

	record := verifier.VerifyLine(makeLine("MOSB", "0"), 250.0)

	if record.Verdict != models.VerdictPass {
		t.Errorf("Expected PASS for zero no-charge invoice, got %s", record.Verdict)
	}

	if !record.SystemAmount.IsZero() {
		t.Errorf("No-charge system amount must be zero regardless of occupancy, got %s", record.SystemAmount)
	}
}

func TestVerifyLine_NoChargeViolation(t *testing.T) {
	verifier := NewVerifier(nil)

	record := verifier.VerifyLine(makeLine("MOSB", "10.00"), 250.0)

	if record.Verdict != models.VerdictFail {
		t.Fatalf("Expected FAIL, got %s", record.Verdict)
	}

	if record.Reason != models.ReasonNoChargeViolation {
		t.Errorf("Expected reason %s, got %s", models.ReasonNoChargeViolation, record.Reason)
	}
}

func TestVerifyLine_UnknownWarehouse(t *testing.T) {
	verifier := NewVerifier(nil)

	record := verifier.VerifyLine(makeLine("Central Depot", "100.00"), 10.0)

	if record.Verdict != models.VerdictFail {
		t.Fatalf("Expected FAIL, got %s", record.Verdict)
	}

	if record.Reason != models.ReasonModeMissing {
		t.Errorf("Expected reason %s, got %s", models.ReasonModeMissing, record.Reason)
	}

	if record.Mode != ModeUnknown {
		t.Errorf("Expected unknown mode, got %s", record.Mode)
	}
}
