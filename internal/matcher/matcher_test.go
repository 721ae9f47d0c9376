package matcher

import (
	"math"
	"testing"

	"warehouse-reconciliation-service/internal/models"
)

func TestNewMatchingEngine(t *testing.T) {
	engine := NewMatchingEngine(nil)
	if engine == nil {
		t.Fatal("Expected matching engine to be created")
	}

	config := engine.Config()
	if config.Tolerance != DefaultTolerance {
		t.Errorf("Expected default tolerance %f, got %f", DefaultTolerance, config.Tolerance)
	}
}

func TestMatchTarget_ExactPass(t *testing.T) {
	// Two records, five units total; the target claims three packages whose
	// unit sums land exactly on the invoice figures.
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-HE-0087", 2, 20.0, 2.0), // units of (10.0, 1.0)
		makeRecord("HVDC-ADOPT-HE-0090", 3, 36.0, 4.5), // units of (12.0, 1.5)
	}
	target := makeTarget("HVDC-ADOPT-HE-0087,90", 3, 32.0, 3.5)

	engine := NewMatchingEngine(nil)
	result := engine.MatchTarget(records, target)

	if result.Verdict != models.VerdictPass {
		t.Fatalf("Expected PASS, got %s (method %s, sums %f/%f)",
			result.Verdict, result.Method, result.SumWeight, result.SumVolume)
	}

	if !result.Method.IsExact() || !result.Method.IsExploded() {
		t.Errorf("Expected an exact exploded method, got %s", result.Method)
	}

	if math.Abs(result.SumWeight-32.0) > DefaultTolerance {
		t.Errorf("Weight sum %f outside tolerance of 32.0", result.SumWeight)
	}

	if len(result.Picked) != 3 {
		t.Errorf("Expected 3 picked units, got %d", len(result.Picked))
	}
}

func TestMatchTarget_NoCandidate(t *testing.T) {
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-SIM-0500", 2, 20.0, 2.0),
	}
	target := makeTarget("HVDC-ADOPT-HE-0087", 2, 20.0, 2.0)

	engine := NewMatchingEngine(nil)
	result := engine.MatchTarget(records, target)

	if result.Verdict != models.VerdictFail {
		t.Errorf("Expected FAIL, got %s", result.Verdict)
	}

	if result.Method != MethodNoCandidate {
		t.Errorf("Expected method %s, got %s", MethodNoCandidate, result.Method)
	}

	if result.Reason != models.ReasonNoCandidate {
		t.Errorf("Expected reason %s, got %s", models.ReasonNoCandidate, result.Reason)
	}
}

func TestMatchTarget_InvalidPackageCount(t *testing.T) {
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-HE-0087", 2, 20.0, 2.0),
	}
	target := makeTarget("HVDC-ADOPT-HE-0087", 0, 20.0, 2.0)

	engine := NewMatchingEngine(nil)
	result := engine.MatchTarget(records, target)

	if result.Method != MethodInvalid {
		t.Errorf("Expected method %s, got %s", MethodInvalid, result.Method)
	}

	if result.Reason != models.ReasonInvalidPkgCount {
		t.Errorf("Expected reason %s, got %s", models.ReasonInvalidPkgCount, result.Reason)
	}
}

func TestMatchTarget_NoUnits(t *testing.T) {
	// Candidates exist but none can contribute package units.
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-HE-0087", 0, 20.0, 2.0),
	}
	target := makeTarget("HVDC-ADOPT-HE-0087", 2, 20.0, 2.0)

	engine := NewMatchingEngine(nil)
	result := engine.MatchTarget(records, target)

	if result.Method != MethodNoUnits {
		t.Errorf("Expected method %s, got %s", MethodNoUnits, result.Method)
	}

	if result.Reason != models.ReasonNoUnits {
		t.Errorf("Expected reason %s, got %s", models.ReasonNoUnits, result.Reason)
	}
}

func TestMatchTarget_SubsetNotFound(t *testing.T) {
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-HE-0087", 2, 2.0, 0.2),
	}
	target := makeTarget("HVDC-ADOPT-HE-0087", 2, 500.0, 50.0)

	engine := NewMatchingEngine(nil)
	result := engine.MatchTarget(records, target)

	if result.Verdict != models.VerdictFail {
		t.Errorf("Expected FAIL, got %s", result.Verdict)
	}

	if result.Reason != models.ReasonSubsetNotFound {
		t.Errorf("Expected reason %s, got %s", models.ReasonSubsetNotFound, result.Reason)
	}
}

func TestMatchTarget_LargePoolUsesRobustMethod(t *testing.T) {
	// 20 single-package records exceed the exact cap of 18, forcing the
	// approximate path. The engine must terminate and report a verdict.
	var records []*models.ShipmentRecord
	for i := 0; i < 20; i++ {
		code := "HVDC-ADOPT-HE-0325"
		records = append(records, makeRecord(code, 1, 10.0+float64(i)*0.01, 1.0))
	}
	target := makeTarget("HVDC-ADOPT-HE-0325", 3, 30.03, 3.0)

	engine := NewMatchingEngine(nil)
	result := engine.MatchTarget(records, target)

	if result.Method.IsExact() {
		t.Errorf("Expected a robust method for a 20-unit pool, got %s", result.Method)
	}

	if !result.Verdict.IsValid() {
		t.Errorf("Expected a definite verdict, got %q", result.Verdict)
	}
}

func TestMatchTarget_DoesNotMutateRecords(t *testing.T) {
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-HE-0087", 2, 20.0, 2.0),
		makeRecord("HVDC-ADOPT-HE-0090", 3, 36.0, 4.5),
	}
	snapshot := []models.ShipmentRecord{*records[0], *records[1]}

	engine := NewMatchingEngine(nil)
	engine.MatchTarget(records, makeTarget("HVDC-ADOPT-HE-0087,90", 3, 32.0, 3.5))
	engine.MatchTarget(records, makeTarget("HVDC-ADOPT-HE-0087", 2, 20.0, 2.0))

	for i := range records {
		if *records[i] != snapshot[i] {
			t.Errorf("Record %d mutated during matching", i)
		}
	}
}
