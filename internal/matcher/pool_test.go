package matcher

import (
	"testing"

	"warehouse-reconciliation-service/internal/codes"
	"warehouse-reconciliation-service/internal/models"
)

func makeRecord(code string, pkg int, gw, cbm float64) *models.ShipmentRecord {
	return &models.ShipmentRecord{
		Code:         codes.Normalize(code),
		CodeParts:    codes.Split(code),
		VendorCode:   codes.Split(code)[2],
		PackageCount: pkg,
		GrossWeight:  gw,
		Volume:       cbm,
	}
}

func makeTarget(rawCode string, k int, gw, cbm float64) *models.InvoiceLineTarget {
	return &models.InvoiceLineTarget{
		RawCode:      rawCode,
		Expanded:     codes.Expand(rawCode),
		PackageCount: k,
		GrossWeight:  gw,
		Volume:       cbm,
	}
}

func TestBuildCandidatePool_ExpandedSetMembership(t *testing.T) {
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-HE-0087", 1, 10.0, 1.0),
		makeRecord("HVDC-ADOPT-HE-0090", 1, 20.0, 2.0),
		makeRecord("HVDC-ADOPT-SIM-0200", 1, 30.0, 3.0),
	}
	target := makeTarget("HVDC-ADOPT-HE-0087,90", 2, 30.0, 3.0)

	pool := BuildCandidatePool(records, target, DefaultMatchingConfig())

	if pool.Size() != 2 {
		t.Fatalf("Expected 2 candidates, got %d", pool.Size())
	}
}

func TestBuildCandidatePool_PrefixPartsMatch(t *testing.T) {
	// The record's sub identifier differs, but parts 1-4 align with the
	// target, so the structural prefix criterion admits it.
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-HE-0325-9", 1, 10.0, 1.0),
	}
	target := makeTarget("HVDC-ADOPT-HE-0325-1", 1, 10.0, 1.0)

	pool := BuildCandidatePool(records, target, DefaultMatchingConfig())

	if pool.Size() != 1 {
		t.Fatalf("Expected prefix-part match to admit the record, got %d candidates", pool.Size())
	}
}

func TestBuildCandidatePool_UnknownVendorYieldsEmptyPool(t *testing.T) {
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-ZZZ-0001", 1, 10.0, 1.0),
	}
	target := makeTarget("HVDC-ADOPT-ZZZ-0001", 1, 10.0, 1.0)

	pool := BuildCandidatePool(records, target, DefaultMatchingConfig())

	if pool.Size() != 0 {
		t.Errorf("Expected empty pool for unrecognized vendor, got %d candidates", pool.Size())
	}
}

func TestBuildCandidatePool_EmptyPoolIsValid(t *testing.T) {
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-SIM-0500", 1, 10.0, 1.0),
	}
	target := makeTarget("HVDC-ADOPT-HE-0087", 1, 10.0, 1.0)

	pool := BuildCandidatePool(records, target, DefaultMatchingConfig())

	if pool.Size() != 0 {
		t.Errorf("Expected no candidates, got %d", pool.Size())
	}
}

func TestCandidatePool_PackageSum(t *testing.T) {
	pool := &CandidatePool{
		Records: []*models.ShipmentRecord{
			makeRecord("HVDC-ADOPT-HE-0001", 3, 10.0, 1.0),
			makeRecord("HVDC-ADOPT-HE-0002", -1, 10.0, 1.0),
			makeRecord("HVDC-ADOPT-HE-0003", 4, 10.0, 1.0),
		},
	}

	if sum := pool.PackageSum(); sum != 7 {
		t.Errorf("Expected package sum 7 (negative counts excluded), got %d", sum)
	}
}

func TestBuildCandidatePool_IsPureFilter(t *testing.T) {
	records := []*models.ShipmentRecord{
		makeRecord("HVDC-ADOPT-HE-0087", 2, 10.0, 1.0),
	}
	target := makeTarget("HVDC-ADOPT-HE-0087", 2, 10.0, 1.0)

	original := *records[0]
	BuildCandidatePool(records, target, DefaultMatchingConfig())

	if *records[0] != original {
		t.Error("Candidate pool construction must not mutate the record set")
	}
}
