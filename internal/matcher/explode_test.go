package matcher

import (
	"math"
	"testing"

	"warehouse-reconciliation-service/internal/models"
)

func TestExplode_SumsReproduceTotals(t *testing.T) {
	records := []*models.ShipmentRecord{
		{Code: "HVDC-ADOPT-HE-0001", PackageCount: 3, GrossWeight: 10.0, Volume: 0.9},
		{Code: "HVDC-ADOPT-HE-0002", PackageCount: 7, GrossWeight: 123.4, Volume: 5.67},
	}

	units := Explode(records)

	if len(units) != 10 {
		t.Fatalf("Expected 10 units, got %d", len(units))
	}

	sums := make(map[int][2]float64)
	for _, u := range units {
		s := sums[u.RecordIndex]
		s[0] += u.Weight
		s[1] += u.Volume
		sums[u.RecordIndex] = s
	}

	for i, record := range records {
		if math.Abs(sums[i][0]-record.GrossWeight) > 1e-9 {
			t.Errorf("Record %d: unit weights sum to %f, want %f", i, sums[i][0], record.GrossWeight)
		}
		if math.Abs(sums[i][1]-record.Volume) > 1e-9 {
			t.Errorf("Record %d: unit volumes sum to %f, want %f", i, sums[i][1], record.Volume)
		}
	}
}

func TestExplode_EvenSplit(t *testing.T) {
	records := []*models.ShipmentRecord{
		{Code: "HVDC-ADOPT-SIM-0005", PackageCount: 4, GrossWeight: 100.0, Volume: 8.0},
	}

	units := Explode(records)

	for _, u := range units {
		if u.Weight != 25.0 {
			t.Errorf("Expected unit weight 25.0, got %f", u.Weight)
		}
		if u.Volume != 2.0 {
			t.Errorf("Expected unit volume 2.0, got %f", u.Volume)
		}
	}
}

func TestExplode_SkipsInvalidPackageCounts(t *testing.T) {
	records := []*models.ShipmentRecord{
		{Code: "HVDC-ADOPT-HE-0001", PackageCount: 0, GrossWeight: 50.0, Volume: 5.0},
		{Code: "HVDC-ADOPT-HE-0002", PackageCount: -2, GrossWeight: 50.0, Volume: 5.0},
		{Code: "HVDC-ADOPT-HE-0003", PackageCount: 2, GrossWeight: 50.0, Volume: 5.0},
	}

	units := Explode(records)

	if len(units) != 2 {
		t.Fatalf("Expected 2 units from the single valid record, got %d", len(units))
	}

	for _, u := range units {
		if u.RecordIndex != 2 {
			t.Errorf("Expected units to reference record 2, got %d", u.RecordIndex)
		}
	}
}

func TestExplode_Empty(t *testing.T) {
	if units := Explode(nil); len(units) != 0 {
		t.Errorf("Expected no units for empty input, got %d", len(units))
	}
}
