package billing

import (
	"math"
	"testing"
	"time"

	"warehouse-reconciliation-service/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestOccupiedDays(t *testing.T) {
	june := month(2025, time.June)

	tests := []struct {
		name     string
		inbound  *time.Time
		outbound *time.Time
		expected int
	}{
		{"full month", date(2025, time.May, 10), date(2025, time.July, 5), 30},
		{"enters mid-month", date(2025, time.June, 16), date(2025, time.July, 1), 15},
		{"leaves mid-month", date(2025, time.May, 1), date(2025, time.June, 11), 10},
		{"within month", date(2025, time.June, 5), date(2025, time.June, 25), 20},
		{"open-ended clips to month end", date(2025, time.June, 21), nil, 10},
		{"left before month", date(2025, time.April, 1), date(2025, time.May, 20), 0},
		{"arrives after month", date(2025, time.July, 2), nil, 0},
		{"no inbound date", nil, date(2025, time.June, 15), 0},
		{"same-day turnaround", date(2025, time.June, 10), date(2025, time.June, 10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &models.ShipmentRecord{InboundDate: tt.inbound, OutboundDate: tt.outbound}
			if got := OccupiedDays(record, june); got != tt.expected {
				t.Errorf("OccupiedDays = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(month(2025, time.June)); got != 30 {
		t.Errorf("June has %d days, want 30", got)
	}
	if got := DaysInMonth(month(2024, time.February)); got != 29 {
		t.Errorf("Feb 2024 has %d days, want 29", got)
	}
}

func TestMonthlyOccupancy(t *testing.T) {
	config := DefaultConfig()
	june := month(2025, time.June)

	records := []*models.ShipmentRecord{
		// Full month at 100 sqm: contributes 100.
		{Location: "DSV Indoor", AreaSqm: 100.0, InboundDate: date(2025, time.May, 1)},
		// Half of June (15 of 30 days) at 60 sqm: contributes 30.
		{Location: "DSVIndoor", AreaSqm: 60.0, InboundDate: date(2025, time.June, 16)},
		// Different warehouse, aggregated separately.
		{Location: "DSV Outdoor", AreaSqm: 40.0, InboundDate: date(2025, time.June, 1), OutboundDate: date(2025, time.July, 1)},
		// Left before June: no contribution anywhere.
		{Location: "MOSB", AreaSqm: 500.0, InboundDate: date(2025, time.March, 1), OutboundDate: date(2025, time.April, 1)},
		// Zero area never contributes.
		{Location: "DSV Indoor", AreaSqm: 0.0, InboundDate: date(2025, time.June, 1)},
	}

	occupancy := MonthlyOccupancy(records, june, config)

	if len(occupancy) != 2 {
		t.Fatalf("Expected 2 warehouses with residency, got %d: %v", len(occupancy), occupancy)
	}

	if got := occupancy["DSV Indoor"]; math.Abs(got-130.0) > 1e-9 {
		t.Errorf("DSV Indoor occupancy = %f, want 130.0", got)
	}

	if got := occupancy["DSV Outdoor"]; math.Abs(got-40.0) > 1e-9 {
		t.Errorf("DSV Outdoor occupancy = %f, want 40.0", got)
	}

	if _, ok := occupancy["MOSB"]; ok {
		t.Error("Warehouse with zero residency must be omitted, not zero-filled")
	}
}
