package billing

import (
	"time"

	"warehouse-reconciliation-service/internal/models"
)

// OccupiedDays returns the number of days a record resides in a warehouse
// within the given calendar month. Residency is the half-open interval
// [inbound, outbound) clipped to month boundaries; a record without an
// outbound event still occupies the warehouse, so its interval is clipped to
// the month's end. A record with no inbound date occupies nothing.
func OccupiedDays(record *models.ShipmentRecord, month time.Time) int {
	if record.InboundDate == nil {
		return 0
	}

	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	start := record.InboundDate.Truncate(24 * time.Hour)
	if start.Before(monthStart) {
		start = monthStart
	}

	end := monthEnd
	if record.OutboundDate != nil {
		out := record.OutboundDate.Truncate(24 * time.Hour)
		if out.Before(end) {
			end = out
		}
	}

	if !end.After(start) {
		return 0
	}

	return int(end.Sub(start).Hours() / 24)
}

// DaysInMonth returns the number of calendar days in the month containing t.
func DaysInMonth(t time.Time) int {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return int(start.AddDate(0, 1, 0).Sub(start).Hours() / 24)
}

// MonthlyOccupancy computes the day-weighted average occupied square meters
// per warehouse for one calendar month. Each record contributes its area
// scaled by the fraction of the month it resides; contributions are summed
// per normalized warehouse name. Warehouses with zero qualifying residency
// are omitted rather than zero-filled, so callers can tell "absent" from
// "present but empty".
func MonthlyOccupancy(records []*models.ShipmentRecord, month time.Time, config *Config) map[string]float64 {
	days := float64(DaysInMonth(month))
	occupancy := make(map[string]float64)

	for _, record := range records {
		occupied := OccupiedDays(record, month)
		if occupied == 0 || record.AreaSqm <= 0 {
			continue
		}

		warehouse := config.NormalizeWarehouse(record.Location)
		if warehouse == "" {
			continue
		}

		occupancy[warehouse] += record.AreaSqm * float64(occupied) / days
	}

	return occupancy
}
