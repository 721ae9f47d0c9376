package matcher

import (
	"warehouse-reconciliation-service/internal/models"
)

// Explode splits each candidate record into package-granularity units: a
// record with n packages contributes n units, each carrying weight and volume
// equal to the record's totals divided by n.
//
// The even split is a modeling choice, not an inference: packages within one
// shipment line are treated as mass-indistinguishable because no
// finer-grained data exists. Records with a package count of zero or less
// contribute no units.
//
// Unit RecordIndex values point into the records slice; re-summing all units
// of a record reproduces its totals within floating-point rounding.
func Explode(records []*models.ShipmentRecord) []models.PackageUnit {
	var units []models.PackageUnit

	for recordIndex, record := range records {
		count := record.PackageCount
		if count <= 0 {
			continue
		}

		unitWeight := record.GrossWeight / float64(count)
		unitVolume := record.Volume / float64(count)

		for i := 0; i < count; i++ {
			units = append(units, models.PackageUnit{
				RecordIndex: recordIndex,
				UnitIndex:   i + 1,
				Weight:      unitWeight,
				Volume:      unitVolume,
			})
		}
	}

	return units
}
