package matcher

import (
	"strings"

	"warehouse-reconciliation-service/internal/codes"
	"warehouse-reconciliation-service/internal/models"
)

// CandidatePool is the set of shipment records eligible to satisfy one
// invoice line target. Pools are rebuilt per target and never shared.
type CandidatePool struct {
	Records []*models.ShipmentRecord

	// TargetParts are the structural parts of the target's base identifier,
	// used for the prefix criterion.
	TargetParts [5]string
}

// PackageSum returns the total package count across the pool.
func (p *CandidatePool) PackageSum() int {
	sum := 0
	for _, r := range p.Records {
		if r.PackageCount > 0 {
			sum += r.PackageCount
		}
	}
	return sum
}

// Size returns the number of candidate records.
func (p *CandidatePool) Size() int {
	return len(p.Records)
}

// BuildCandidatePool selects the shipment records eligible for a target: a
// record qualifies when its canonical code is in the target's expanded set,
// or when its first four structural parts equal the target's. The prefix
// criterion tolerates shorthand that expanded imperfectly but still shares
// the structural base.
//
// Targets with an unrecognized vendor part produce an empty pool. The
// function is a pure filter over the record set; an empty pool is a valid
// result that downstream reports as NO_CANDIDATE.
func BuildCandidatePool(records []*models.ShipmentRecord, target *models.InvoiceLineTarget, config *MatchingConfig) *CandidatePool {
	baseCode := target.RawCode
	if i := strings.Index(baseCode, ","); i >= 0 {
		baseCode = baseCode[:i]
	}
	parts := codes.Split(baseCode)

	pool := &CandidatePool{TargetParts: parts}

	if !config.IsKnownVendor(parts[2]) {
		return pool
	}

	expanded := make(map[string]bool, len(target.Expanded))
	for _, code := range target.Expanded {
		expanded[code] = true
	}

	prefixUsable := parts[0] != "" && parts[1] != "" && parts[2] != "" && parts[3] != ""

	for _, record := range records {
		if expanded[record.Code] {
			pool.Records = append(pool.Records, record)
			continue
		}

		if prefixUsable &&
			record.CodeParts[0] == parts[0] &&
			record.CodeParts[1] == parts[1] &&
			record.CodeParts[2] == parts[2] &&
			record.CodeParts[3] == parts[3] {
			pool.Records = append(pool.Records, record)
		}
	}

	return pool
}
