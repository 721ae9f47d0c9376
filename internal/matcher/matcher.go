// Package matcher implements the per-invoice-line subset matching engine.
//
// For each invoice line target the engine builds a candidate pool from the
// authoritative shipment records, explodes the pool into package units, and
// searches for k units whose weight and volume sums fall within tolerance of
// the invoice claim. Small pools are enumerated exactly; large pools use a
// scored greedy selection refined by local search. A separate search over the
// unexploded records runs as well, and the better of the two results wins.
package matcher

import (
	"math"

	"warehouse-reconciliation-service/internal/models"
	"warehouse-reconciliation-service/pkg/logger"
)

// Method tags how a match result was produced, for audit.
type Method string

const (
	MethodInvalid        Method = "invalid"
	MethodNoCandidate    Method = "no-candidate"
	MethodNoUnits        Method = "no-units"
	MethodExact          Method = "exact"
	MethodRobust         Method = "robust-greedy-local"
	MethodExactExploded  Method = "exact-exploded"
	MethodRobustExploded Method = "robust-greedy-local-exploded"
)

// IsExact reports whether the method found its subset by exhaustive
// enumeration.
func (m Method) IsExact() bool {
	return m == MethodExact || m == MethodExactExploded
}

// IsExploded reports whether the method searched package units rather than
// whole records.
func (m Method) IsExploded() bool {
	return m == MethodExactExploded || m == MethodRobustExploded
}

// MatchResult is the verdict for one invoice line target.
type MatchResult struct {
	Target *models.InvoiceLineTarget

	Found  bool
	Method Method

	// Picked holds the selected items: package units for exploded methods,
	// one whole-record pseudo-unit per picked record otherwise.
	Picked []models.PackageUnit

	CandidateCount int
	PoolPackageSum int

	// Achieved sums and signed errors, valid only when HasSums is set.
	SumWeight float64
	SumVolume float64
	ErrWeight float64
	ErrVolume float64
	HasSums   bool

	PackageOK bool
	WeightOK  bool
	VolumeOK  bool

	Verdict models.Verdict
	Reason  models.ReasonCode
}

// MatchingEngine runs subset matching for invoice line targets. The engine is
// stateless between targets: each call builds its own pool and discards it
// with the result.
type MatchingEngine struct {
	config *MatchingConfig
	logger logger.Logger
}

// NewMatchingEngine creates a matching engine with the given configuration.
func NewMatchingEngine(config *MatchingConfig) *MatchingEngine {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	return &MatchingEngine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// Config returns a copy of the engine configuration.
func (me *MatchingEngine) Config() *MatchingConfig {
	return me.config.Clone()
}

// MatchTarget matches one invoice line target against the shipment record
// set. The record set is treated as read-only; failures of any kind are
// reported in the result, never as errors.
func (me *MatchingEngine) MatchTarget(records []*models.ShipmentRecord, target *models.InvoiceLineTarget) *MatchResult {
	result := &MatchResult{
		Target:  target,
		Method:  MethodInvalid,
		Verdict: models.VerdictFail,
	}

	k := target.PackageCount
	if k <= 0 {
		result.Reason = models.ReasonInvalidPkgCount
		return result
	}

	pool := BuildCandidatePool(records, target, me.config)
	result.CandidateCount = pool.Size()
	result.PoolPackageSum = pool.PackageSum()

	if pool.Size() == 0 {
		result.Method = MethodNoCandidate
		result.Reason = models.ReasonNoCandidate
		return result
	}

	if result.PoolPackageSum == 0 {
		result.Method = MethodNoUnits
		result.Reason = models.ReasonNoUnits
		return result
	}

	result.PackageOK = result.PoolPackageSum >= k

	units := Explode(pool.Records)
	exploded, explodedMethod := me.searchUnits(unitWeights(units), unitVolumes(units), k, target)
	raw, rawMethod := me.searchUnits(recordWeights(pool.Records), recordVolumes(pool.Records), k, target)

	outcome, method := chooseOutcome(exploded, explodedMethod, raw, rawMethod, target)

	result.Method = method
	result.Found = outcome.Found
	if outcome.HasSums {
		result.HasSums = true
		result.SumWeight = outcome.SumWeight
		result.SumVolume = outcome.SumVolume
		result.ErrWeight = outcome.SumWeight - target.GrossWeight
		result.ErrVolume = outcome.SumVolume - target.Volume
		result.WeightOK = math.Abs(result.ErrWeight) <= me.config.Tolerance
		result.VolumeOK = math.Abs(result.ErrVolume) <= me.config.Tolerance
	}

	result.Picked = pickedItems(outcome, method, units, pool.Records)

	if result.Found && result.PackageOK && result.WeightOK && result.VolumeOK {
		result.Verdict = models.VerdictPass
	} else {
		result.Verdict = models.VerdictFail
		result.Reason = models.ReasonSubsetNotFound
	}

	me.logger.WithFields(logger.Fields{
		"code":       target.RawCode,
		"candidates": result.CandidateCount,
		"method":     string(result.Method),
		"verdict":    result.Verdict.String(),
	}).Debug("Matched invoice line target")

	return result
}

// searchUnits runs the exact or approximate subset search depending on pool
// size.
func (me *MatchingEngine) searchUnits(weights, volumes []float64, k int, target *models.InvoiceLineTarget) (subsetOutcome, Method) {
	if len(weights) <= me.config.MaxExactItems {
		outcome := exactSubsetMatch(weights, volumes, k, target.GrossWeight, target.Volume, me.config.Tolerance)
		return outcome, MethodExact
	}

	outcome := greedyLocalSearch(weights, volumes, k, target.GrossWeight, target.Volume, me.config.Tolerance, me.config.MaxSearchPasses)
	return outcome, MethodRobust
}

// chooseOutcome picks the better of the exploded and whole-record search
// results: an exact find beats a robust find, and among non-exact finds the
// smaller total error wins. When neither search succeeded the exploded
// attempt is reported, since its units are the primary matching granularity.
func chooseOutcome(exploded subsetOutcome, explodedMethod Method, raw subsetOutcome, rawMethod Method, target *models.InvoiceLineTarget) (subsetOutcome, Method) {
	explodedTag := explodedMethod
	if explodedTag == MethodExact {
		explodedTag = MethodExactExploded
	} else {
		explodedTag = MethodRobustExploded
	}

	switch {
	case exploded.Found && explodedTag.IsExact():
		return exploded, explodedTag
	case raw.Found && rawMethod.IsExact():
		return raw, rawMethod
	case exploded.Found && raw.Found:
		if totalError(raw, target) < totalError(exploded, target) {
			return raw, rawMethod
		}
		return exploded, explodedTag
	case exploded.Found:
		return exploded, explodedTag
	case raw.Found:
		return raw, rawMethod
	default:
		return exploded, explodedTag
	}
}

func totalError(o subsetOutcome, target *models.InvoiceLineTarget) float64 {
	if !o.HasSums {
		return math.Inf(1)
	}
	return math.Abs(o.SumWeight-target.GrossWeight) + math.Abs(o.SumVolume-target.Volume)
}

// pickedItems maps the outcome's indices back to traceable items.
func pickedItems(outcome subsetOutcome, method Method, units []models.PackageUnit, records []*models.ShipmentRecord) []models.PackageUnit {
	if len(outcome.Picked) == 0 {
		return nil
	}

	picked := make([]models.PackageUnit, 0, len(outcome.Picked))
	if method.IsExploded() {
		for _, i := range outcome.Picked {
			if i >= 0 && i < len(units) {
				picked = append(picked, units[i])
			}
		}
		return picked
	}

	for _, i := range outcome.Picked {
		if i >= 0 && i < len(records) {
			picked = append(picked, models.PackageUnit{
				RecordIndex: i,
				UnitIndex:   0,
				Weight:      records[i].GrossWeight,
				Volume:      records[i].Volume,
			})
		}
	}
	return picked
}

func unitWeights(units []models.PackageUnit) []float64 {
	weights := make([]float64, len(units))
	for i, u := range units {
		weights[i] = u.Weight
	}
	return weights
}

func unitVolumes(units []models.PackageUnit) []float64 {
	volumes := make([]float64, len(units))
	for i, u := range units {
		volumes[i] = u.Volume
	}
	return volumes
}

func recordWeights(records []*models.ShipmentRecord) []float64 {
	weights := make([]float64, len(records))
	for i, r := range records {
		weights[i] = r.GrossWeight
	}
	return weights
}

func recordVolumes(records []*models.ShipmentRecord) []float64 {
	volumes := make([]float64, len(records))
	for i, r := range records {
		volumes[i] = r.Volume
	}
	return volumes
}
