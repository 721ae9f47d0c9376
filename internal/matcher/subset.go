package matcher

import (
	"math"
	"sort"
)

// subsetOutcome is the raw result of a subset search over parallel
// weight/volume slices. Picked holds indices into those slices.
type subsetOutcome struct {
	Found     bool
	Picked    []int
	SumWeight float64
	SumVolume float64
	HasSums   bool
}

func sumAt(values []float64, picked []int) float64 {
	total := 0.0
	for _, i := range picked {
		total += values[i]
	}
	return total
}

func withinTol(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// exactSubsetMatch enumerates every k-combination of the items in a fixed
// lexicographic order and returns the first one whose weight and volume sums
// are both within tolerance of the targets.
//
// This is deliberately a first-fit search: ties are broken by enumeration
// order, and the search stops at the first feasible combination rather than
// the closest one. Callers must cap n before invoking; cost is C(n,k) in the
// worst case.
func exactSubsetMatch(weights, volumes []float64, k int, weightTarget, volumeTarget, tol float64) subsetOutcome {
	n := len(weights)
	if k <= 0 || n < k {
		return subsetOutcome{}
	}

	// Lexicographic combination enumeration over index slices.
	comb := make([]int, k)
	for i := range comb {
		comb[i] = i
	}

	for {
		sumWeight := sumAt(weights, comb)
		sumVolume := sumAt(volumes, comb)
		if withinTol(sumWeight, weightTarget, tol) && withinTol(sumVolume, volumeTarget, tol) {
			picked := make([]int, k)
			copy(picked, comb)
			return subsetOutcome{
				Found:     true,
				Picked:    picked,
				SumWeight: sumWeight,
				SumVolume: sumVolume,
				HasSums:   true,
			}
		}

		// Advance to the next combination.
		i := k - 1
		for i >= 0 && comb[i] == n-k+i {
			i--
		}
		if i < 0 {
			return subsetOutcome{}
		}
		comb[i]++
		for j := i + 1; j < k; j++ {
			comb[j] = comb[j-1] + 1
		}
	}
}

// greedyInit scores every item and returns the k lowest-scoring indices as
// the initial selection. The score blends two signals: distance of the
// item's weight/volume ratio from the target ratio (weight 0.6) and the
// item's deviation from the mean of target-normalized weights and volumes
// (weight 0.4).
func greedyInit(weights, volumes []float64, k int, weightTarget, volumeTarget float64) []int {
	n := len(weights)

	ratioTarget := weightTarget / math.Max(volumeTarget, 1e-6)

	weightNorm := make([]float64, n)
	volumeNorm := make([]float64, n)
	weightNormMean := 0.0
	volumeNormMean := 0.0
	for i := 0; i < n; i++ {
		weightNorm[i] = weights[i] / math.Max(weightTarget, 1e-6)
		volumeNorm[i] = volumes[i] / math.Max(volumeTarget, 1e-6)
		weightNormMean += weightNorm[i]
		volumeNormMean += volumeNorm[i]
	}
	weightNormMean /= float64(n)
	volumeNormMean /= float64(n)

	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		ratio := weights[i] / math.Max(volumes[i], 1e-6)
		ratioScore := math.Abs(ratio - ratioTarget)
		spreadScore := math.Abs(weightNorm[i]-weightNormMean) + math.Abs(volumeNorm[i]-volumeNormMean)
		scores[i] = 0.6*ratioScore + 0.4*spreadScore
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	picked := make([]int, k)
	copy(picked, order[:k])
	return picked
}

// greedyLocalSearch is the approximate matcher for pools too large to
// enumerate. It seeds a selection with greedyInit and then runs up to
// maxPasses of local search: each pass evaluates replacing every selected
// item with every unselected item against an immutable snapshot of the
// current selection, and commits only the single best strictly-improving
// swap. The search stops early the moment both sums are within tolerance,
// and terminates when a pass finds no improving swap.
//
// The total error |Δweight| + |Δvolume| never increases from one pass to the
// next. Unlike the exact path, the final sums are reported even on failure
// so that callers can surface how close the best attempt came.
func greedyLocalSearch(weights, volumes []float64, k int, weightTarget, volumeTarget, tol float64, maxPasses int) subsetOutcome {
	n := len(weights)
	if k <= 0 || n < k {
		return subsetOutcome{}
	}

	picked := greedyInit(weights, volumes, k, weightTarget, volumeTarget)

	sumWeight := sumAt(weights, picked)
	sumVolume := sumAt(volumes, picked)
	if withinTol(sumWeight, weightTarget, tol) && withinTol(sumVolume, volumeTarget, tol) {
		return subsetOutcome{Found: true, Picked: picked, SumWeight: sumWeight, SumVolume: sumVolume, HasSums: true}
	}

	errorOf := func(w, v float64) float64 {
		return math.Abs(w-weightTarget) + math.Abs(v-volumeTarget)
	}

	selected := make(map[int]bool, k)
	for _, i := range picked {
		selected[i] = true
	}
	bestError := errorOf(sumWeight, sumVolume)

	for pass := 0; pass < maxPasses; pass++ {
		bestSlot, bestIn := -1, -1
		bestSwapError := bestError
		var bestSwapWeight, bestSwapVolume float64

		// Evaluate every swap against the snapshot taken at the start of
		// the pass; nothing is committed until the pass ends.
	scan:
		for slot := 0; slot < k; slot++ {
			out := picked[slot]
			for in := 0; in < n; in++ {
				if selected[in] {
					continue
				}

				trialWeight := sumWeight - weights[out] + weights[in]
				trialVolume := sumVolume - volumes[out] + volumes[in]
				trialError := errorOf(trialWeight, trialVolume)

				if trialError < bestSwapError {
					bestSlot, bestIn = slot, in
					bestSwapError = trialError
					bestSwapWeight, bestSwapVolume = trialWeight, trialVolume

					if trialError == 0 {
						break scan
					}
				}
			}
		}

		if bestSlot < 0 {
			break // no strictly-improving swap left
		}

		delete(selected, picked[bestSlot])
		selected[bestIn] = true
		picked[bestSlot] = bestIn
		sumWeight, sumVolume = bestSwapWeight, bestSwapVolume
		bestError = bestSwapError

		if withinTol(sumWeight, weightTarget, tol) && withinTol(sumVolume, volumeTarget, tol) {
			return subsetOutcome{Found: true, Picked: picked, SumWeight: sumWeight, SumVolume: sumVolume, HasSums: true}
		}
	}

	found := withinTol(sumWeight, weightTarget, tol) && withinTol(sumVolume, volumeTarget, tol)
	return subsetOutcome{Found: found, Picked: picked, SumWeight: sumWeight, SumVolume: sumVolume, HasSums: true}
}
