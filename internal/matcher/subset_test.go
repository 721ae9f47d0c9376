package matcher

import (
	"math"
	"testing"
)

func TestExactSubsetMatch_FindsTrueSubset(t *testing.T) {
	weights := []float64{5.0, 10.0, 15.0, 20.0}
	volumes := []float64{1.0, 2.0, 3.0, 4.0}

	// Items 1 and 2 sum to (25.0, 5.0).
	result := exactSubsetMatch(weights, volumes, 2, 25.0, 5.0, 0.10)

	if !result.Found {
		t.Fatal("Expected exact match to find the true subset")
	}

	if math.Abs(result.SumWeight-25.0) > 0.10 {
		t.Errorf("Weight sum %f not within tolerance of 25.0", result.SumWeight)
	}

	if math.Abs(result.SumVolume-5.0) > 0.10 {
		t.Errorf("Volume sum %f not within tolerance of 5.0", result.SumVolume)
	}
}

func TestExactSubsetMatch_FirstFit(t *testing.T) {
	// Both {0,1} and {2,3} sum to (10.0, 2.0). First-fit must return the
	// combination that comes first in enumeration order.
	weights := []float64{4.0, 6.0, 5.0, 5.0}
	volumes := []float64{1.0, 1.0, 1.0, 1.0}

	result := exactSubsetMatch(weights, volumes, 2, 10.0, 2.0, 0.10)

	if !result.Found {
		t.Fatal("Expected a match")
	}

	if result.Picked[0] != 0 || result.Picked[1] != 1 {
		t.Errorf("Expected first-fit subset [0 1], got %v", result.Picked)
	}
}

func TestExactSubsetMatch_NoSubset(t *testing.T) {
	weights := []float64{1.0, 2.0, 3.0}
	volumes := []float64{1.0, 1.0, 1.0}

	result := exactSubsetMatch(weights, volumes, 2, 100.0, 2.0, 0.10)

	if result.Found {
		t.Error("Expected no subset to be found")
	}

	if result.HasSums {
		t.Error("Expected no sums on a failed exact search")
	}
}

func TestExactSubsetMatch_InvalidInput(t *testing.T) {
	weights := []float64{1.0, 2.0}
	volumes := []float64{1.0, 1.0}

	if r := exactSubsetMatch(weights, volumes, 0, 1.0, 1.0, 0.10); r.Found {
		t.Error("Expected failure for k=0")
	}

	if r := exactSubsetMatch(weights, volumes, 3, 1.0, 1.0, 0.10); r.Found {
		t.Error("Expected failure when pool is smaller than k")
	}
}

func TestGreedyLocalSearch_FindsTargetViaSwap(t *testing.T) {
	// 19 small items and one large one; the only in-tolerance 3-subset
	// contains the large item, which the greedy init skips, so a local swap
	// must find it.
	n := 20
	weights := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n-1; i++ {
		weights[i] = 1.0
		volumes[i] = 1.0
	}
	weights[n-1] = 12.0
	volumes[n-1] = 12.0

	result := greedyLocalSearch(weights, volumes, 3, 14.0, 14.0, 0.10, DefaultMaxSearchPasses)

	if !result.Found {
		t.Fatalf("Expected the local search to find the subset, got sums (%f, %f)",
			result.SumWeight, result.SumVolume)
	}
}

func TestGreedyLocalSearch_TerminatesOnLargePool(t *testing.T) {
	// Pool of 20 units exceeds the exact threshold; the search must
	// terminate within the pass cap and report a definite outcome.
	n := 20
	weights := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[i] = float64(i)*1.37 + 0.5
		volumes[i] = float64(n-i)*0.91 + 0.25
	}

	result := greedyLocalSearch(weights, volumes, 3, 999.0, 999.0, 0.10, DefaultMaxSearchPasses)

	if !result.HasSums {
		t.Error("Expected sums to be reported even without a match")
	}

	if result.Found {
		t.Error("Unreachable target must not report a match")
	}
}

func TestGreedyLocalSearch_NeverWorseThanInit(t *testing.T) {
	weights := []float64{3.1, 7.2, 1.4, 9.8, 2.6, 5.5, 8.1, 4.4, 6.6, 0.9,
		3.3, 7.7, 1.1, 9.2, 2.2, 5.9, 8.8, 4.1, 6.2, 0.5}
	volumes := []float64{1.2, 2.1, 0.7, 3.3, 0.9, 1.8, 2.7, 1.5, 2.2, 0.4,
		1.1, 2.6, 0.5, 3.1, 0.8, 2.0, 2.9, 1.4, 2.1, 0.3}
	const k = 4
	const weightTarget, volumeTarget = 21.0, 7.0

	init := greedyInit(weights, volumes, k, weightTarget, volumeTarget)
	initError := math.Abs(sumAt(weights, init)-weightTarget) + math.Abs(sumAt(volumes, init)-volumeTarget)

	result := greedyLocalSearch(weights, volumes, k, weightTarget, volumeTarget, 0.10, DefaultMaxSearchPasses)
	finalError := math.Abs(result.SumWeight-weightTarget) + math.Abs(result.SumVolume-volumeTarget)

	if finalError > initError {
		t.Errorf("Local search worsened the error: init %f, final %f", initError, finalError)
	}
}

func TestGreedyLocalSearch_ImmediateInitHit(t *testing.T) {
	// Identical items: the greedy init alone satisfies the target.
	n := 25
	weights := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[i] = 10.0
		volumes[i] = 1.0
	}

	result := greedyLocalSearch(weights, volumes, 3, 30.0, 3.0, 0.10, DefaultMaxSearchPasses)

	if !result.Found {
		t.Fatal("Expected init selection to satisfy the target")
	}

	if len(result.Picked) != 3 {
		t.Errorf("Expected 3 picked items, got %d", len(result.Picked))
	}
}
