package convergence

import (
	"math"
	"sort"

	"github.com/hupe1980/debateforge/core"
	"github.com/hupe1980/debateforge/novelty"
)

// Composite weights: user value, inverted complexity, proximity to the
// 0.75-sigma novelty target.
const (
	weightUserValue  = 0.4
	weightComplexity = 0.3
	weightNovelty    = 0.3
)

// Composite computes the candidate ranking score
//
//	0.4*UserValue + 0.3*(1 - Complexity/10) + 0.3*(1 - |sigma - 0.75|)
//
// clamped to [0, 10].
func Composite(userValue, complexity, sigma float64) float64 {
	c := weightUserValue*userValue +
		weightComplexity*(1-complexity/10) +
		weightNovelty*(1-math.Abs(sigma-novelty.BandCenter))
	if c < 0 {
		return 0
	}
	if c > 10 {
		return 10
	}
	return c
}

// maxSurvivors is the survivor subset cap per round.
const maxSurvivors = 3

// rankSurvivors returns the ids of the top candidates among the attacked
// (non-failed) subset: descending composite, ties broken by lower
// effective complexity, then by lower candidate id.
func rankSurvivors(cands []core.Candidate) []int {
	eligible := make([]core.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Status == core.CandidateAttacked {
			eligible = append(eligible, c)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		if ac, bc := a.EffectiveComplexity(), b.EffectiveComplexity(); ac != bc {
			return ac < bc
		}
		return a.ID < b.ID
	})
	n := len(eligible)
	if n > maxSurvivors {
		n = maxSurvivors
	}
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		ids[i] = eligible[i].ID
	}
	return ids
}

// AssumedPrice derives the assumed selling price for the margin rule: the
// mean of the category corpus price-band midpoints.
func AssumedPrice(products []core.KnownProduct) float64 {
	if len(products) == 0 {
		return 0
	}
	var sum float64
	for _, p := range products {
		sum += p.PriceBand.Mid()
	}
	return sum / float64(len(products))
}

// GrossMargin computes the implied gross margin of a candidate's
// feasibility report against the assumed price, using the unit cost at
// the higher MOQ tier.
func GrossMargin(price float64, report core.FeasibilityReport) float64 {
	if price <= 0 {
		return 0
	}
	return (price - report.CostHigh.UnitCost) / price
}
