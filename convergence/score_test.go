package convergence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/debateforge/core"
)

func TestCompositeKnownValue(t *testing.T) {
	// 0.4*8 + 0.3*(1-3/10) + 0.3*(1-|0.75-0.75|) = 3.2 + 0.21 + 0.3
	assert.InDelta(t, 3.71, Composite(8, 3, 0.75), 1e-9)
}

func TestCompositeNoveltyPenalty(t *testing.T) {
	onTarget := Composite(8, 3, 0.75)
	offTarget := Composite(8, 3, 1.25)
	assert.InDelta(t, 0.15, onTarget-offTarget, 1e-9)
}

func TestCompositeClamped(t *testing.T) {
	assert.Equal(t, 0.0, Composite(0, 10, 6))
	assert.LessOrEqual(t, Composite(10, 0, 0.75), 10.0)
}

func attacked(id int, composite float64, revised *float64, complexity float64) core.Candidate {
	c := core.Candidate{
		ID:         id,
		Complexity: complexity,
		Composite:  composite,
		Status:     core.CandidateAttacked,
	}
	if revised != nil {
		c.Feasibility = &core.FeasibilityReport{RevisedComplexity: revised}
	}
	return c
}

func TestRankSurvivorsOrderAndCap(t *testing.T) {
	cands := []core.Candidate{
		attacked(1, 2.0, nil, 5),
		attacked(2, 3.5, nil, 5),
		attacked(3, 3.0, nil, 5),
		attacked(4, 2.5, nil, 5),
		{ID: 5, Composite: 9.9, Status: core.CandidateFailed},
	}

	ids := rankSurvivors(cands)
	assert.Equal(t, []int{2, 3, 4}, ids)
}

func TestRankSurvivorsTieBreaks(t *testing.T) {
	revised := 2.0
	cands := []core.Candidate{
		// Same composite: lower effective complexity wins, and the
		// Builder-revised figure supersedes the self-report.
		attacked(1, 3.0, nil, 6),
		attacked(2, 3.0, &revised, 9),
		// Same composite and complexity: lower id wins.
		attacked(3, 3.0, nil, 6),
	}

	ids := rankSurvivors(cands)
	assert.Equal(t, []int{2, 1, 3}, ids)
}

func TestRankSurvivorsNoneEligible(t *testing.T) {
	cands := []core.Candidate{
		{ID: 1, Status: core.CandidateFailed},
		{ID: 2, Status: core.CandidateProposed},
	}
	assert.Empty(t, rankSurvivors(cands))
}

func TestAssumedPrice(t *testing.T) {
	products := []core.KnownProduct{
		{AttributeSet: core.AttributeSet{PriceBand: core.PriceBand{Low: 40, High: 80}}},
		{AttributeSet: core.AttributeSet{PriceBand: core.PriceBand{Low: 20, High: 40}}},
	}
	assert.InDelta(t, 45.0, AssumedPrice(products), 1e-12)
	assert.Equal(t, 0.0, AssumedPrice(nil))
}

func TestGrossMargin(t *testing.T) {
	report := core.FeasibilityReport{
		CostLow:  core.CostTier{MOQ: 500, UnitCost: 30},
		CostHigh: core.CostTier{MOQ: 5000, UnitCost: 20},
	}
	// Margin uses the unit cost at the larger MOQ tier.
	assert.InDelta(t, 0.6, GrossMargin(50, report), 1e-12)
	assert.Equal(t, 0.0, GrossMargin(0, report))
}
