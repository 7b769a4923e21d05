package feasibility

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/debateforge/core"
)

func validRaw() RawReport {
	return RawReport{
		Blockers: []RawBlocker{
			{Tag: "cost", Detail: "BOM too high"},
			{Tag: "Regulatory", Detail: "needs certification"},
		},
		CostLow:  RawCostTier{MOQ: 500, UnitCost: 19.5},
		CostHigh: RawCostTier{MOQ: 5000, UnitCost: 12},
		Fixes:    []string{"shared tooling"},
		Notes:    "buildable at volume",
	}
}

func TestEvaluateNormalizesTags(t *testing.T) {
	report, err := NewEvaluator().Evaluate(validRaw())
	require.NoError(t, err)

	assert.Equal(t, core.BlockerCost, report.Blockers[0].Tag)
	assert.Equal(t, core.BlockerCompliance, report.Blockers[1].Tag)
	assert.True(t, report.HasBlocker(core.BlockerCompliance))
}

func TestEvaluateUnknownTag(t *testing.T) {
	raw := validRaw()
	raw.Blockers[0].Tag = "vibes"

	_, err := NewEvaluator().Evaluate(raw)
	require.Error(t, err)

	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Reason, "vibes")
}

func TestEvaluateRejectsBadCostTiers(t *testing.T) {
	eval := NewEvaluator()

	raw := validRaw()
	raw.CostLow.MOQ = 0
	_, err := eval.Evaluate(raw)
	require.Error(t, err)

	raw = validRaw()
	raw.CostHigh.UnitCost = -1
	_, err = eval.Evaluate(raw)
	require.Error(t, err)
}

func TestEvaluateSwapsOutOfOrderTiers(t *testing.T) {
	raw := validRaw()
	raw.CostLow, raw.CostHigh = raw.CostHigh, raw.CostLow

	report, err := NewEvaluator().Evaluate(raw)
	require.NoError(t, err)

	assert.Equal(t, 500, report.CostLow.MOQ)
	assert.Equal(t, 5000, report.CostHigh.MOQ)
	assert.Equal(t, 12.0, report.CostHigh.UnitCost)
}

func TestEvaluateRevisedComplexityBounds(t *testing.T) {
	eval := NewEvaluator()

	ok := 7.5
	raw := validRaw()
	raw.RevisedComplexity = &ok
	report, err := eval.Evaluate(raw)
	require.NoError(t, err)
	require.NotNil(t, report.RevisedComplexity)
	assert.Equal(t, 7.5, *report.RevisedComplexity)

	bad := 12.0
	raw = validRaw()
	raw.RevisedComplexity = &bad
	_, err = eval.Evaluate(raw)
	require.Error(t, err)
}

func TestNormalizeTagSynonyms(t *testing.T) {
	cases := map[string]core.BlockerTag{
		"COST":         core.BlockerCost,
		" tooling ":    core.BlockerManufacturing,
		"logistics":    core.BlockerOperational,
		"distribution": core.BlockerChannel,
		"safety":       core.BlockerCompliance,
	}
	for in, want := range cases {
		got, ok := NormalizeTag(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := NormalizeTag("unknown")
	assert.False(t, ok)
}
