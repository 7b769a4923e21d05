package novelty

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/debateforge/core"
)

func TestFitEmptyCorpus(t *testing.T) {
	_, err := Fit("portable power", nil)
	require.Error(t, err)

	var cerr *core.EmptyCorpusError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "portable power", cerr.Category)
}

func TestFitDimMismatch(t *testing.T) {
	_, err := Fit("x", []core.FeatureVector{{1, 2}, {1, 2, 3}})
	require.Error(t, err)
}

func TestScoreCentroidIsZero(t *testing.T) {
	m, err := Fit("x", []core.FeatureVector{
		{0, 0, 2},
		{2, 0, 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.Score(core.FeatureVector{1, 0, 1}))
}

func TestScoreGrowsWithDistance(t *testing.T) {
	m, err := Fit("x", []core.FeatureVector{
		{0, 1},
		{2, 3},
		{4, 5},
	})
	require.NoError(t, err)

	near := m.Score(core.FeatureVector{2.1, 3.1})
	far := m.Score(core.FeatureVector{10, 10})
	assert.Less(t, near, far)
}

func TestScoreKnownValue(t *testing.T) {
	// Two points at distance 1 from the centroid on each dimension give a
	// per-dimension sd of 1, so a point one sd out on every dimension
	// scores exactly 1.
	m, err := Fit("x", []core.FeatureVector{
		{0, 0},
		{2, 2},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, m.Score(core.FeatureVector{2, 2}), 1e-12)
	assert.InDelta(t, 1.0, m.Score(core.FeatureVector{0, 0}), 1e-12)
}

func TestSpreadEpsilonFloor(t *testing.T) {
	// A single-product corpus has zero spread everywhere; the epsilon
	// floor keeps scores finite.
	m, err := Fit("x", []core.FeatureVector{{1, 1, 1}})
	require.NoError(t, err)

	sigma := m.Score(core.FeatureVector{1, 1, 1.001})
	assert.False(t, math.IsInf(sigma, 1))
	assert.False(t, math.IsNaN(sigma))
	assert.Greater(t, sigma, BandHigh)
}

func TestScoreDimMismatchNaN(t *testing.T) {
	m, err := Fit("x", []core.FeatureVector{{1, 2}})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(m.Score(core.FeatureVector{1, 2, 3})))
}

func TestInBand(t *testing.T) {
	assert.False(t, InBand(0.49))
	assert.True(t, InBand(BandLow))
	assert.True(t, InBand(BandCenter))
	assert.True(t, InBand(BandHigh))
	assert.False(t, InBand(1.01))
}
