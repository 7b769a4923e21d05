// Package novelty fits a per-category corpus model (centroid and
// per-dimension spread) and scores candidate vectors by their normalized
// distance from the centroid in standard-deviation units ("sigma").
package novelty

import (
	"fmt"
	"math"

	"github.com/hupe1980/debateforge/core"
)

// SpreadEpsilon floors the per-dimension standard deviation to avoid
// division by zero on constant dimensions.
const SpreadEpsilon = 1e-6

// Target operating band for accepted candidates: low enough to stay
// market-adjacent, high enough to be distinguishable.
const (
	BandLow    = 0.5
	BandHigh   = 1.0
	BandCenter = 0.75
)

// CorpusModel is the fitted centroid and spread for one category.
type CorpusModel struct {
	Category string
	Centroid core.FeatureVector
	Spread   core.FeatureVector
	Size     int
}

// Fit computes the corpus model for a category from its member vectors.
// Fails with *core.EmptyCorpusError when the category subset is empty.
func Fit(category string, vectors []core.FeatureVector) (*CorpusModel, error) {
	if len(vectors) == 0 {
		return nil, &core.EmptyCorpusError{Category: category}
	}
	dim := vectors[0].Dim()
	for _, v := range vectors {
		if v.Dim() != dim {
			return nil, fmt.Errorf("corpus vectors disagree on dimensionality: %d vs %d", v.Dim(), dim)
		}
	}

	centroid := make(core.FeatureVector, dim)
	for _, v := range vectors {
		for i, x := range v {
			centroid[i] += x
		}
	}
	n := float64(len(vectors))
	for i := range centroid {
		centroid[i] /= n
	}

	spread := make(core.FeatureVector, dim)
	for _, v := range vectors {
		for i, x := range v {
			d := x - centroid[i]
			spread[i] += d * d
		}
	}
	for i := range spread {
		sd := math.Sqrt(spread[i] / n)
		if sd < SpreadEpsilon {
			sd = SpreadEpsilon
		}
		spread[i] = sd
	}

	return &CorpusModel{Category: category, Centroid: centroid, Spread: spread, Size: len(vectors)}, nil
}

// Score returns the novelty sigma of a vector: the root-mean-square of
// per-dimension z-scores, i.e. a Mahalanobis-style distance under diagonal
// covariance, normalized by dimensionality so the sigma band is
// independent of vocabulary size. Only a vector exactly equal to the
// centroid scores 0.
func (m *CorpusModel) Score(v core.FeatureVector) float64 {
	if v.Dim() != m.Centroid.Dim() {
		return math.NaN()
	}
	var sum float64
	for i, x := range v {
		z := (x - m.Centroid[i]) / m.Spread[i]
		sum += z * z
	}
	return math.Sqrt(sum / float64(m.Centroid.Dim()))
}

// InBand reports whether sigma falls inside the target operating band.
func InBand(sigma float64) bool { return sigma >= BandLow && sigma <= BandHigh }
