package core

// FeatureVector is a fixed-dimension numeric encoding of a product's or
// candidate's attributes. Vectors are never mutated after creation; the
// vectorizer guarantees identical input yields a bit-identical vector.
type FeatureVector []float64

// Clone returns an independent copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	if v == nil {
		return nil
	}
	c := make(FeatureVector, len(v))
	copy(c, v)
	return c
}

// Dim returns the vector dimensionality.
func (v FeatureVector) Dim() int { return len(v) }
