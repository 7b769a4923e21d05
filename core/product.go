package core

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PriceBand is a retail price range in whole currency units, serialized as
// a "low-high" string (e.g. "40-80"). Low == High encodes a fixed price
// point.
type PriceBand struct {
	Low  float64
	High float64
}

// ParsePriceBand parses a "low-high" band string. A single number is
// accepted as a fixed price point.
func ParsePriceBand(s string) (PriceBand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriceBand{}, fmt.Errorf("empty price band")
	}
	parts := strings.SplitN(s, "-", 2)
	low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return PriceBand{}, fmt.Errorf("invalid price band %q: %w", s, err)
	}
	high := low
	if len(parts) == 2 {
		high, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return PriceBand{}, fmt.Errorf("invalid price band %q: %w", s, err)
		}
	}
	if low < 0 || high < low {
		return PriceBand{}, fmt.Errorf("invalid price band %q: bounds out of order", s)
	}
	return PriceBand{Low: low, High: high}, nil
}

// Mid returns the band midpoint, the assumed selling price used by the
// margin rule.
func (b PriceBand) Mid() float64 { return (b.Low + b.High) / 2 }

// IsZero reports whether the band is unset.
func (b PriceBand) IsZero() bool { return b.Low == 0 && b.High == 0 }

// String renders the canonical "low-high" form.
func (b PriceBand) String() string {
	return fmt.Sprintf("%s-%s", trimFloat(b.Low), trimFloat(b.High))
}

func trimFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// MarshalYAML implements yaml.Marshaler.
func (b PriceBand) MarshalYAML() (interface{}, error) { return b.String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *PriceBand) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePriceBand(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b PriceBand) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(b.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *PriceBand) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	parsed, err := ParsePriceBand(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// AttributeSet bundles the product attribute fields shared by corpus
// products and candidate drafts. The same set feeds the vectorizer for
// both, which keeps corpus and candidate vectors in one feature space.
type AttributeSet struct {
	Functional []string  `json:"functional" yaml:"functional"`
	TargetUser string    `json:"target_user" yaml:"target_user"`
	PriceBand  PriceBand `json:"price_band" yaml:"price_band"`
	Channel    string    `json:"channel" yaml:"channel"`
	Materials  []string  `json:"materials" yaml:"materials"`
	Regulatory []string  `json:"regulatory" yaml:"regulatory"`
	PainPoints []string  `json:"pain_points" yaml:"pain_points"`
}

// IsEmpty reports whether every attribute field is unset. An empty set is
// the only input the vectorizer rejects.
func (a AttributeSet) IsEmpty() bool {
	return len(a.Functional) == 0 &&
		a.TargetUser == "" &&
		a.PriceBand.IsZero() &&
		a.Channel == "" &&
		len(a.Materials) == 0 &&
		len(a.Regulatory) == 0 &&
		len(a.PainPoints) == 0
}

// Clone returns a deep copy of the attribute set.
func (a AttributeSet) Clone() AttributeSet {
	c := a
	c.Functional = append([]string(nil), a.Functional...)
	c.Materials = append([]string(nil), a.Materials...)
	c.Regulatory = append([]string(nil), a.Regulatory...)
	c.PainPoints = append([]string(nil), a.PainPoints...)
	return c
}

// KnownProduct is an external reference product. Immutable once loaded;
// the session owns its corpus snapshot for the session's lifetime.
type KnownProduct struct {
	Name         string `json:"name" yaml:"name"`
	Category     string `json:"category" yaml:"category"`
	AttributeSet `yaml:",inline"`
}

// Clone returns a deep copy of the product.
func (p KnownProduct) Clone() KnownProduct {
	c := p
	c.AttributeSet = p.AttributeSet.Clone()
	return c
}

// CloneCorpus deep-copies a product slice, used when snapshotting a corpus
// into a session.
func CloneCorpus(products []KnownProduct) []KnownProduct {
	out := make([]KnownProduct, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
