// Package corpus loads and validates the known-product corpus that seeds
// a debate session.
package corpus

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/debateforge/core"
)

// File is the on-disk corpus document.
type File struct {
	Products []core.KnownProduct `yaml:"products"`
}

// LoadFile reads and validates a corpus YAML file.
func LoadFile(path string) ([]core.KnownProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a corpus document.
func Load(r io.Reader) ([]core.KnownProduct, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding corpus: %w", err)
	}
	if err := Validate(file.Products); err != nil {
		return nil, err
	}
	return file.Products, nil
}

// Validate checks that every product carries enough attributes to
// vectorize. Products that would fail vectorization are rejected up front
// so the failure surfaces at load time, not mid-session.
func Validate(products []core.KnownProduct) error {
	for _, p := range products {
		if p.Name == "" {
			return &core.VectorizationError{Subject: "corpus product", Reason: "missing name"}
		}
		if p.Category == "" {
			return &core.VectorizationError{Subject: p.Name, Reason: "missing category"}
		}
		if p.AttributeSet.IsEmpty() {
			return &core.VectorizationError{Subject: p.Name, Reason: "no attributes"}
		}
	}
	return nil
}

// FilterCategory returns the products in the given category, in corpus
// order.
func FilterCategory(products []core.KnownProduct, category string) []core.KnownProduct {
	var out []core.KnownProduct
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Categories returns the distinct categories in sorted order.
func Categories(products []core.KnownProduct) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// RichestCategory returns the category with the most products. Ties break
// lexicographically so seed selection is deterministic.
func RichestCategory(products []core.KnownProduct) string {
	counts := map[string]int{}
	for _, p := range products {
		counts[p.Category]++
	}
	best := ""
	bestCount := 0
	for _, cat := range Categories(products) {
		if counts[cat] > bestCount {
			best = cat
			bestCount = counts[cat]
		}
	}
	return best
}
