// Package feasibility validates and normalizes the Builder role's
// structured critique into a core.FeasibilityReport. Blocker tags are
// folded into the fixed taxonomy (cost, manufacturing, compliance,
// channel, operational); malformed reports are rejected with a
// *core.ValidationError, which triggers the caller's single re-prompt.
package feasibility

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hupe1980/debateforge/core"
)

// RawBlocker is one blocker entry as emitted by the provider.
type RawBlocker struct {
	Tag    string `json:"tag" validate:"required"`
	Detail string `json:"detail"`
}

// RawCostTier is a unit-cost estimate at one MOQ tier as emitted by the
// provider.
type RawCostTier struct {
	MOQ      int     `json:"moq" validate:"gt=0"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
}

// RawReport is the Builder's unvalidated structured output.
type RawReport struct {
	Blockers          []RawBlocker `json:"blockers" validate:"dive"`
	CostLow           RawCostTier  `json:"cost_low"`
	CostHigh          RawCostTier  `json:"cost_high"`
	Fixes             []string     `json:"fixes"`
	RevisedComplexity *float64     `json:"revised_complexity,omitempty" validate:"omitempty,gte=0,lte=10"`
	Notes             string       `json:"notes"`
}

// tagSynonyms folds provider vocabulary onto the fixed taxonomy.
var tagSynonyms = map[string]core.BlockerTag{
	"cost":          core.BlockerCost,
	"price":         core.BlockerCost,
	"pricing":       core.BlockerCost,
	"bom":           core.BlockerCost,
	"margin":        core.BlockerCost,
	"manufacturing": core.BlockerManufacturing,
	"mfg":           core.BlockerManufacturing,
	"production":    core.BlockerManufacturing,
	"tooling":       core.BlockerManufacturing,
	"assembly":      core.BlockerManufacturing,
	"compliance":    core.BlockerCompliance,
	"regulatory":    core.BlockerCompliance,
	"regulation":    core.BlockerCompliance,
	"certification": core.BlockerCompliance,
	"cert":          core.BlockerCompliance,
	"safety":        core.BlockerCompliance,
	"legal":         core.BlockerCompliance,
	"channel":       core.BlockerChannel,
	"distribution":  core.BlockerChannel,
	"retail":        core.BlockerChannel,
	"sales":         core.BlockerChannel,
	"operational":   core.BlockerOperational,
	"operations":    core.BlockerOperational,
	"ops":           core.BlockerOperational,
	"logistics":     core.BlockerOperational,
	"supply":        core.BlockerOperational,
	"support":       core.BlockerOperational,
}

// NormalizeTag folds a provider-reported tag onto the fixed taxonomy.
func NormalizeTag(tag string) (core.BlockerTag, bool) {
	t, ok := tagSynonyms[strings.ToLower(strings.TrimSpace(tag))]
	return t, ok
}

// Evaluator validates raw Builder output into feasibility reports.
type Evaluator struct {
	validate *validator.Validate
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Evaluate validates a raw report and normalizes it into the core type.
// Both MOQ tiers are required with non-negative unit costs; tiers arriving
// out of order are swapped so CostHigh always carries the larger MOQ.
func (e *Evaluator) Evaluate(raw RawReport) (core.FeasibilityReport, error) {
	if err := e.validate.Struct(raw); err != nil {
		return core.FeasibilityReport{}, &core.ValidationError{Role: "builder", Reason: err.Error()}
	}

	blockers := make([]core.Blocker, 0, len(raw.Blockers))
	for _, rb := range raw.Blockers {
		tag, ok := NormalizeTag(rb.Tag)
		if !ok {
			return core.FeasibilityReport{}, &core.ValidationError{
				Role:   "builder",
				Reason: fmt.Sprintf("unknown blocker tag %q", rb.Tag),
			}
		}
		blockers = append(blockers, core.Blocker{Tag: tag, Detail: rb.Detail})
	}

	low, high := raw.CostLow, raw.CostHigh
	if low.MOQ > high.MOQ {
		low, high = high, low
	}

	report := core.FeasibilityReport{
		Blockers: blockers,
		CostLow:  core.CostTier{MOQ: low.MOQ, UnitCost: low.UnitCost},
		CostHigh: core.CostTier{MOQ: high.MOQ, UnitCost: high.UnitCost},
		Fixes:    append([]string(nil), raw.Fixes...),
		Notes:    raw.Notes,
	}
	if raw.RevisedComplexity != nil {
		v := *raw.RevisedComplexity
		report.RevisedComplexity = &v
	}
	return report, nil
}
