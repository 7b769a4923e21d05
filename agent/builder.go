package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/debateforge/core"
	"github.com/hupe1980/debateforge/feasibility"
	"github.com/hupe1980/debateforge/provider"
)

// Builder is the Skeptical Builder role.
type Builder struct {
	base
	eval *feasibility.Evaluator
}

// NewBuilder binds the Builder role to a provider backend.
func NewBuilder(prov provider.Provider, optFns ...func(o *Options)) *Builder {
	return &Builder{
		base: newBase(RoleBuilder, prov, optFns...),
		eval: feasibility.NewEvaluator(),
	}
}

// Attack obtains a validated feasibility report for one candidate. A
// report rejected by the evaluator triggers exactly one re-prompt carrying
// the validation failure; a second rejection surfaces the
// *core.ValidationError and the engine drops the candidate as failed.
func (b *Builder) Attack(ctx context.Context, cand core.Candidate, p CallParams) (core.FeasibilityReport, error) {
	prompt, err := renderAttackPrompt(cand)
	if err != nil {
		return core.FeasibilityReport{}, err
	}

	text, err := b.generate(ctx, builderSystem, prompt, p)
	if err != nil {
		return core.FeasibilityReport{}, err
	}

	report, evalErr := b.evaluate(text)
	if evalErr == nil {
		return report, nil
	}

	text, err = b.generate(ctx, builderSystem, repromptSuffix(prompt, evalErr.Error()), p)
	if err != nil {
		return core.FeasibilityReport{}, err
	}
	report, evalErr = b.evaluate(text)
	if evalErr != nil {
		return core.FeasibilityReport{}, evalErr
	}
	return report, nil
}

func (b *Builder) evaluate(text string) (core.FeasibilityReport, error) {
	var raw feasibility.RawReport
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return core.FeasibilityReport{}, &core.ValidationError{
			Role:   string(RoleBuilder),
			Reason: fmt.Sprintf("decoding feasibility report: %v", err),
		}
	}
	return b.eval.Evaluate(raw)
}

// conceptReview is the Builder's verdict on a deepened concept.
type conceptReview struct {
	UnitCost       *float64 `json:"unit_cost,omitempty"`
	BreakEvenUnits *int     `json:"break_even_units,omitempty"`
	Risks          []string `json:"risks"`
	Notes          string   `json:"notes"`
}

// Review sanity-checks a deepened concept document: it may revise the
// total unit cost and append launch risks. The review is best-effort; on a
// second malformed reply the original document is returned unchanged with
// a *core.ValidationError for the caller to log.
func (b *Builder) Review(ctx context.Context, doc core.ConceptDocument, p CallParams) (core.ConceptDocument, error) {
	prompt, err := renderReviewPrompt(doc)
	if err != nil {
		return doc, err
	}

	text, err := b.generate(ctx, builderSystem, prompt, p)
	if err != nil {
		return doc, err
	}

	review, parseErr := parseReview(text)
	if parseErr != nil {
		text, err = b.generate(ctx, builderSystem, repromptSuffix(prompt, parseErr.Error()), p)
		if err != nil {
			return doc, err
		}
		review, parseErr = parseReview(text)
		if parseErr != nil {
			return doc, &core.ValidationError{Role: string(RoleBuilder), Reason: parseErr.Error()}
		}
	}

	if review.UnitCost != nil && *review.UnitCost >= 0 {
		doc.Financials.UnitCost = *review.UnitCost
		if doc.Financials.Price > 0 {
			doc.Financials.GrossMargin = (doc.Financials.Price - doc.Financials.UnitCost) / doc.Financials.Price
		}
	}
	if review.BreakEvenUnits != nil && *review.BreakEvenUnits > 0 {
		doc.Financials.BreakEvenUnits = *review.BreakEvenUnits
	}
	doc.Risks = append(doc.Risks, review.Risks...)
	return doc, nil
}

func parseReview(text string) (conceptReview, error) {
	var review conceptReview
	if err := json.Unmarshal([]byte(extractJSON(text)), &review); err != nil {
		return conceptReview{}, fmt.Errorf("decoding concept review: %w", err)
	}
	return review, nil
}
