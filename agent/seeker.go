package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hupe1980/debateforge/core"
	"github.com/hupe1980/debateforge/provider"
)

// Draft count bounds for a single Propose call.
const (
	DraftMin = 5
	DraftMax = 10
)

// Draft is one candidate draft as emitted by the Seeker, prior to
// vectorization and novelty scoring.
type Draft struct {
	Description string   `json:"description" validate:"required"`
	TargetUser  string   `json:"target_user" validate:"required"`
	PriceBand   string   `json:"price_band" validate:"required"`
	Channel     string   `json:"channel" validate:"required"`
	Functional  []string `json:"functional" validate:"required,min=1"`
	Materials   []string `json:"materials"`
	Regulatory  []string `json:"regulatory"`
	PainPoints  []string `json:"pain_points"`
	UserValue   float64  `json:"user_value" validate:"gte=0,lte=10"`
	Complexity  float64  `json:"complexity" validate:"gte=0,lte=10"`
}

// Attrs converts the draft into the shared attribute set. The price band
// string was already parsed during draft validation.
func (d Draft) Attrs() core.AttributeSet {
	band, _ := core.ParsePriceBand(d.PriceBand)
	return core.AttributeSet{
		Functional: append([]string(nil), d.Functional...),
		TargetUser: d.TargetUser,
		PriceBand:  band,
		Channel:    d.Channel,
		Materials:  append([]string(nil), d.Materials...),
		Regulatory: append([]string(nil), d.Regulatory...),
		PainPoints: append([]string(nil), d.PainPoints...),
	}
}

// FailedDraft records a draft that stayed malformed after the re-prompt.
// The engine keeps it in round history as a failed candidate.
type FailedDraft struct {
	Description string
	Reason      string
}

// ProposeResult is the outcome of one Propose call.
type ProposeResult struct {
	Drafts []Draft
	Failed []FailedDraft
}

// Seeker is the Opportunity Seeker role.
type Seeker struct {
	base
	validate *validator.Validate
}

// NewSeeker binds the Seeker role to a provider backend.
func NewSeeker(prov provider.Provider, optFns ...func(o *Options)) *Seeker {
	return &Seeker{
		base:     newBase(RoleSeeker, prov, optFns...),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Propose invokes the Seeker once to obtain 5-10 candidate drafts. A
// malformed or incomplete reply triggers exactly one re-prompt; drafts
// still malformed afterwards are returned as FailedDrafts. A reply that
// cannot be parsed at all after the re-prompt surfaces a
// *core.ValidationError.
func (s *Seeker) Propose(ctx context.Context, rc Context, p CallParams) (ProposeResult, error) {
	prompt, err := renderProposePrompt(rc)
	if err != nil {
		return ProposeResult{}, err
	}

	text, err := s.generate(ctx, seekerSystem, prompt, p)
	if err != nil {
		return ProposeResult{}, err
	}

	res, parseErr := s.parseDrafts(text)
	if parseErr == nil && len(res.Drafts) >= DraftMin && len(res.Failed) == 0 {
		return truncateDrafts(res), nil
	}

	reason := "response incomplete"
	switch {
	case parseErr != nil:
		reason = parseErr.Error()
	case len(res.Failed) > 0:
		reason = fmt.Sprintf("%d of the drafts were malformed (first: %s)", len(res.Failed), res.Failed[0].Reason)
	case len(res.Drafts) < DraftMin:
		reason = fmt.Sprintf("only %d valid drafts, need at least %d", len(res.Drafts), DraftMin)
	}

	text, err = s.generate(ctx, seekerSystem, repromptSuffix(prompt, reason), p)
	if err != nil {
		return ProposeResult{}, err
	}

	res, parseErr = s.parseDrafts(text)
	if parseErr != nil {
		return ProposeResult{}, &core.ValidationError{Role: string(RoleSeeker), Reason: parseErr.Error()}
	}
	if len(res.Drafts) == 0 {
		return ProposeResult{}, &core.ValidationError{Role: string(RoleSeeker), Reason: "no valid drafts after re-prompt"}
	}
	return truncateDrafts(res), nil
}

// parseDrafts strictly decodes a propose reply. Per-draft failures land in
// Failed; a reply without a decodable candidates array fails wholesale.
func (s *Seeker) parseDrafts(text string) (ProposeResult, error) {
	var envelope struct {
		Candidates []json.RawMessage `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &envelope); err != nil {
		return ProposeResult{}, fmt.Errorf("decoding candidates envelope: %w", err)
	}
	if len(envelope.Candidates) == 0 {
		return ProposeResult{}, fmt.Errorf("candidates array is missing or empty")
	}

	var res ProposeResult
	for _, raw := range envelope.Candidates {
		var d Draft
		if err := json.Unmarshal(raw, &d); err != nil {
			res.Failed = append(res.Failed, FailedDraft{Description: string(raw), Reason: err.Error()})
			continue
		}
		if err := s.validateDraft(d); err != nil {
			res.Failed = append(res.Failed, FailedDraft{Description: d.Description, Reason: err.Error()})
			continue
		}
		res.Drafts = append(res.Drafts, d)
	}
	return res, nil
}

func (s *Seeker) validateDraft(d Draft) error {
	if err := s.validate.Struct(d); err != nil {
		return err
	}
	if _, err := core.ParsePriceBand(d.PriceBand); err != nil {
		return err
	}
	return nil
}

// truncateDrafts deterministically caps a result at DraftMax drafts in
// reply order.
func truncateDrafts(res ProposeResult) ProposeResult {
	if len(res.Drafts) > DraftMax {
		res.Drafts = res.Drafts[:DraftMax]
	}
	return res
}

// Deepen expands the winning candidate into a full concept document. The
// engine fills the candidate id and final financials.
func (s *Seeker) Deepen(ctx context.Context, winner core.Candidate, p CallParams) (core.ConceptDocument, error) {
	prompt, err := renderDeepenPrompt(winner)
	if err != nil {
		return core.ConceptDocument{}, err
	}

	text, err := s.generate(ctx, seekerSystem, prompt, p)
	if err != nil {
		return core.ConceptDocument{}, err
	}

	doc, parseErr := s.parseConcept(text)
	if parseErr == nil {
		return doc, nil
	}

	text, err = s.generate(ctx, seekerSystem, repromptSuffix(prompt, parseErr.Error()), p)
	if err != nil {
		return core.ConceptDocument{}, err
	}
	doc, parseErr = s.parseConcept(text)
	if parseErr != nil {
		return core.ConceptDocument{}, &core.ValidationError{Role: string(RoleSeeker), Reason: parseErr.Error()}
	}
	return doc, nil
}

type rawBOMLine struct {
	Part     string  `json:"part" validate:"required"`
	Material string  `json:"material"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
}

type rawConcept struct {
	Title     string       `json:"title" validate:"required"`
	UserStory string       `json:"user_story" validate:"required"`
	Features  []string     `json:"features" validate:"required,min=1"`
	Price     float64      `json:"price" validate:"gt=0"`
	BOM       []rawBOMLine `json:"bom" validate:"required,min=1,dive"`
	Risks     []string     `json:"risks"`
}

func (s *Seeker) parseConcept(text string) (core.ConceptDocument, error) {
	var raw rawConcept
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return core.ConceptDocument{}, fmt.Errorf("decoding concept document: %w", err)
	}
	if err := s.validate.Struct(raw); err != nil {
		return core.ConceptDocument{}, err
	}

	doc := core.ConceptDocument{
		Title:     raw.Title,
		UserStory: raw.UserStory,
		Features:  append([]string(nil), raw.Features...),
		Risks:     append([]string(nil), raw.Risks...),
	}
	var bomCost float64
	for _, line := range raw.BOM {
		doc.BOM = append(doc.BOM, core.BOMLine{
			Part:     line.Part,
			Material: line.Material,
			Quantity: line.Quantity,
			UnitCost: line.UnitCost,
		})
		bomCost += float64(line.Quantity) * line.UnitCost
	}
	doc.Financials = core.FinancialEstimate{
		Price:    raw.Price,
		UnitCost: bomCost,
	}
	if raw.Price > 0 {
		doc.Financials.GrossMargin = (raw.Price - bomCost) / raw.Price
	}
	return doc, nil
}
