package core

// CandidateStatus tracks a candidate through the round lifecycle.
type CandidateStatus string

const (
	// CandidateProposed is the initial status set by the Seeker step.
	CandidateProposed CandidateStatus = "proposed"
	// CandidateAttacked means the Builder produced a feasibility report.
	CandidateAttacked CandidateStatus = "attacked"
	// CandidateSurvived means the candidate ranked into the round's
	// survivor subset.
	CandidateSurvived CandidateStatus = "survived"
	// CandidateRejected means the candidate was scored but not selected.
	CandidateRejected CandidateStatus = "rejected"
	// CandidateFailed means a step exhausted its retry/re-prompt budget.
	// Failed candidates are excluded from scoring but kept in history.
	CandidateFailed CandidateStatus = "failed"
)

// BlockerTag is the fixed feasibility blocker taxonomy.
type BlockerTag string

const (
	BlockerCost          BlockerTag = "cost"
	BlockerManufacturing BlockerTag = "manufacturing"
	BlockerCompliance    BlockerTag = "compliance"
	BlockerChannel       BlockerTag = "channel"
	BlockerOperational   BlockerTag = "operational"
)

// BlockerTags lists the taxonomy in canonical order.
func BlockerTags() []BlockerTag {
	return []BlockerTag{BlockerCost, BlockerManufacturing, BlockerCompliance, BlockerChannel, BlockerOperational}
}

// Blocker is a single tagged feasibility issue.
type Blocker struct {
	Tag    BlockerTag `json:"tag"`
	Detail string     `json:"detail"`
}

// CostTier is a unit-cost estimate at a given minimum order quantity.
type CostTier struct {
	MOQ      int     `json:"moq"`
	UnitCost float64 `json:"unit_cost"`
}

// FeasibilityReport is the Builder's validated structured critique of one
// candidate. Owned exclusively by its candidate.
type FeasibilityReport struct {
	Blockers []Blocker `json:"blockers"`
	CostLow  CostTier  `json:"cost_low"`
	CostHigh CostTier  `json:"cost_high"`
	Fixes    []string  `json:"fixes"`
	// RevisedComplexity supersedes the Seeker's self-reported complexity
	// when the Builder's analysis contradicts it.
	RevisedComplexity *float64 `json:"revised_complexity,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// Clone returns a deep copy of the report.
func (r FeasibilityReport) Clone() FeasibilityReport {
	c := r
	c.Blockers = append([]Blocker(nil), r.Blockers...)
	c.Fixes = append([]string(nil), r.Fixes...)
	if r.RevisedComplexity != nil {
		v := *r.RevisedComplexity
		c.RevisedComplexity = &v
	}
	return c
}

// HasBlocker reports whether the report carries a blocker with the tag.
func (r FeasibilityReport) HasBlocker(tag BlockerTag) bool {
	for _, b := range r.Blockers {
		if b.Tag == tag {
			return true
		}
	}
	return false
}

// Candidate is a proposed product deviation. IDs are session-scoped
// ascending integers so ranking tie-breaks are total and deterministic.
//
// NoveltySigma is always engine-computed from the corpus model, never
// taken from agent self-report.
type Candidate struct {
	ID           int               `json:"id"`
	Round        int               `json:"round"`
	Description  string            `json:"description"`
	Attrs        AttributeSet      `json:"attrs"`
	UserValue    float64           `json:"user_value"`
	Complexity   float64           `json:"complexity"`
	NoveltySigma float64           `json:"novelty_sigma"`
	Vector       FeatureVector     `json:"-"`
	Feasibility  *FeasibilityReport `json:"feasibility,omitempty"`
	Composite    float64           `json:"composite"`
	Status       CandidateStatus   `json:"status"`
	// FailureReason is set only when Status is CandidateFailed.
	FailureReason string `json:"failure_reason,omitempty"`
}

// EffectiveComplexity returns the Builder-revised complexity when present,
// otherwise the Seeker's self-report.
func (c Candidate) EffectiveComplexity() float64 {
	if c.Feasibility != nil && c.Feasibility.RevisedComplexity != nil {
		return *c.Feasibility.RevisedComplexity
	}
	return c.Complexity
}

// Clone returns a deep copy of the candidate.
func (c Candidate) Clone() Candidate {
	out := c
	out.Attrs = c.Attrs.Clone()
	out.Vector = c.Vector.Clone()
	if c.Feasibility != nil {
		r := c.Feasibility.Clone()
		out.Feasibility = &r
	}
	return out
}
