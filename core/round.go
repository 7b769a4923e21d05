package core

// DebateRound records one proposal/attack/ranking cycle. Rounds are
// append-only history; the session never rewrites a closed round.
type DebateRound struct {
	Number     int         `json:"number"`
	Candidates []Candidate `json:"candidates"`
	// SurvivorIDs holds at most three candidate ids ranked descending by
	// composite score (ties broken by lower complexity, then lower id).
	SurvivorIDs []int `json:"survivor_ids"`
	// Notes is the aggregate summary fed forward as context to the next
	// round's Seeker call.
	Notes string `json:"notes,omitempty"`
}

// Survivors resolves the ranked survivor candidates.
func (r DebateRound) Survivors() []Candidate {
	out := make([]Candidate, 0, len(r.SurvivorIDs))
	for _, id := range r.SurvivorIDs {
		for _, c := range r.Candidates {
			if c.ID == id {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Rejected returns the candidates that were scored but not selected,
// in id order.
func (r DebateRound) Rejected() []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Status == CandidateRejected {
			out = append(out, c)
		}
	}
	return out
}

// Failed returns the candidates that never reached scoring, in id order.
func (r DebateRound) Failed() []Candidate {
	var out []Candidate
	for _, c := range r.Candidates {
		if c.Status == CandidateFailed {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the round.
func (r DebateRound) Clone() DebateRound {
	c := r
	c.Candidates = make([]Candidate, len(r.Candidates))
	for i, cand := range r.Candidates {
		c.Candidates[i] = cand.Clone()
	}
	c.SurvivorIDs = append([]int(nil), r.SurvivorIDs...)
	return c
}
