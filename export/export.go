// Package export renders a terminal session into a serializable snapshot:
// the concept document, the category taxonomy that framed the debate and
// the full round-by-round score history.
package export

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hupe1980/debateforge/core"
	"github.com/hupe1980/debateforge/corpus"
)

// Taxonomy summarizes the corpus the debate was seeded from.
type Taxonomy struct {
	CoreMarket string   `json:"core_market"`
	Category   string   `json:"category"`
	Categories []string `json:"categories"`
	Products   []string `json:"products"`
}

// CandidateLog is one candidate's scoring record.
type CandidateLog struct {
	ID            int                  `json:"id"`
	Description   string               `json:"description"`
	UserValue     float64              `json:"user_value"`
	Complexity    float64              `json:"complexity"`
	NoveltySigma  float64              `json:"novelty_sigma"`
	Composite     float64              `json:"composite"`
	Status        core.CandidateStatus `json:"status"`
	FailureReason string               `json:"failure_reason,omitempty"`
	Blockers      []core.Blocker       `json:"blockers,omitempty"`
}

// RoundLog is the score history of one round.
type RoundLog struct {
	Number      int            `json:"number"`
	Candidates  []CandidateLog `json:"candidates"`
	SurvivorIDs []int          `json:"survivor_ids"`
	Notes       string         `json:"notes,omitempty"`
}

// Snapshot is the exportable record of a finished session.
type Snapshot struct {
	SessionID     string                `json:"session_id"`
	Status        core.SessionStatus    `json:"status"`
	FailureReason string                `json:"failure_reason,omitempty"`
	Seed          int64                 `json:"seed"`
	Taxonomy      Taxonomy              `json:"taxonomy"`
	Rounds        []RoundLog            `json:"rounds"`
	Concept       *core.ConceptDocument `json:"concept,omitempty"`
}

// Build renders a session snapshot. The session must be terminal.
func Build(sess *core.Session) (Snapshot, error) {
	snap := sess.Clone()
	if !snap.Status.Terminal() {
		return Snapshot{}, fmt.Errorf("session %s is still running", snap.ID)
	}

	products := make([]string, 0, len(snap.Corpus))
	for _, p := range corpus.FilterCategory(snap.Corpus, snap.Category) {
		products = append(products, p.Name)
	}
	sort.Strings(products)

	out := Snapshot{
		SessionID:     snap.ID,
		Status:        snap.Status,
		FailureReason: snap.FailureReason,
		Seed:          snap.Seed,
		Taxonomy: Taxonomy{
			CoreMarket: snap.CoreMarket,
			Category:   snap.Category,
			Categories: corpus.Categories(snap.Corpus),
			Products:   products,
		},
		Concept: snap.Concept,
	}
	for _, r := range snap.Rounds {
		out.Rounds = append(out.Rounds, buildRoundLog(r))
	}
	return out, nil
}

func buildRoundLog(r core.DebateRound) RoundLog {
	log := RoundLog{
		Number:      r.Number,
		SurvivorIDs: append([]int(nil), r.SurvivorIDs...),
		Notes:       r.Notes,
	}
	for _, c := range r.Candidates {
		cl := CandidateLog{
			ID:            c.ID,
			Description:   c.Description,
			UserValue:     c.UserValue,
			Complexity:    c.EffectiveComplexity(),
			NoveltySigma:  c.NoveltySigma,
			Composite:     c.Composite,
			Status:        c.Status,
			FailureReason: c.FailureReason,
		}
		if c.Feasibility != nil {
			cl.Blockers = append([]core.Blocker(nil), c.Feasibility.Blockers...)
		}
		log.Candidates = append(log.Candidates, cl)
	}
	return log
}

// MarshalIndent renders the snapshot as indented JSON suitable for files.
func (s Snapshot) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
