package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the terminal lifecycle of a debate session.
type SessionStatus string

const (
	SessionRunning          SessionStatus = "running"
	SessionConverged        SessionStatus = "converged"
	SessionMaxRoundsReached SessionStatus = "max_rounds_reached"
	SessionFailed           SessionStatus = "failed"
)

// Terminal reports whether the status is final.
func (s SessionStatus) Terminal() bool { return s != SessionRunning }

// BOMLine is a single bill-of-materials entry of a deepened concept.
type BOMLine struct {
	Part     string  `json:"part"`
	Material string  `json:"material,omitempty"`
	Quantity int     `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

// FinancialEstimate summarizes the deepened concept's unit economics.
type FinancialEstimate struct {
	Price          float64 `json:"price"`
	UnitCost       float64 `json:"unit_cost"`
	GrossMargin    float64 `json:"gross_margin"`
	BreakEvenUnits int     `json:"break_even_units,omitempty"`
}

// ConceptDocument is the full concept produced by the Deepen step for the
// winning candidate.
type ConceptDocument struct {
	CandidateID int               `json:"candidate_id"`
	Title       string            `json:"title"`
	UserStory   string            `json:"user_story"`
	Features    []string          `json:"features"`
	Financials  FinancialEstimate `json:"financials"`
	BOM         []BOMLine         `json:"bom"`
	Risks       []string          `json:"risks"`
}

// Clone returns a deep copy of the concept document.
func (d ConceptDocument) Clone() ConceptDocument {
	c := d
	c.Features = append([]string(nil), d.Features...)
	c.BOM = append([]BOMLine(nil), d.BOM...)
	c.Risks = append([]string(nil), d.Risks...)
	return c
}

// SessionParams configure a new session.
type SessionParams struct {
	Seed        int64
	Temperature float64
	MaxRounds   int
	CoreMarket  string
	Category    string
	Corpus      []KnownProduct
}

// Session is the versioned record of a debate: its inputs, the append-only
// round history and the terminal artifacts. It is owned exclusively by the
// convergence engine while running and becomes read-only once terminal.
// Safe for concurrent access.
type Session struct {
	ID          string        `json:"id"`
	Seed        int64         `json:"seed"`
	Temperature float64       `json:"temperature"`
	MaxRounds   int           `json:"max_rounds"`

	CoreMarket string         `json:"core_market,omitempty"`
	Category   string         `json:"category,omitempty"`
	Corpus     []KnownProduct `json:"corpus"`

	Rounds  []DebateRound    `json:"rounds"`
	Status  SessionStatus    `json:"status"`
	Concept *ConceptDocument `json:"concept,omitempty"`
	// FailureReason carries the round/candidate context of a fatal error.
	FailureReason string `json:"failure_reason,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	mu sync.RWMutex
}

// NewSession creates a running session with an opaque unique id and a deep
// corpus snapshot.
func NewSession(p SessionParams) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          NewID(),
		Seed:        p.Seed,
		Temperature: p.Temperature,
		MaxRounds:   p.MaxRounds,
		CoreMarket:  p.CoreMarket,
		Category:    p.Category,
		Corpus:      CloneCorpus(p.Corpus),
		Status:      SessionRunning,
		Created:     now,
		Updated:     now,
	}
}

// SetCategory records the seed-selection outcome.
func (s *Session) SetCategory(market, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CoreMarket = market
	s.Category = category
	s.Updated = time.Now().UTC()
}

// AddRound appends a closed round to the history.
func (s *Session) AddRound(r DebateRound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rounds = append(s.Rounds, r.Clone())
	s.Updated = time.Now().UTC()
}

// LastRound returns a copy of the most recent round and true, or false if
// no round has closed yet.
func (s *Session) LastRound() (DebateRound, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Rounds) == 0 {
		return DebateRound{}, false
	}
	return s.Rounds[len(s.Rounds)-1].Clone(), true
}

// RoundCount returns the number of closed rounds.
func (s *Session) RoundCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Rounds)
}

// Complete marks the session terminal with the given status and optional
// deepened concept.
func (s *Session) Complete(status SessionStatus, concept *ConceptDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	if concept != nil {
		c := concept.Clone()
		s.Concept = &c
	}
	s.Updated = time.Now().UTC()
}

// Fail marks the session failed with the triggering context.
func (s *Session) Fail(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = SessionFailed
	s.FailureReason = reason
	s.Updated = time.Now().UTC()
}

// CurrentStatus returns the session status.
func (s *Session) CurrentStatus() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Clone returns a deep snapshot safe for external callers; the live
// session stays exclusively owned by the engine.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:            s.ID,
		Seed:          s.Seed,
		Temperature:   s.Temperature,
		MaxRounds:     s.MaxRounds,
		CoreMarket:    s.CoreMarket,
		Category:      s.Category,
		Corpus:        CloneCorpus(s.Corpus),
		Rounds:        make([]DebateRound, len(s.Rounds)),
		Status:        s.Status,
		FailureReason: s.FailureReason,
		Created:       s.Created,
		Updated:       s.Updated,
	}
	for i, r := range s.Rounds {
		clone.Rounds[i] = r.Clone()
	}
	if s.Concept != nil {
		c := s.Concept.Clone()
		clone.Concept = &c
	}
	return clone
}

// SessionStore persists session snapshots for the session control API.
type SessionStore interface {
	Put(sess *Session) error
	Get(id string) (*Session, error)
}

// NewID generates an opaque unique identifier for sessions.
func NewID() string { return uuid.NewString() }
