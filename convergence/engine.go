// Package convergence drives the debate round loop: proposal, attack,
// composite ranking, survivor selection, stop-condition evaluation and
// final concept deepening.
//
// Rounds are strictly sequential because each round's Seeker context
// depends on the previous round's survivors and rejections. Within a
// round, Attack calls fan out through a bounded worker pool and are
// reordered deterministically by candidate id before scoring, so
// completion order never affects which candidates survive.
package convergence

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/debateforge/agent"
	"github.com/hupe1980/debateforge/core"
	"github.com/hupe1980/debateforge/corpus"
	"github.com/hupe1980/debateforge/logging"
	"github.com/hupe1980/debateforge/novelty"
	"github.com/hupe1980/debateforge/vectorize"
)

// State names the engine's state machine positions.
type State string

const (
	StateSeedSelection State = "seed_selection"
	StatePropose       State = "propose"
	StateAttack        State = "attack"
	StateScoreAndRank  State = "score_and_rank"
	StateDeepen        State = "deepen"
	StateComplete      State = "complete"
	StateFailed        State = "failed"
)

// Per-call seed offsets relative to the round base seed
// (session seed + 1000*round). Attack calls add the candidate id on top
// of attackSeedOffset so every builder call is individually seeded.
const (
	proposeSeedOffset = 0
	deepenSeedOffset  = 1
	reviewSeedOffset  = 2
	attackSeedOffset  = 100
)

// Options configure engine behavior shared across sessions.
type Options struct {
	// DefaultMaxRounds applies when the session's round budget is unset.
	DefaultMaxRounds int
	// PoolSize bounds concurrent Attack calls per round.
	PoolSize int
	// ConvergeComposite is the minimum best-survivor composite score for
	// convergence.
	ConvergeComposite float64
	// MinGrossMargin is the minimum implied gross margin for convergence.
	MinGrossMargin float64
	Logger         logging.Logger
}

// Engine coordinates debate sessions. It holds no mutable state beyond
// configuration; all per-session state lives on the Run, so independent
// sessions can execute concurrently.
type Engine struct {
	seeker  *agent.Seeker
	builder *agent.Builder
	opts    Options
}

// New constructs an Engine with optional overrides.
func New(seeker *agent.Seeker, builder *agent.Builder, optFns ...func(o *Options)) *Engine {
	opts := Options{
		DefaultMaxRounds:  6,
		PoolSize:          4,
		ConvergeComposite: 7.5,
		MinGrossMargin:    0.45,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{seeker: seeker, builder: builder, opts: opts}
}

// Run is the per-session execution state: the owned session, the fitted
// vector space and corpus model, and the candidate id sequence.
type Run struct {
	engine       *Engine
	sess         *core.Session
	vec          *vectorize.Vectorizer
	model        *novelty.CorpusModel
	corpus       []core.KnownProduct
	assumedPrice float64
	nextID       int

	state     atomic.Value // State
	cancelled atomic.Bool
	logger    logging.Logger
}

// Prepare performs seed selection for a new session: category choice,
// corpus subsetting, vocabulary construction and corpus model fitting.
// It fails before any round executes on an empty or malformed corpus.
func (e *Engine) Prepare(sess *core.Session) (*Run, error) {
	if len(sess.Corpus) == 0 {
		return nil, &core.EmptyCorpusError{}
	}

	category := sess.Category
	if category == "" {
		category = corpus.RichestCategory(sess.Corpus)
	}
	subset := corpus.FilterCategory(sess.Corpus, category)
	if len(subset) == 0 {
		return nil, &core.EmptyCorpusError{Category: category}
	}
	market := sess.CoreMarket
	if market == "" {
		market = category
	}

	vec := vectorize.New(vectorize.BuildVocabulary(subset))
	vectors := make([]core.FeatureVector, len(subset))
	for i, p := range subset {
		v, err := vec.Vectorize(p.Name, p.AttributeSet)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	model, err := novelty.Fit(category, vectors)
	if err != nil {
		return nil, err
	}

	sess.SetCategory(market, category)

	r := &Run{
		engine:       e,
		sess:         sess,
		vec:          vec,
		model:        model,
		corpus:       subset,
		assumedPrice: AssumedPrice(subset),
		nextID:       1,
		logger:       e.opts.Logger,
	}
	r.state.Store(StateSeedSelection)
	return r, nil
}

// Session returns the session owned by this run.
func (r *Run) Session() *core.Session { return r.sess }

// State returns the engine's current state machine position.
func (r *Run) State() State { return r.state.Load().(State) }

func (r *Run) setState(s State) { r.state.Store(s) }

// Cancel requests cooperative cancellation, honored at the top of the
// next Propose step. In-flight Attack calls finish or time out.
func (r *Run) Cancel() { r.cancelled.Store(true) }

// Execute drives the session to a terminal status and returns the fatal
// error, if any. The session is always left terminal.
func (r *Run) Execute(ctx context.Context) error {
	if err := r.loop(ctx); err != nil {
		r.setState(StateFailed)
		r.sess.Fail(err.Error())
		r.logger.Error("session failed", "session_id", r.sess.ID, "error", err.Error())
		return err
	}
	r.setState(StateComplete)
	return nil
}

func (r *Run) maxRounds() int {
	if r.sess.MaxRounds > 0 {
		return r.sess.MaxRounds
	}
	return r.engine.opts.DefaultMaxRounds
}

func (r *Run) loop(ctx context.Context) error {
	for round := 1; ; round++ {
		// Cooperative cancellation point between rounds.
		if r.cancelled.Load() {
			return fmt.Errorf("session cancelled before round %d", round)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("session cancelled before round %d: %w", round, err)
		}

		dr, err := r.playRound(ctx, round)
		if dr.Number != 0 {
			// Failed rounds stay inspectable; no partial round is
			// silently discarded.
			r.sess.AddRound(dr)
		}
		if err != nil {
			return err
		}

		best, ok := bestSurvivor(dr)
		if ok && r.converged(best) {
			r.setState(StateDeepen)
			concept := r.deepen(ctx, best)
			r.sess.Complete(core.SessionConverged, concept)
			return nil
		}
		if round >= r.maxRounds() {
			r.sess.Complete(core.SessionMaxRoundsReached, nil)
			return nil
		}
	}
}

// converged checks the stop condition: best composite over threshold and
// implied gross margin at or above the minimum.
func (r *Run) converged(best core.Candidate) bool {
	if best.Composite < r.engine.opts.ConvergeComposite || best.Feasibility == nil {
		return false
	}
	return GrossMargin(r.assumedPrice, *best.Feasibility) >= r.engine.opts.MinGrossMargin
}

func bestSurvivor(dr core.DebateRound) (core.Candidate, bool) {
	survivors := dr.Survivors()
	if len(survivors) == 0 {
		return core.Candidate{}, false
	}
	return survivors[0], true
}

// roundContext assembles the Seeker input for a round from the previous
// round's outcome.
func (r *Run) roundContext(round int) agent.Context {
	rc := agent.Context{
		CoreMarket: r.sess.CoreMarket,
		Category:   r.sess.Category,
		Round:      round,
	}
	if round == 1 {
		rc.KnownProducts = r.corpus
		return rc
	}
	if prev, ok := r.sess.LastRound(); ok {
		rc.Survivors = prev.Survivors()
		rc.Rejected = prev.Rejected()
		rc.Notes = prev.Notes
	}
	return rc
}

func (r *Run) playRound(ctx context.Context, round int) (core.DebateRound, error) {
	r.setState(StatePropose)
	seedBase := r.sess.Seed + 1000*int64(round)

	res, err := r.engine.seeker.Propose(ctx, r.roundContext(round), agent.CallParams{
		Temperature: r.sess.Temperature,
		Seed:        seedBase + proposeSeedOffset,
	})
	if err != nil {
		return core.DebateRound{}, fmt.Errorf("round %d propose: %w", round, err)
	}

	dr := core.DebateRound{Number: round}
	for _, d := range res.Drafts {
		cand := core.Candidate{
			ID:          r.nextID,
			Round:       round,
			Description: d.Description,
			Attrs:       d.Attrs(),
			UserValue:   d.UserValue,
			Complexity:  d.Complexity,
			Status:      core.CandidateProposed,
		}
		r.nextID++
		v, verr := r.vec.Vectorize(cand.Description, cand.Attrs)
		if verr != nil {
			cand.Status = core.CandidateFailed
			cand.FailureReason = verr.Error()
		} else {
			cand.Vector = v
			// NoveltySigma is authoritative from the corpus model; agent
			// self-reports are never trusted here.
			cand.NoveltySigma = r.model.Score(v)
		}
		dr.Candidates = append(dr.Candidates, cand)
	}
	for _, f := range res.Failed {
		dr.Candidates = append(dr.Candidates, core.Candidate{
			ID:            r.nextID,
			Round:         round,
			Description:   f.Description,
			Status:        core.CandidateFailed,
			FailureReason: f.Reason,
		})
		r.nextID++
	}

	r.setState(StateAttack)
	r.attack(ctx, dr.Candidates, seedBase)

	// Reorder by candidate id so completion order never affects ranking.
	sort.Slice(dr.Candidates, func(i, j int) bool {
		return dr.Candidates[i].ID < dr.Candidates[j].ID
	})

	attacked := 0
	for _, c := range dr.Candidates {
		if c.Status == core.CandidateAttacked {
			attacked++
		}
	}
	if attacked == 0 {
		return dr, &core.AllCandidatesFailedError{Round: round}
	}

	r.setState(StateScoreAndRank)
	for i := range dr.Candidates {
		c := &dr.Candidates[i]
		if c.Status != core.CandidateAttacked {
			continue
		}
		c.Composite = Composite(c.UserValue, c.EffectiveComplexity(), c.NoveltySigma)
	}
	dr.SurvivorIDs = rankSurvivors(dr.Candidates)

	selected := make(map[int]bool, len(dr.SurvivorIDs))
	for _, id := range dr.SurvivorIDs {
		selected[id] = true
	}
	for i := range dr.Candidates {
		c := &dr.Candidates[i]
		if c.Status != core.CandidateAttacked {
			continue
		}
		if selected[c.ID] {
			c.Status = core.CandidateSurvived
		} else {
			c.Status = core.CandidateRejected
		}
	}
	dr.Notes = r.roundNotes(dr)

	if best, ok := bestSurvivor(dr); ok {
		r.logger.Info("round completed",
			"session_id", r.sess.ID,
			"round", round,
			"candidates", len(dr.Candidates),
			"survivors", len(dr.SurvivorIDs),
			"best_composite", best.Composite,
		)
	}
	return dr, nil
}

// attack runs the Builder over the round's proposed candidates through a
// bounded worker pool. Candidate failures are recorded in place and never
// abort the round. Calls run detached from the session context so
// mid-round cancellation lets them finish or time out.
func (r *Run) attack(ctx context.Context, cands []core.Candidate, seedBase int64) {
	callCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(r.engine.opts.PoolSize)
	for i := range cands {
		if cands[i].Status != core.CandidateProposed {
			continue
		}
		i := i
		g.Go(func() error {
			c := cands[i]
			report, err := r.engine.builder.Attack(callCtx, c, agent.CallParams{
				Temperature: r.sess.Temperature,
				Seed:        seedBase + attackSeedOffset + int64(c.ID),
			})
			if err != nil {
				cands[i].Status = core.CandidateFailed
				cands[i].FailureReason = err.Error()
				return nil
			}
			cands[i].Feasibility = &report
			cands[i].Status = core.CandidateAttacked
			return nil
		})
	}
	_ = g.Wait()
}

// roundNotes builds the deterministic aggregate summary fed forward to
// the next round's Seeker.
func (r *Run) roundNotes(dr core.DebateRound) string {
	failed := len(dr.Failed())
	var sb strings.Builder
	fmt.Fprintf(&sb, "round %d: %d candidates (%d failed), %d survivors",
		dr.Number, len(dr.Candidates), failed, len(dr.SurvivorIDs))
	if best, ok := bestSurvivor(dr); ok {
		fmt.Fprintf(&sb, ", best composite %.2f at sigma %.2f", best.Composite, best.NoveltySigma)
	}

	counts := map[core.BlockerTag]int{}
	for _, c := range dr.Candidates {
		if c.Feasibility == nil {
			continue
		}
		for _, b := range c.Feasibility.Blockers {
			counts[b.Tag]++
		}
	}
	var recurring []string
	for _, tag := range core.BlockerTags() {
		if counts[tag] >= 2 {
			recurring = append(recurring, string(tag))
		}
	}
	if len(recurring) > 0 {
		fmt.Fprintf(&sb, "; recurring blockers: %s", strings.Join(recurring, ", "))
	}
	return sb.String()
}

// deepen expands the winning candidate into the full concept document.
// Deepening is best-effort: when the providers cannot produce a valid
// document after the retry and re-prompt budget, the concept is
// synthesized from the debate artifacts instead of failing a session
// that already converged numerically.
func (r *Run) deepen(ctx context.Context, best core.Candidate) *core.ConceptDocument {
	callCtx := context.WithoutCancel(ctx)
	seedBase := r.sess.Seed + 1000*int64(best.Round)

	doc, err := r.engine.seeker.Deepen(callCtx, best, agent.CallParams{
		Temperature: r.sess.Temperature,
		Seed:        seedBase + deepenSeedOffset,
	})
	if err != nil {
		r.logger.Warn("deepen failed, synthesizing concept from debate artifacts",
			"session_id", r.sess.ID, "error", err.Error())
		doc = fallbackConcept(best, r.assumedPrice)
	} else {
		reviewed, rerr := r.engine.builder.Review(callCtx, doc, agent.CallParams{
			Temperature: r.sess.Temperature,
			Seed:        seedBase + reviewSeedOffset,
		})
		if rerr != nil {
			r.logger.Warn("concept review failed, keeping unreviewed concept",
				"session_id", r.sess.ID, "error", rerr.Error())
		} else {
			doc = reviewed
		}
	}

	doc.CandidateID = best.ID
	if doc.Financials.Price == 0 {
		doc.Financials.Price = r.assumedPrice
	}
	if doc.Financials.UnitCost == 0 && best.Feasibility != nil {
		doc.Financials.UnitCost = best.Feasibility.CostHigh.UnitCost
	}
	if doc.Financials.Price > 0 {
		doc.Financials.GrossMargin = (doc.Financials.Price - doc.Financials.UnitCost) / doc.Financials.Price
	}
	return &doc
}

// fallbackConcept assembles a concept document from the winning
// candidate's own attributes and feasibility report.
func fallbackConcept(best core.Candidate, price float64) core.ConceptDocument {
	doc := core.ConceptDocument{
		Title:     best.Description,
		UserStory: fmt.Sprintf("As a %s, I buy this through %s because it addresses: %s.", best.Attrs.TargetUser, best.Attrs.Channel, strings.Join(best.Attrs.PainPoints, "; ")),
		Features:  append([]string(nil), best.Attrs.Functional...),
	}
	var unitCost float64
	if best.Feasibility != nil {
		unitCost = best.Feasibility.CostHigh.UnitCost
		for _, b := range best.Feasibility.Blockers {
			doc.Risks = append(doc.Risks, fmt.Sprintf("%s: %s", b.Tag, b.Detail))
		}
	}
	perPart := unitCost
	if len(best.Attrs.Materials) > 0 {
		perPart = unitCost / float64(len(best.Attrs.Materials))
	}
	for _, m := range best.Attrs.Materials {
		doc.BOM = append(doc.BOM, core.BOMLine{Part: m, Material: m, Quantity: 1, UnitCost: perPart})
	}
	doc.Financials = core.FinancialEstimate{Price: price, UnitCost: unitCost}
	return doc
}
