// Package debateforge runs novelty-bounded product debates: an
// Opportunity Seeker proposes bounded deviations from a known-product
// corpus, a Skeptical Builder attacks their feasibility, and a
// convergence engine ranks survivors round by round until a candidate
// clears the composite and margin thresholds or the round budget runs
// out.
package debateforge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/debateforge/agent"
	"github.com/hupe1980/debateforge/convergence"
	"github.com/hupe1980/debateforge/core"
	"github.com/hupe1980/debateforge/export"
	"github.com/hupe1980/debateforge/logging"
	"github.com/hupe1980/debateforge/provider"
	"github.com/hupe1980/debateforge/session"
)

// ErrRunNotFound is returned for control operations on an unknown run.
var ErrRunNotFound = errors.New("run not found")

// Options configure a DebateForge instance.
type Options struct {
	// SeekerProvider backs the Opportunity Seeker role. Defaults to the
	// deterministic mock provider.
	SeekerProvider provider.Provider
	// BuilderProvider backs the Skeptical Builder role. Defaults to the
	// deterministic mock provider.
	BuilderProvider provider.Provider
	// Store persists session snapshots. Defaults to the in-memory store.
	Store  core.SessionStore
	Logger logging.Logger

	MaxRounds   int
	PoolSize    int
	CallTimeout time.Duration
	Retry       core.RetryPolicy
	MaxTokens   int64

	ConvergeComposite float64
	MinGrossMargin    float64
}

// DebateForge is the session control surface: it starts debates, hands
// out state snapshots and cancels running sessions.
type DebateForge struct {
	engine *convergence.Engine
	store  core.SessionStore
	logger logging.Logger

	mu   sync.Mutex
	runs map[string]*runHandle
}

type runHandle struct {
	run  *convergence.Run
	done chan struct{}
	err  error
}

// New constructs a DebateForge with optional overrides.
func New(optFns ...func(o *Options)) *DebateForge {
	opts := Options{
		Store:             session.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
		MaxRounds:         6,
		PoolSize:          4,
		CallTimeout:       60 * time.Second,
		Retry:             core.DefaultRetryPolicy(),
		ConvergeComposite: 7.5,
		MinGrossMargin:    0.45,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SeekerProvider == nil {
		opts.SeekerProvider = provider.NewMock()
	}
	if opts.BuilderProvider == nil {
		opts.BuilderProvider = provider.NewMock()
	}

	agentOpts := func(o *agent.Options) {
		o.Retry = opts.Retry
		o.CallTimeout = opts.CallTimeout
		o.MaxTokens = opts.MaxTokens
		o.Logger = opts.Logger
	}
	seeker := agent.NewSeeker(opts.SeekerProvider, agentOpts)
	builder := agent.NewBuilder(opts.BuilderProvider, agentOpts)

	engine := convergence.New(seeker, builder, func(o *convergence.Options) {
		o.DefaultMaxRounds = opts.MaxRounds
		o.PoolSize = opts.PoolSize
		o.ConvergeComposite = opts.ConvergeComposite
		o.MinGrossMargin = opts.MinGrossMargin
		o.Logger = opts.Logger
	})

	return &DebateForge{
		engine: engine,
		store:  opts.Store,
		logger: opts.Logger,
		runs:   make(map[string]*runHandle),
	}
}

// StartParams configure one debate session.
type StartParams struct {
	CoreMarket string
	// Category selects the corpus subset; empty means the richest category
	// is chosen automatically.
	Category    string
	Corpus      []core.KnownProduct
	Seed        int64
	Temperature float64
	// MaxRounds overrides the instance default when positive.
	MaxRounds int
}

// Start creates a session, runs seed selection synchronously and launches
// the round loop in the background. Corpus problems (empty corpus, empty
// selected category, unvectorizable products) fail here, before any
// provider call. The returned id addresses GetState, Wait and Cancel.
func (f *DebateForge) Start(ctx context.Context, p StartParams) (string, error) {
	sess := core.NewSession(core.SessionParams{
		Seed:        p.Seed,
		Temperature: p.Temperature,
		MaxRounds:   p.MaxRounds,
		CoreMarket:  p.CoreMarket,
		Category:    p.Category,
		Corpus:      p.Corpus,
	})

	run, err := f.engine.Prepare(sess)
	if err != nil {
		return "", err
	}
	if err := f.store.Put(sess); err != nil {
		return "", err
	}

	h := &runHandle{run: run, done: make(chan struct{})}
	f.mu.Lock()
	f.runs[sess.ID] = h
	f.mu.Unlock()

	f.logger.Info("session started",
		"session_id", sess.ID,
		"category", sess.Category,
		"seed", sess.Seed,
	)

	// The run outlives the Start call; only explicit Cancel or the round
	// budget stops it.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		h.err = run.Execute(runCtx)
		close(h.done)
	}()
	return sess.ID, nil
}

// GetState returns a point-in-time snapshot of the session.
func (f *DebateForge) GetState(id string) (*core.Session, error) {
	return f.store.Get(id)
}

// Wait blocks until the session is terminal or the context is done, then
// returns the final session snapshot.
func (f *DebateForge) Wait(ctx context.Context, id string) (*core.Session, error) {
	f.mu.Lock()
	h, ok := f.runs[id]
	f.mu.Unlock()
	if !ok {
		return nil, ErrRunNotFound
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
	}
	return f.store.Get(id)
}

// Cancel requests cooperative cancellation of a running session. The run
// stops at the next round boundary; in-flight provider calls finish or
// time out first.
func (f *DebateForge) Cancel(id string) error {
	f.mu.Lock()
	h, ok := f.runs[id]
	f.mu.Unlock()
	if !ok {
		return ErrRunNotFound
	}
	h.run.Cancel()
	return nil
}

// Export renders a terminal session into its exportable snapshot.
func (f *DebateForge) Export(id string) (export.Snapshot, error) {
	sess, err := f.store.Get(id)
	if err != nil {
		return export.Snapshot{}, err
	}
	return export.Build(sess)
}
