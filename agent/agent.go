// Package agent implements the two debate roles on top of the provider
// boundary: the Opportunity Seeker (propose, deepen) and the Skeptical
// Builder (attack, concept review). Each role is independently bound to a
// provider backend; the engine is agnostic to which concrete provider a
// role uses.
//
// Structured responses are parsed strictly. A malformed or incomplete
// response triggers exactly one re-prompt carrying the validation failure;
// a second failure surfaces a *core.ValidationError to the caller.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/debateforge/core"
	"github.com/hupe1980/debateforge/logging"
	"github.com/hupe1980/debateforge/provider"
)

// Role identifies a debate role.
type Role string

const (
	// RoleSeeker proposes candidate deviations and deepens the winner.
	RoleSeeker Role = "seeker"
	// RoleBuilder attacks candidates with feasibility critique.
	RoleBuilder Role = "builder"
)

// CallParams carry the per-call sampling parameters derived by the engine
// from the session seed and temperature.
type CallParams struct {
	Temperature float64
	Seed        int64
}

// Context bundles the Seeker's round input: market framing, prior round
// survivors as positive exemplars and prior rejections (with blockers) as
// negative exemplars.
type Context struct {
	CoreMarket string
	Category   string
	Round      int
	// KnownProducts is the session's category corpus, shown as the market
	// baseline in the first round.
	KnownProducts []core.KnownProduct
	Survivors     []core.Candidate
	Rejected      []core.Candidate
	// Notes is the prior round's aggregate summary.
	Notes string
}

// Options configure a role agent.
type Options struct {
	Retry core.RetryPolicy
	// CallTimeout bounds each individual provider attempt. A call that
	// exceeds it counts as a transient failure under the retry policy.
	CallTimeout time.Duration
	MaxTokens   int64
	Logger      logging.Logger
}

// base carries the provider binding and call plumbing shared by both roles.
type base struct {
	role Role
	prov provider.Provider
	opts Options
}

func newBase(role Role, prov provider.Provider, optFns ...func(o *Options)) base {
	opts := Options{
		Retry:       core.DefaultRetryPolicy(),
		CallTimeout: 60 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return base{role: role, prov: prov, opts: opts}
}

// Provider returns the bound provider backend.
func (b *base) Provider() provider.Provider { return b.prov }

// generate runs one provider call under the retry policy. Transient
// failures that exhaust the budget surface as *core.ProviderError;
// cancellation is passed through untouched.
func (b *base) generate(ctx context.Context, system, prompt string, p CallParams) (string, error) {
	var text string
	err := b.opts.Retry.Do(ctx, func(ctx context.Context) error {
		attemptCtx := ctx
		if b.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, b.opts.CallTimeout)
			defer cancel()
		}
		start := time.Now()
		resp, err := b.prov.Generate(attemptCtx, provider.Request{
			System:      system,
			Prompt:      prompt,
			Temperature: p.Temperature,
			Seed:        p.Seed,
			MaxTokens:   b.opts.MaxTokens,
		})
		b.opts.Logger.Debug("provider call",
			"role", string(b.role),
			"model", b.prov.Info().Name,
			"duration", time.Since(start),
			"success", err == nil,
		)
		if err != nil {
			return err
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		// Caller cancellation passes through; attempt timeouts are
		// transient and get wrapped once the budget is gone.
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return "", err
		}
		return "", &core.ProviderError{Role: string(b.role), Attempts: b.opts.Retry.MaxAttempts, Err: err}
	}
	return text, nil
}
