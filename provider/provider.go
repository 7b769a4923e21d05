// Package provider defines the reasoning provider boundary consumed by the
// debate agents: a blocking, timeout-scoped Generate call carrying the
// session temperature and a derived seed so providers that support seeded
// sampling reproduce identical output for identical input.
package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
)

// Request is a single structured-output generation request.
type Request struct {
	// System is the role instruction block.
	System string
	// Prompt is the user-facing task prompt.
	Prompt string
	// Temperature is the session sampling temperature.
	Temperature float64
	// Seed is the engine-derived deterministic seed for this call.
	// Providers without seeded sampling ignore it.
	Seed int64
	// MaxTokens caps the completion length; 0 uses the provider default.
	MaxTokens int64
}

// Response is the provider's completed generation.
type Response struct {
	Text  string
	Model string
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name        string
	Vendor      string // "openai", "anthropic", "mock", ...
	SupportsSeed bool
}

// Provider is the minimal interface the agents require. Generate blocks
// until completion, error, or context cancellation; the engine supplies a
// per-call timeout context.
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Info() Info
}

// Mock is a lightweight deterministic in-memory Provider for tests and
// examples. Responses are resolved in order: an installed GenerateFunc, a
// queued scripted reply, a prompt-keyed canned reply, then a deterministic
// fallback derived from the request.
type Mock struct {
	mu        sync.Mutex
	scripted  []string
	byPrompt  map[string]string
	generate  func(Request) (string, error)
	calls     []Request
}

// NewMock constructs an empty mock provider.
func NewMock() *Mock {
	return &Mock{byPrompt: make(map[string]string)}
}

// Queue appends scripted replies consumed in FIFO order.
func (m *Mock) Queue(texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append(m.scripted, texts...)
}

// AddResponse registers a canned reply for prompts containing key.
func (m *Mock) AddResponse(key, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPrompt[key] = response
}

// SetGenerateFunc installs a hook that fully controls generation. The hook
// takes precedence over queued and canned replies.
func (m *Mock) SetGenerateFunc(fn func(Request) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generate = fn
}

// Calls returns a copy of every request seen so far.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// Generate implements Provider.
func (m *Mock) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn := m.generate
	var scripted string
	var hasScripted bool
	if fn == nil && len(m.scripted) > 0 {
		scripted, hasScripted = m.scripted[0], true
		m.scripted = m.scripted[1:]
	}
	var canned string
	var hasCanned bool
	if fn == nil && !hasScripted {
		keys := make([]string, 0, len(m.byPrompt))
		for key := range m.byPrompt {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if strings.Contains(req.Prompt, key) {
				canned, hasCanned = m.byPrompt[key], true
				break
			}
		}
	}
	m.mu.Unlock()

	if fn != nil {
		text, err := fn(req)
		if err != nil {
			return Response{}, err
		}
		return Response{Text: text, Model: "mock"}, nil
	}
	if hasScripted {
		return Response{Text: scripted, Model: "mock"}, nil
	}
	if hasCanned {
		return Response{Text: canned, Model: "mock"}, nil
	}

	// Deterministic fallback keyed on prompt + seed.
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d", req.Prompt, req.Seed)
	return Response{Text: fmt.Sprintf("mock-%016x", h.Sum64()), Model: "mock"}, nil
}

// Info implements Provider.
func (m *Mock) Info() Info {
	return Info{Name: "mock", Vendor: "mock", SupportsSeed: true}
}
