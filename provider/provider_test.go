package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockScriptedRepliesFIFO(t *testing.T) {
	m := NewMock()
	m.Queue("first", "second")

	resp, err := m.Generate(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	resp, err = m.Generate(context.Background(), Request{Prompt: "b"})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)
}

func TestMockCannedByPromptSubstring(t *testing.T) {
	m := NewMock()
	m.AddResponse("Attack", "attack reply")
	m.AddResponse("Propose", "propose reply")

	resp, err := m.Generate(context.Background(), Request{Prompt: "Propose between 5 and 10 concepts"})
	require.NoError(t, err)
	assert.Equal(t, "propose reply", resp.Text)

	resp, err = m.Generate(context.Background(), Request{Prompt: "Attack the following concept"})
	require.NoError(t, err)
	assert.Equal(t, "attack reply", resp.Text)
}

func TestMockFallbackDeterministic(t *testing.T) {
	m := NewMock()

	a, err := m.Generate(context.Background(), Request{Prompt: "p", Seed: 1})
	require.NoError(t, err)
	b, err := m.Generate(context.Background(), Request{Prompt: "p", Seed: 1})
	require.NoError(t, err)
	c, err := m.Generate(context.Background(), Request{Prompt: "p", Seed: 2})
	require.NoError(t, err)

	assert.Equal(t, a.Text, b.Text)
	assert.NotEqual(t, a.Text, c.Text)
}

func TestMockGenerateFuncTakesPrecedence(t *testing.T) {
	m := NewMock()
	m.Queue("scripted")
	m.SetGenerateFunc(func(req Request) (string, error) {
		if req.Prompt == "boom" {
			return "", errors.New("forced failure")
		}
		return "hooked", nil
	})

	resp, err := m.Generate(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "hooked", resp.Text)

	_, err = m.Generate(context.Background(), Request{Prompt: "boom"})
	assert.Error(t, err)
}

func TestMockRecordsCalls(t *testing.T) {
	m := NewMock()
	m.Queue("r1", "r2")

	_, _ = m.Generate(context.Background(), Request{Prompt: "one", Seed: 10})
	_, _ = m.Generate(context.Background(), Request{Prompt: "two", Seed: 20})

	calls := m.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "one", calls[0].Prompt)
	assert.Equal(t, int64(20), calls[1].Seed)
}

func TestMockHonorsCancelledContext(t *testing.T) {
	m := NewMock()
	m.Queue("never returned")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
