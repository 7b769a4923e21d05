package debateforge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/debateforge/core"
	"github.com/hupe1980/debateforge/provider"
)

const proposeJSON = `{
  "candidates": [
    {
      "description": "solar lantern that also charges phones",
      "target_user": "weekend campers",
      "price_band": "45-70",
      "channel": "outdoor retail",
      "functional": ["solar charging", "usb output"],
      "materials": ["abs"],
      "regulatory": [],
      "pain_points": ["dead phone"],
      "user_value": 8,
      "complexity": 4
    },
    {
      "description": "commuter charger with built-in light",
      "target_user": "urban commuters",
      "price_band": "35-55",
      "channel": "online marketplace",
      "functional": ["led light", "usb output"],
      "materials": ["aluminum"],
      "regulatory": [],
      "pain_points": ["dead phone"],
      "user_value": 7,
      "complexity": 5
    },
    {
      "description": "ultralight trail panel",
      "target_user": "thru hikers",
      "price_band": "60-90",
      "channel": "outdoor retail",
      "functional": ["solar charging"],
      "materials": ["nylon"],
      "regulatory": [],
      "pain_points": ["no outlets on trail"],
      "user_value": 7,
      "complexity": 3
    },
    {
      "description": "campsite light sold direct online",
      "target_user": "weekend campers",
      "price_band": "25-45",
      "channel": "online marketplace",
      "functional": ["led light", "solar charging"],
      "materials": ["abs", "nylon"],
      "regulatory": [],
      "pain_points": ["dark campsite"],
      "user_value": 8,
      "complexity": 6
    },
    {
      "description": "pocket charger for the retail shelf",
      "target_user": "urban commuters",
      "price_band": "30-50",
      "channel": "outdoor retail",
      "functional": ["usb output"],
      "materials": ["aluminum"],
      "regulatory": [],
      "pain_points": ["dead phone"],
      "user_value": 6,
      "complexity": 3
    }
  ]
}`

const attackJSON = `{
  "blockers": [{"tag": "cost", "detail": "cells dominate the BOM"}],
  "cost_low": {"moq": 500, "unit_cost": 19.5},
  "cost_high": {"moq": 5000, "unit_cost": 12},
  "fixes": ["shared tooling"],
  "notes": "buildable at volume"
}`

const deepenJSON = `{
  "title": "TrailCharge Lantern",
  "user_story": "As a camper I want light and charge in one device.",
  "features": ["300 lumen light", "power bank"],
  "price": 59,
  "bom": [{"part": "housing", "material": "abs", "quantity": 1, "unit_cost": 10.5}],
  "risks": ["seasonal demand"]
}`

const reviewJSON = `{"risks": ["retail margin pressure"], "notes": "ok"}`

func testCorpus() []core.KnownProduct {
	return []core.KnownProduct{
		{
			Name:     "BaseCamp Lantern",
			Category: "portable power",
			AttributeSet: core.AttributeSet{
				Functional: []string{"led light"},
				TargetUser: "weekend campers",
				PriceBand:  core.PriceBand{Low: 30, High: 50},
				Channel:    "outdoor retail",
				Materials:  []string{"abs"},
				PainPoints: []string{"dark campsite"},
			},
		},
		{
			Name:     "PowerBrick",
			Category: "portable power",
			AttributeSet: core.AttributeSet{
				Functional: []string{"usb output"},
				TargetUser: "urban commuters",
				PriceBand:  core.PriceBand{Low: 25, High: 45},
				Channel:    "online marketplace",
				Materials:  []string{"aluminum"},
				PainPoints: []string{"dead phone"},
			},
		},
		{
			Name:     "SunFold Panel",
			Category: "portable power",
			AttributeSet: core.AttributeSet{
				Functional: []string{"solar charging"},
				TargetUser: "thru hikers",
				PriceBand:  core.PriceBand{Low: 70, High: 110},
				Channel:    "outdoor retail",
				Materials:  []string{"nylon"},
				PainPoints: []string{"no outlets on trail"},
			},
		},
		{
			Name:     "HikeLight Mini",
			Category: "portable power",
			AttributeSet: core.AttributeSet{
				Functional: []string{"led light", "rechargeable"},
				TargetUser: "thru hikers",
				PriceBand:  core.PriceBand{Low: 20, High: 35},
				Channel:    "online marketplace",
				Materials:  []string{"abs"},
				PainPoints: []string{"dark campsite"},
			},
		},
		{
			Name:     "VoltPack Duo",
			Category: "portable power",
			AttributeSet: core.AttributeSet{
				Functional: []string{"usb output", "rechargeable"},
				TargetUser: "weekend campers",
				PriceBand:  core.PriceBand{Low: 35, High: 60},
				Channel:    "outdoor retail",
				Materials:  []string{"aluminum"},
				PainPoints: []string{"dead phone"},
			},
		},
	}
}

func scriptedProviders() (*provider.Mock, *provider.Mock) {
	seekerProv := provider.NewMock()
	seekerProv.AddResponse("Propose between", proposeJSON)
	seekerProv.AddResponse("Expand it into a full concept document", deepenJSON)

	builderProv := provider.NewMock()
	builderProv.AddResponse("Attack the following", attackJSON)
	builderProv.AddResponse("Review the following", reviewJSON)
	return seekerProv, builderProv
}

func newTestForge(optFns ...func(o *Options)) *DebateForge {
	seekerProv, builderProv := scriptedProviders()
	base := func(o *Options) {
		o.SeekerProvider = seekerProv
		o.BuilderProvider = builderProv
		o.Retry = core.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	}
	return New(append([]func(o *Options){base}, optFns...)...)
}

func TestStartRejectsEmptyCorpus(t *testing.T) {
	forge := newTestForge()

	_, err := forge.Start(context.Background(), StartParams{})
	require.Error(t, err)

	var cerr *core.EmptyCorpusError
	assert.True(t, errors.As(err, &cerr))
}

func TestDebateRunsToMaxRounds(t *testing.T) {
	forge := newTestForge()

	id, err := forge.Start(context.Background(), StartParams{
		CoreMarket:  "outdoor portable power",
		Corpus:      testCorpus(),
		Seed:        42,
		Temperature: 0.8,
		MaxRounds:   2,
	})
	require.NoError(t, err)

	sess, err := forge.Wait(context.Background(), id)
	require.NoError(t, err)

	// The default composite bar is out of reach for these drafts, so the
	// debate exhausts its round budget.
	assert.Equal(t, core.SessionMaxRoundsReached, sess.Status)
	assert.Len(t, sess.Rounds, 2)
	assert.Nil(t, sess.Concept)
	for _, round := range sess.Rounds {
		assert.NotEmpty(t, round.SurvivorIDs)
	}
}

func TestDebateConverges(t *testing.T) {
	forge := newTestForge(func(o *Options) {
		o.ConvergeComposite = 3.0
		o.MinGrossMargin = 0.4
	})

	id, err := forge.Start(context.Background(), StartParams{
		Corpus:      testCorpus(),
		Seed:        7,
		Temperature: 0.8,
		MaxRounds:   4,
	})
	require.NoError(t, err)

	sess, err := forge.Wait(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, core.SessionConverged, sess.Status)
	require.NotNil(t, sess.Concept)
	assert.Equal(t, "TrailCharge Lantern", sess.Concept.Title)
	assert.Contains(t, sess.Concept.Risks, "retail margin pressure")

	snap, err := forge.Export(id)
	require.NoError(t, err)
	assert.Equal(t, core.SessionConverged, snap.Status)
	assert.Equal(t, []string{"portable power"}, snap.Taxonomy.Categories)
}

func TestGetStateWhileRunning(t *testing.T) {
	forge := newTestForge()

	id, err := forge.Start(context.Background(), StartParams{
		Corpus:    testCorpus(),
		MaxRounds: 1,
	})
	require.NoError(t, err)

	// State is available immediately, whatever the run has reached.
	sess, err := forge.GetState(id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.Equal(t, "portable power", sess.Category)

	_, err = forge.Wait(context.Background(), id)
	require.NoError(t, err)
}

func TestUnknownRun(t *testing.T) {
	forge := newTestForge()

	_, err := forge.Wait(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, forge.Cancel("missing"), ErrRunNotFound)
}

func TestDeterministicReplay(t *testing.T) {
	run := func() *core.Session {
		forge := newTestForge()
		id, err := forge.Start(context.Background(), StartParams{
			Corpus:    testCorpus(),
			Seed:      99,
			MaxRounds: 1,
		})
		require.NoError(t, err)
		sess, err := forge.Wait(context.Background(), id)
		require.NoError(t, err)
		return sess
	}

	a, b := run(), run()
	require.Len(t, a.Rounds, 1)
	require.Len(t, b.Rounds, 1)
	assert.Equal(t, a.Rounds[0].SurvivorIDs, b.Rounds[0].SurvivorIDs)
	assert.Equal(t, a.Rounds[0].Notes, b.Rounds[0].Notes)
	for i := range a.Rounds[0].Candidates {
		assert.Equal(t, a.Rounds[0].Candidates[i].Composite, b.Rounds[0].Candidates[i].Composite)
	}
}
