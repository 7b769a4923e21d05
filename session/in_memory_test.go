package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/debateforge/core"
)

func TestInMemoryStorePutGet(t *testing.T) {
	store := NewInMemoryStore()
	sess := core.NewSession(core.SessionParams{Seed: 1})

	require.NoError(t, store.Put(sess))

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestInMemoryStoreGetUnknown(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStoreSnapshotsAreIsolated(t *testing.T) {
	store := NewInMemoryStore()
	sess := core.NewSession(core.SessionParams{
		Corpus: []core.KnownProduct{{
			Name:         "P",
			Category:     "c",
			AttributeSet: core.AttributeSet{Channel: "retail"},
		}},
	})
	require.NoError(t, store.Put(sess))

	snap, err := store.Get(sess.ID)
	require.NoError(t, err)
	snap.Corpus[0].Name = "changed"
	snap.Fail("tampered")

	again, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "P", again.Corpus[0].Name)
	assert.Equal(t, core.SessionRunning, again.Status)
}

func TestInMemoryStoreSeesLiveUpdates(t *testing.T) {
	store := NewInMemoryStore()
	sess := core.NewSession(core.SessionParams{})
	require.NoError(t, store.Put(sess))

	// Put registers the live session, so engine-side mutations are visible
	// in later snapshots without another Put.
	sess.Fail("boom")

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionFailed, got.Status)
}
