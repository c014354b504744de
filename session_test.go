/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreate(t *testing.T) {
	store := newSessionStore(6)

	s, err := store.create(Settings{TimeLimit: 600})
	require.NoError(t, err)

	assert.Len(t, s.code, 6)
	assert.Equal(t, statusWaiting, s.status)
	assert.Empty(t, s.hostID)
	assert.Empty(t, s.players)
	assert.Empty(t, s.checkpoints)
	assert.Equal(t, 600, s.settings.TimeLimit)
	assert.False(t, s.createdAt.IsZero())

	got, ok := store.get(s.code)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestStoreCreateUniqueCodes(t *testing.T) {
	store := newSessionStore(6)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := store.create(Settings{})
		require.NoError(t, err)
		require.False(t, seen[s.code], "duplicate live code %q", s.code)
		seen[s.code] = true
	}

	assert.Equal(t, 100, store.count())
}

func TestStoreCreateRetriesOnCollision(t *testing.T) {
	store := newSessionStore(6)

	codes := []string{"AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB"}
	store.newCode = func(int) string {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}

	first, err := store.create(Settings{})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.code)

	// The rigged generator repeats the live code twice before yielding
	// a fresh one; create must skip past the collisions.
	second, err := store.create(Settings{})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.code)

	assert.Equal(t, 2, store.count())
}

func TestStoreCreateExhaustion(t *testing.T) {
	store := newSessionStore(6)
	store.newCode = func(int) string { return "AAAAAA" }

	_, err := store.create(Settings{})
	require.NoError(t, err)

	_, err = store.create(Settings{})
	assert.Error(t, err)
	assert.Equal(t, 1, store.count())
}

func TestStoreRemove(t *testing.T) {
	store := newSessionStore(6)

	s, err := store.create(Settings{})
	require.NoError(t, err)

	removed, ok := store.remove(s.code)
	require.True(t, ok)
	assert.Same(t, s, removed)

	_, ok = store.get(s.code)
	assert.False(t, ok)

	_, ok = store.remove(s.code)
	assert.False(t, ok)
}

func TestSettingsPassthrough(t *testing.T) {
	boundary := json.RawMessage(`{"ne":[52.5,13.4],"sw":[52.4,13.3]}`)

	store := newSessionStore(6)
	s, err := store.create(Settings{
		Boundary:  boundary,
		TimeLimit: 1800,
		Extra: map[string]json.RawMessage{
			"team_mode": json.RawMessage(`true`),
		},
	})
	require.NoError(t, err)

	snap := s.snapshot()
	assert.JSONEq(t, string(boundary), string(snap.Settings.Boundary))
	assert.Equal(t, 1800, snap.Settings.TimeLimit)
	assert.JSONEq(t, `true`, string(snap.Settings.Extra["team_mode"]))
}

func TestSnapshotIsACopy(t *testing.T) {
	store := newSessionStore(6)
	s, err := store.create(Settings{})
	require.NoError(t, err)

	s.mu.Lock()
	s.players = append(s.players, Participant{ID: "a", Name: "Alice"})
	s.mu.Unlock()

	snap := s.snapshot()
	snap.Players[0].Score = 999

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Zero(t, s.players[0].Score)
}
