/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	statusWaiting = "waiting"
	statusActive  = "active"
)

// Settings is the per-session configuration provided at creation time.
// Boundary and any extension fields are passed through to clients
// unmodified; the server only interprets TimeLimit.
type Settings struct {
	Boundary  json.RawMessage            `json:"boundary,omitempty"`
	TimeLimit int                        `json:"time_limit,omitempty"`
	Extra     map[string]json.RawMessage `json:"extra,omitempty"`
}

// Checkpoint is a location/question pair distributed to all players at
// game start. Immutable once the session is active.
type Checkpoint struct {
	ID       string  `json:"id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Question string  `json:"question"`
}

// Participant is one joined player, keyed by its connection ID.
type Participant struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Score   int      `json:"score"`
	Visited []string `json:"visited"`
}

// Session is a single scavenger hunt, identified by its join code.
// All mutation of a session happens under its own mutex; the store
// lock only guards the code map.
type Session struct {
	mu sync.Mutex

	code        string
	hostID      string // connection ID of the privileged player, empty until first join
	status      string
	settings    Settings
	checkpoints []Checkpoint
	players     []Participant
	createdAt   time.Time
	lastActive  time.Time
}

// lobbyPlayer is the reduced membership view sent in lobby updates.
// Scores and visited checkpoints are withheld from the lobby.
type lobbyPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// standing is one leaderboard row.
type standing struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func (s *Session) lobbyLocked() []lobbyPlayer {
	players := make([]lobbyPlayer, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, lobbyPlayer{ID: p.ID, Name: p.Name})
	}
	return players
}

// leaderboardLocked returns every player's name and score, in join order.
func (s *Session) leaderboardLocked() []standing {
	board := make([]standing, 0, len(s.players))
	for _, p := range s.players {
		board = append(board, standing{Name: p.Name, Score: p.Score})
	}
	return board
}

func (s *Session) playerIndexLocked(connID string) int {
	for i, p := range s.players {
		if p.ID == connID {
			return i
		}
	}
	return -1
}

// SessionSnapshot is the full read-only view returned by the session API.
type SessionSnapshot struct {
	Code        string        `json:"code"`
	Status      string        `json:"status"`
	HostID      string        `json:"host_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Settings    Settings      `json:"settings"`
	Players     []Participant `json:"players"`
	Checkpoints []Checkpoint  `json:"checkpoints,omitempty"`
}

func (s *Session) snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]Participant, len(s.players))
	copy(players, s.players)

	checkpoints := make([]Checkpoint, len(s.checkpoints))
	copy(checkpoints, s.checkpoints)

	return SessionSnapshot{
		Code:        s.code,
		Status:      s.status,
		HostID:      s.hostID,
		CreatedAt:   s.createdAt,
		Settings:    s.settings,
		Players:     players,
		Checkpoints: checkpoints,
	}
}

// SessionStore owns the join code → session mapping. Sessions are only
// removed through end() (administrative or reaper-driven); nothing
// expires implicitly.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	codeLength int
	newCode    func(int) string // swapped out in tests
}

func newSessionStore(codeLength int) *SessionStore {
	return &SessionStore{
		sessions:   make(map[string]*Session),
		codeLength: codeLength,
		newCode:    newJoinCode,
	}
}

// create generates a join code, retrying on collision, and inserts a new
// waiting session. The generate/check/insert sequence runs under the
// store lock so two concurrent creates cannot claim the same code.
func (st *SessionStore) create(settings Settings) (*Session, error) {
	const maxAttempts = 32

	st.mu.Lock()
	defer st.mu.Unlock()

	for i := 0; i < maxAttempts; i++ {
		code := st.newCode(st.codeLength)
		if _, exists := st.sessions[code]; exists {
			continue
		}

		now := time.Now()
		session := &Session{
			code:       code,
			status:     statusWaiting,
			settings:   settings,
			createdAt:  now,
			lastActive: now,
		}
		st.sessions[code] = session

		return session, nil
	}

	return nil, errors.New("exhausted join code attempts; code space too saturated")
}

func (st *SessionStore) get(code string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	session, ok := st.sessions[code]
	return session, ok
}

// remove deletes the session from the store and reports whether it
// existed. Announcing the removal to its group is the caller's job.
func (st *SessionStore) remove(code string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.sessions[code]
	if ok {
		delete(st.sessions, code)
	}
	return session, ok
}

// all returns the current sessions. Used by the disconnect scan and the
// reaper; O(total sessions), acceptable at this scale. Each caller locks
// sessions one at a time rather than holding the store lock across the
// whole walk.
func (st *SessionStore) all() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (st *SessionStore) count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return len(st.sessions)
}
