// Geohunt scavenger hunt server
//
// A host creates a session over the REST API and receives a short join
// code. Players open a WebSocket against that code, join with a display
// name, and from then on receive live lobby, position, and leaderboard
// updates. The first player to join becomes host and is the only one
// allowed to start the hunt, which distributes the checkpoint list.
//
// Features:
// - Session per join code: /hunt/:code and /hunt/:code/ws
// - First player to join becomes host; host succession on departure
// - Random uppercase join codes via crypto/rand, with server-side collision retry
// - Errors acknowledged only to the offending client, never broadcast
// - Position reports relayed to everyone except the sender
// - Fixed 10-point score per accepted answer; no answer validation
// - Sessions ended administratively or auto-reaped after configurable idle timeout
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Each accepted answer is worth a fixed number of points. Correctness
// checking is a pluggable concern that the demo source does not implement.
const scorePerAnswer = 10

// Hunt coordinates session membership, state transitions, and the
// broadcasts they trigger. All shared state lives in the store and the
// broadcaster; Hunt itself is stateless and safe for concurrent use.
type Hunt struct {
	cfg    *Config
	store  *SessionStore
	groups broadcaster
	source CheckpointSource
}

func newHunt(cfg *Config, store *SessionStore, groups broadcaster, source CheckpointSource) *Hunt {
	return &Hunt{
		cfg:    cfg,
		store:  store,
		groups: groups,
		source: source,
	}
}

// join adds the connection to the session as a new participant. The
// first participant to join becomes host. The whole group, including
// the joiner, receives the updated lobby.
func (h *Hunt) join(code string, c *client, name string) (Participant, error) {
	s, ok := h.store.get(code)
	if !ok {
		return Participant{}, errSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = time.Now()

	if idx := s.playerIndexLocked(c.id); idx >= 0 {
		// Same connection joining twice just updates the name.
		s.players[idx].Name = name
		h.groups.toGroup(code, LobbyUpdateMessage{
			Type:    "lobby_update",
			Players: s.lobbyLocked(),
			Host:    s.hostID,
		})
		return s.players[idx], nil
	}

	p := Participant{
		ID:      c.id,
		Name:    name,
		Visited: []string{},
	}
	s.players = append(s.players, p)

	if s.hostID == "" {
		s.hostID = c.id
	}

	// The group association has to exist before the lobby broadcast so
	// the joiner sees a lobby that includes itself.
	h.groups.join(code, c)

	h.groups.toGroup(code, LobbyUpdateMessage{
		Type:    "lobby_update",
		Players: s.lobbyLocked(),
		Host:    s.hostID,
	})

	logf(h.cfg, "GAMES: Player %q joined %s", name, code)

	return p, nil
}

// start transitions the session to active and distributes checkpoints.
// Only the host may start, and only once.
func (h *Hunt) start(code string, connID string) error {
	s, ok := h.store.get(code)
	if !ok {
		return errSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if connID != s.hostID {
		return errNotHost
	}
	if s.status != statusWaiting {
		return errAlreadyStarted
	}

	s.status = statusActive
	s.checkpoints = h.source.Checkpoints(s.settings)
	s.lastActive = time.Now()

	h.groups.toGroup(code, GameStartedMessage{
		Type:        "game_started",
		Checkpoints: s.checkpoints,
	})

	logf(h.cfg, "GAMES: Game %s started with %d checkpoints", code, len(s.checkpoints))

	return nil
}

// recordLocation relays a position report to every other group member.
// Position streams are lossy-tolerant, so an unknown code is a no-op
// rather than an error.
func (h *Hunt) recordLocation(code string, connID string, lat, lon float64) {
	s, ok := h.store.get(code)
	if !ok {
		return
	}

	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()

	h.groups.toOthers(code, connID, PlayerMovedMessage{
		Type: "player_moved",
		ID:   connID,
		Lat:  lat,
		Lon:  lon,
	})
}

// submitAnswer credits the participant a fixed score and broadcasts the
// updated leaderboard. The answer itself is not validated.
func (h *Hunt) submitAnswer(code string, connID string, checkpointID string, answer string) error {
	s, ok := h.store.get(code)
	if !ok {
		return errSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.playerIndexLocked(connID)
	if idx < 0 {
		return errParticipantNotFound
	}

	s.players[idx].Score += scorePerAnswer

	visited := false
	for _, id := range s.players[idx].Visited {
		if id == checkpointID {
			visited = true
			break
		}
	}
	if !visited && checkpointID != "" {
		s.players[idx].Visited = append(s.players[idx].Visited, checkpointID)
	}

	s.lastActive = time.Now()

	h.groups.toGroup(code, LeaderboardMessage{
		Type:        "leaderboard_update",
		Leaderboard: s.leaderboardLocked(),
	})

	return nil
}

// leave removes the departed connection from every session that lists
// it, promoting a new host where needed, and updates each remaining
// group. A connection belongs to at most one session under normal
// operation; the scan covers defensive cleanup regardless.
func (h *Hunt) leave(connID string) {
	for _, s := range h.store.all() {
		s.mu.Lock()

		idx := s.playerIndexLocked(connID)
		if idx < 0 {
			s.mu.Unlock()
			continue
		}

		name := s.players[idx].Name
		s.players = append(s.players[:idx], s.players[idx+1:]...)

		// Host succession: the earliest remaining participant takes
		// over, so the session stays startable.
		if s.hostID == connID {
			if len(s.players) > 0 {
				s.hostID = s.players[0].ID
			} else {
				s.hostID = ""
			}
		}

		s.lastActive = time.Now()

		h.groups.toGroup(s.code, LobbyUpdateMessage{
			Type:    "lobby_update",
			Players: s.lobbyLocked(),
			Host:    s.hostID,
		})

		logf(h.cfg, "GAMES: Player %q left %s", name, s.code)

		s.mu.Unlock()
	}
}

// end removes the session, tells its group, and tears the group down.
// This is the administrative end-session path; the reaper uses it too.
func (h *Hunt) end(code string) bool {
	if _, ok := h.store.remove(code); !ok {
		return false
	}

	h.groups.toGroup(code, SessionEndedMessage{
		Type: "session_ended",
		Code: code,
	})
	h.groups.closeGroup(code)

	logf(h.cfg, "GAMES: Game %s ended", code)

	return true
}

// disconnect handles a transport-level close: the connection leaves its
// broadcast group first so it never sees its own departure, then every
// session it belonged to is cleaned up.
func (h *Hunt) disconnect(c *client) {
	if c.game != "" {
		h.groups.leave(c.game, c)
	}
	c.closeSend()
	h.leave(c.id)
}

// reaperLoop periodically ends sessions that have been idle longer than
// the configured timeout.
func (h *Hunt) reaperLoop(idleTimeout time.Duration) {
	ticker := time.NewTicker(idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-idleTimeout)

		for _, s := range h.store.all() {
			s.mu.Lock()
			last := s.lastActive
			s.mu.Unlock()

			if last.Before(cutoff) {
				logf(h.cfg, "GAMES: Reaping idle game %s", s.code)
				h.end(s.code)
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWSForHunt upgrades the connection, assigns it an identity, and
// feeds inbound events to the hunt until the client goes away.
func serveWSForHunt(cfg *Config, hunt *Hunt) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if code == "" {
			http.Error(w, "missing join code", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		c := &client{
			conn: conn,
			id:   uuid.NewString(),
			code: code,
			send: make(chan any, 8),
		}

		go c.writePump()
		c.readPump(hunt)
	}
}

// readPump dispatches client events to the hunt. Acks go back on this
// connection only; failed operations never close it.
func (c *client) readPump(h *Hunt) {
	defer func() {
		h.disconnect(c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		// The socket is bound to one game by its path; a mismatched
		// code in the payload is treated as an unknown session.
		code := c.code
		if msg.Code != "" && msg.Code != c.code {
			code = msg.Code
		}

		switch msg.Type {
		case "join_game":
			p, err := h.join(code, c, msg.Name)
			if err != nil {
				c.trySend(ackErr("join_game", err))
				continue
			}
			c.game = code
			ack := ackOk("join_game")
			ack.PlayerID = p.ID
			c.trySend(ack)

		case "start_game":
			if err := h.start(code, c.id); err != nil {
				c.trySend(ackErr("start_game", err))
				continue
			}
			c.trySend(ackOk("start_game"))

		case "player_location":
			h.recordLocation(code, c.id, msg.Lat, msg.Lon)

		case "submit_answer":
			if err := h.submitAnswer(code, c.id, msg.CheckpointID, msg.Answer); err != nil {
				c.trySend(ackErr("submit_answer", err))
				continue
			}
			c.trySend(ackOk("submit_answer"))

		default:
			// ignore unknown types
		}
	}
}

// createRequest mirrors the create-session API body. Unrecognized
// settings ride along in the extension map rather than being merged
// into the session wholesale.
type createRequest struct {
	Boundary  json.RawMessage            `json:"boundary,omitempty"`
	TimeLimit int                        `json:"time_limit,omitempty"`
	Settings  map[string]json.RawMessage `json:"settings,omitempty"`
}

type createResponse struct {
	Code    string `json:"code"`
	JoinURL string `json:"join_url"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serveCreateHunt handles POST $apiPath, creating a new waiting session.
func serveCreateHunt(cfg *Config, path string, hunt *Hunt) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(cfg, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		s, err := hunt.store.create(Settings{
			Boundary:  req.Boundary,
			TimeLimit: req.TimeLimit,
			Extra:     req.Settings,
		})
		if err != nil {
			writeJSON(cfg, w, http.StatusServiceUnavailable, map[string]string{"error": "could not allocate a join code"})
			return
		}

		logf(cfg, "GAMES: Created game %s%s/%s", cfg.prefix, path, s.code)

		writeJSON(cfg, w, http.StatusCreated, createResponse{
			Code:    s.code,
			JoinURL: cfg.prefix + path + "/" + s.code,
		})
	}
}

// serveGetHunt handles GET $apiPath/:code, returning a full snapshot.
func serveGetHunt(cfg *Config, hunt *Hunt) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, ok := hunt.store.get(ps.ByName("code"))
		if !ok {
			writeJSON(cfg, w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}

		writeJSON(cfg, w, http.StatusOK, s.snapshot())
	}
}

// serveEndHunt handles DELETE $apiPath/:code, the administrative
// end-session path.
func serveEndHunt(cfg *Config, hunt *Hunt) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !hunt.end(ps.ByName("code")) {
			writeJSON(cfg, w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// redirectNewHunt handles GET $path by creating a session with default
// settings and redirecting to its page.
func redirectNewHunt(cfg *Config, path string, hunt *Hunt) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s, err := hunt.store.create(Settings{})
		if err != nil {
			http.Error(w, "could not allocate a join code", http.StatusServiceUnavailable)
			return
		}

		logf(cfg, "GAMES: Created game %s%s/%s", cfg.prefix, path, s.code)
		http.Redirect(w, r, cfg.prefix+path+"/"+s.code, http.StatusTemporaryRedirect)
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if code == "" {
		http.Error(w, "missing join code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:code/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerHuntGame sets up routes so that:
//   - $path                  → creates a session and redirects to it
//   - $path/:code            → HTML client
//   - $path/:code/ws         → WebSocket for that game
//   - $path/:code/qr         → PNG QR code for that game URL
//   - POST $apiPath          → create session (returns code + join URL)
//   - GET $apiPath/:code     → session snapshot
//   - DELETE $apiPath/:code  → administrative end-session
func registerHuntGame(cfg *Config, path string, mux *httprouter.Router) {
	store := newSessionStore(cfg.codeLength)
	registry := newRegistry()
	hunt := newHunt(cfg, store, registry, demoSource{count: cfg.checkpointCount})

	if cfg.sessionTimeout > 0 {
		go hunt.reaperLoop(cfg.sessionTimeout)
	}

	apiPath := "/api" + path

	mux.POST(cfg.prefix+apiPath, serveCreateHunt(cfg, path, hunt))
	mux.GET(cfg.prefix+apiPath+"/:code", serveGetHunt(cfg, hunt))
	mux.DELETE(cfg.prefix+apiPath+"/:code", serveEndHunt(cfg, hunt))

	// Root path → create a new game and redirect to it
	mux.GET(cfg.prefix+path, redirectNewHunt(cfg, path, hunt))

	// Per-game client view (HTML)
	mux.GET(cfg.prefix+path+"/:code", getIndexHandler(cfg))

	// Shared assets (no code in route)
	mux.GET(cfg.prefix+"/assets/hunt/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/hunt/app.js", getJsHandler(cfg))

	// Per-game websocket
	mux.GET(cfg.prefix+path+"/:code/ws", serveWSForHunt(cfg, hunt))

	// Per-game QR code
	mux.GET(cfg.prefix+path+"/:code/qr", qrHandler)
}
