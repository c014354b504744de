/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

// Messages coming from clients
type ClientMessage struct {
	Type         string  `json:"type"`                    // "join_game", "start_game", "player_location", "submit_answer"
	Code         string  `json:"code,omitempty"`          // optional; must match the socket's game when set
	Name         string  `json:"name,omitempty"`          // join_game
	Lat          float64 `json:"lat,omitempty"`           // player_location
	Lon          float64 `json:"lon,omitempty"`           // player_location
	CheckpointID string  `json:"checkpoint_id,omitempty"` // submit_answer
	Answer       string  `json:"answer,omitempty"`        // submit_answer
}

// AckMessage is the synchronous reply to the client that sent an event.
// It is never broadcast.
type AckMessage struct {
	Type     string `json:"type"`  // "ack"
	Event    string `json:"event"` // the client event being acknowledged
	Ok       bool   `json:"ok"`
	PlayerID string `json:"player_id,omitempty"` // join_game only
	Error    string `json:"error,omitempty"`     // short machine-readable code
	Message  string `json:"message,omitempty"`   // user-facing text
}

func ackOk(event string) AckMessage {
	return AckMessage{Type: "ack", Event: event, Ok: true}
}

func ackErr(event string, err error) AckMessage {
	return AckMessage{
		Type:    "ack",
		Event:   event,
		Ok:      false,
		Error:   errorCode(err),
		Message: err.Error(),
	}
}

// LobbyUpdateMessage carries the current membership list, sent to the
// whole group after every join or departure.
type LobbyUpdateMessage struct {
	Type    string        `json:"type"` // "lobby_update"
	Players []lobbyPlayer `json:"players"`
	Host    string        `json:"host,omitempty"`
}

// GameStartedMessage distributes the checkpoint list once the host
// starts the hunt.
type GameStartedMessage struct {
	Type        string       `json:"type"` // "game_started"
	Checkpoints []Checkpoint `json:"checkpoints"`
}

// PlayerMovedMessage relays a position report to every other player.
type PlayerMovedMessage struct {
	Type string  `json:"type"` // "player_moved"
	ID   string  `json:"id"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// LeaderboardMessage carries every player's name and score, in join order.
type LeaderboardMessage struct {
	Type        string     `json:"type"` // "leaderboard_update"
	Leaderboard []standing `json:"leaderboard"`
}

// SessionEndedMessage tells the group their game has been ended, either
// administratively or by the idle reaper.
type SessionEndedMessage struct {
	Type string `json:"type"` // "session_ended"
	Code string `json:"code"`
}
