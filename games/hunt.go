package games

// A host creates a hunt and shares the short join code (or its QR code)
// Players join with a display name; the first to join becomes the host
// The host starts the hunt, which hands every player the checkpoint list
// Players walk to checkpoints and answer the question attached to each one
// Each accepted answer is worth a fixed number of points
// Everyone sees a live lobby, live positions of other players, and a leaderboard

// Implementation details:
// - One websocket per player at /hunt/:code/ws
// - Players identified by a per-connection ID assigned at upgrade
// - Position reports are relayed to the other players only, never echoed
// - Proximity checking is intentionally left to a future checkpoint source;
//   the server distributes whatever the injected source returns

// Lifecycle
// - Sessions are created over the REST API (or by visiting /hunt)
// - A session ends when deleted over the API, or when idle past the timeout
// - Disconnecting removes a player and promotes a new host if needed
