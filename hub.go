/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"

	"github.com/gorilla/websocket"
)

// client is one WebSocket connection. Its identity is assigned at
// upgrade time and lives exactly as long as the connection.
type client struct {
	conn *websocket.Conn
	id   string
	code string // join code from the socket's path

	game string // set once a join succeeds; read/written only by readPump

	mu     sync.Mutex
	send   chan any
	closed bool
}

// trySend queues msg for delivery without blocking. Returns false if
// the client is gone or its buffer is full.
func (c *client) trySend(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// broadcaster is the delivery contract the game logic depends on.
// Delivery is best-effort and at most once per connection per call; a
// slow or dead connection never blocks delivery to the rest of the
// group, and never fails the originating operation.
type broadcaster interface {
	join(code string, c *client)
	leave(code string, c *client)
	toGroup(code string, msg any)
	toOthers(code string, senderID string, msg any)
	closeGroup(code string)
}

// Registry maps join codes to their broadcast groups. Group membership
// changes only on join, leave, and disconnect; it is deliberately
// decoupled from session membership, which the store owns.
type Registry struct {
	mu     sync.Mutex
	groups map[string]map[*client]struct{}
}

func newRegistry() *Registry {
	return &Registry{
		groups: make(map[string]map[*client]struct{}),
	}
}

func (reg *Registry) join(code string, c *client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.groups[code] == nil {
		reg.groups[code] = make(map[*client]struct{})
	}
	reg.groups[code][c] = struct{}{}
}

func (reg *Registry) leave(code string, c *client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if group, ok := reg.groups[code]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(reg.groups, code)
		}
	}
}

// toGroup delivers msg to every connection in the group. Clients that
// cannot keep up are dropped from the group and closed.
func (reg *Registry) toGroup(code string, msg any) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for c := range reg.groups[code] {
		if !c.trySend(msg) {
			delete(reg.groups[code], c)
			c.closeSend()
		}
	}
}

// toOthers delivers msg to every group member except the sender.
func (reg *Registry) toOthers(code string, senderID string, msg any) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for c := range reg.groups[code] {
		if c.id == senderID {
			continue
		}
		if !c.trySend(msg) {
			delete(reg.groups[code], c)
			c.closeSend()
		}
	}
}

// closeGroup disconnects every member and forgets the group. The
// writePumps close the underlying connections as their send channels
// drain.
func (reg *Registry) closeGroup(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for c := range reg.groups[code] {
		c.closeSend()
	}
	delete(reg.groups, code)
}

// groupSize reports the current number of connections in a group.
func (reg *Registry) groupSize(code string) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.groups[code])
}
