/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c *client) []any {
	t.Helper()

	var msgs []any
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestRegistryGroupDelivery(t *testing.T) {
	reg := newRegistry()

	a := newTestClient("a")
	b := newTestClient("b")
	other := newTestClient("c")

	reg.join("GAME01", a)
	reg.join("GAME01", b)
	reg.join("GAME02", other)

	reg.toGroup("GAME01", "hello")

	assert.Equal(t, []any{"hello"}, drain(t, a))
	assert.Equal(t, []any{"hello"}, drain(t, b))
	assert.Empty(t, drain(t, other), "scoped to the group")
}

func TestRegistryToOthersExcludesSender(t *testing.T) {
	reg := newRegistry()

	a := newTestClient("a")
	b := newTestClient("b")
	c := newTestClient("c")

	for _, cl := range []*client{a, b, c} {
		reg.join("GAME01", cl)
	}

	reg.toOthers("GAME01", "a", "moved")

	assert.Empty(t, drain(t, a), "sender never receives its own report")
	assert.Equal(t, []any{"moved"}, drain(t, b))
	assert.Equal(t, []any{"moved"}, drain(t, c))
}

func TestRegistryLeave(t *testing.T) {
	reg := newRegistry()

	a := newTestClient("a")
	b := newTestClient("b")

	reg.join("GAME01", a)
	reg.join("GAME01", b)
	reg.leave("GAME01", a)

	reg.toGroup("GAME01", "update")

	assert.Empty(t, drain(t, a))
	assert.Equal(t, []any{"update"}, drain(t, b))
	assert.Equal(t, 1, reg.groupSize("GAME01"))
}

func TestRegistryDropsSlowClients(t *testing.T) {
	reg := newRegistry()

	slow := &client{id: "slow", send: make(chan any)} // no buffer, nothing reading
	ok := newTestClient("ok")

	reg.join("GAME01", slow)
	reg.join("GAME01", ok)

	reg.toGroup("GAME01", "first")

	// The slow client is dropped and closed; the rest of the group is
	// unaffected.
	assert.Equal(t, 1, reg.groupSize("GAME01"))
	assert.Equal(t, []any{"first"}, drain(t, ok))

	_, open := <-slow.send
	assert.False(t, open, "slow client's channel closed")

	assert.False(t, slow.trySend("late"), "sends after close are refused")
}

func TestRegistryCloseGroup(t *testing.T) {
	reg := newRegistry()

	a := newTestClient("a")
	b := newTestClient("b")

	reg.join("GAME01", a)
	reg.join("GAME01", b)

	reg.closeGroup("GAME01")
	assert.Equal(t, 0, reg.groupSize("GAME01"))

	for _, cl := range []*client{a, b} {
		drain(t, cl)
		_, open := <-cl.send
		require.False(t, open)
	}

	// Double close must not panic (disconnect after group teardown).
	a.closeSend()
}

func TestRegistryUnknownGroupIsNoop(t *testing.T) {
	reg := newRegistry()

	reg.toGroup("NOPE42", "msg")
	reg.toOthers("NOPE42", "a", "msg")
	reg.closeGroup("NOPE42")
	reg.leave("NOPE42", newTestClient("a"))
}
