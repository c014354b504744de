/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
)

// CheckpointSource provides the checkpoints handed out when a game
// starts. Real content generation (map lookups, question banks) plugs
// in here; the server only distributes whatever the source returns.
type CheckpointSource interface {
	Checkpoints(settings Settings) []Checkpoint
}

// demoSource hands out placeholder checkpoints at the origin, matching
// the behavior of the original demo content.
type demoSource struct {
	count int
}

func (d demoSource) Checkpoints(_ Settings) []Checkpoint {
	checkpoints := make([]Checkpoint, 0, d.count)
	for i := 1; i <= d.count; i++ {
		checkpoints = append(checkpoints, Checkpoint{
			ID:       fmt.Sprintf("c%d", i),
			Question: fmt.Sprintf("Demo Q%d", i),
		})
	}
	return checkpoints
}
