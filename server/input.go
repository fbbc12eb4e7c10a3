// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sort"

	"github.com/riftlab/arena/server/world"
)

type (
	// InputPipeline orders, deduplicates and rate limits inputs per player
	// before they reach the simulation. It is owned by the match goroutine.
	//
	// Each player's inputs carry a client-assigned seq starting at 1. The
	// pipeline releases them strictly in seq order; a missing seq holds the
	// queue for at most ReorderWindow ticks before the gap is skipped. Every
	// released seq advances the ack, including inputs the rate limiter or
	// the simulation rejected, so a client never waits on a seq that will
	// not be re-sent.
	InputPipeline struct {
		cfg      InputConfig
		tickRate int
		players  map[world.PlayerID]*playerInputs
	}

	playerInputs struct {
		nextSeq  uint32
		pending  map[uint32]playerCommand
		gapSince world.Ticks
		hasGap   bool
		tokens   float64
		dropped  uint64
	}

	// queuedCommand is one released input with its player.
	queuedCommand struct {
		PlayerID world.PlayerID
		Command  playerCommand
	}
)

func NewInputPipeline(cfg InputConfig, tickRate int) *InputPipeline {
	return &InputPipeline{
		cfg:      cfg,
		tickRate: tickRate,
		players:  make(map[world.PlayerID]*playerInputs),
	}
}

// AddPlayer registers a player's input queue. Re-adding (reconnect) keeps
// the existing seq state.
func (pipeline *InputPipeline) AddPlayer(playerID world.PlayerID) {
	if _, ok := pipeline.players[playerID]; ok {
		return
	}
	pipeline.players[playerID] = &playerInputs{
		nextSeq: 1,
		pending: make(map[uint32]playerCommand),
		tokens:  pipeline.cfg.Burst,
	}
}

// Submit buffers one input. Stale seqs (already consumed), duplicates and
// overflow beyond the queue size are dropped.
func (pipeline *InputPipeline) Submit(playerID world.PlayerID, command playerCommand) bool {
	queue := pipeline.players[playerID]
	if queue == nil {
		return false
	}
	seq := command.seq()
	if seq < queue.nextSeq {
		return false
	}
	if _, dup := queue.pending[seq]; dup {
		return false
	}
	if len(queue.pending) >= pipeline.cfg.QueueSize {
		queue.dropped++
		return false
	}
	queue.pending[seq] = command
	return true
}

// Drain releases every due input in player id order, then seq order. tick is
// the tick about to execute; it drives the reorder window and token refill.
func (pipeline *InputPipeline) Drain(tick world.Ticks) []queuedCommand {
	if len(pipeline.players) == 0 {
		return nil
	}
	playerIDs := make([]world.PlayerID, 0, len(pipeline.players))
	for playerID := range pipeline.players {
		playerIDs = append(playerIDs, playerID)
	}
	sort.Slice(playerIDs, func(i, j int) bool { return playerIDs[i] < playerIDs[j] })

	var out []queuedCommand
	for _, playerID := range playerIDs {
		queue := pipeline.players[playerID]
		queue.tokens = min(queue.tokens+pipeline.cfg.RatePerSecond/float64(pipeline.tickRate), pipeline.cfg.Burst)
		out = pipeline.drainPlayer(playerID, queue, tick, out)
	}
	return out
}

func (pipeline *InputPipeline) drainPlayer(playerID world.PlayerID, queue *playerInputs, tick world.Ticks, out []queuedCommand) []queuedCommand {
	for len(queue.pending) > 0 {
		command, ok := queue.pending[queue.nextSeq]
		if !ok {
			// A gap. Hold the queue for the reorder window, then skip to
			// the lowest buffered seq; the missing input is gone for good.
			if !queue.hasGap {
				queue.hasGap = true
				queue.gapSince = tick
				return out
			}
			if tick-queue.gapSince < world.Ticks(pipeline.cfg.ReorderWindow) {
				return out
			}
			queue.nextSeq = queue.lowestPending()
			queue.dropped++
			queue.hasGap = false
			continue
		}
		queue.hasGap = false
		delete(queue.pending, queue.nextSeq)
		queue.nextSeq++

		// Rate limited inputs are consumed, not deferred; the ack still
		// advances and the client's next input is not blocked.
		if queue.tokens < 1 {
			queue.dropped++
			continue
		}
		queue.tokens--
		out = append(out, queuedCommand{PlayerID: playerID, Command: command})
	}
	queue.hasGap = false
	return out
}

func (queue *playerInputs) lowestPending() uint32 {
	var lowest uint32
	first := true
	for seq := range queue.pending {
		if first || seq < lowest {
			lowest = seq
			first = false
		}
	}
	return lowest
}

// ClearPending drops a player's buffered inputs without touching the seq
// state. Called on disconnect; stale orders should not fire on reconnect.
func (pipeline *InputPipeline) ClearPending(playerID world.PlayerID) {
	queue := pipeline.players[playerID]
	if queue == nil {
		return
	}
	clear(queue.pending)
	queue.hasGap = false
}

// Ack returns the highest consumed seq for the player, zero before any.
func (pipeline *InputPipeline) Ack(playerID world.PlayerID) uint32 {
	queue := pipeline.players[playerID]
	if queue == nil {
		return 0
	}
	return queue.nextSeq - 1
}

// Dropped returns how many of the player's inputs were discarded for any
// reason (overflow, rate limit, reorder expiry).
func (pipeline *InputPipeline) Dropped(playerID world.PlayerID) uint64 {
	queue := pipeline.players[playerID]
	if queue == nil {
		return 0
	}
	return queue.dropped
}
