// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/chewxy/math32"

	"github.com/riftlab/arena/server/world"
)

type (
	// ReliableQueue delivers events that must reach one viewer at least
	// once. Unacknowledged events are re-sent on a geometric backoff; acks
	// are cumulative, covering every event id at or below the acked id.
	// Owned by the match goroutine.
	ReliableQueue struct {
		cfg      ReliableConfig
		tickRate int
		entries  []reliableEntry // ascending by event id
		acked    world.EventID
		expired  uint64
	}

	reliableEntry struct {
		event    world.Event
		nextSend world.Ticks
		attempts int
	}
)

func NewReliableQueue(cfg ReliableConfig, tickRate int) *ReliableQueue {
	return &ReliableQueue{cfg: cfg, tickRate: tickRate}
}

// Push enqueues an event for delivery starting at tick. The event must
// already carry its match-wide id; ids arrive in ascending order.
func (queue *ReliableQueue) Push(event world.Event, tick world.Ticks) bool {
	if event.ID <= queue.acked {
		return false
	}
	if len(queue.entries) >= queue.cfg.QueueLimit {
		return false
	}
	queue.entries = append(queue.entries, reliableEntry{event: event, nextSend: tick})
	return true
}

// Due appends every event whose resend timer elapsed to out and arms the
// next attempt. Events past MaxAttempts are expired, not re-sent.
func (queue *ReliableQueue) Due(tick world.Ticks, out []world.Event) []world.Event {
	kept := queue.entries[:0]
	for _, entry := range queue.entries {
		if entry.attempts >= queue.cfg.MaxAttempts {
			queue.expired++
			continue
		}
		if entry.nextSend <= tick {
			out = append(out, entry.event)
			entry.nextSend = tick + queue.backoff(entry.attempts)
			entry.attempts++
		}
		kept = append(kept, entry)
	}
	queue.entries = kept
	return out
}

// backoff is base * factor^attempts seconds, capped, in ticks.
func (queue *ReliableQueue) backoff(attempts int) world.Ticks {
	delay := queue.cfg.RetryBase * math32.Pow(queue.cfg.RetryFactor, float32(attempts))
	delay = min(delay, queue.cfg.RetryCap)
	ticks := world.Ticks(delay * float32(queue.tickRate))
	return max(ticks, 1)
}

// Ack acknowledges every event up to and including id. Lower acks than one
// already seen are ignored; acks never regress.
func (queue *ReliableQueue) Ack(id world.EventID) {
	if id <= queue.acked {
		return
	}
	queue.acked = id
	kept := queue.entries[:0]
	for _, entry := range queue.entries {
		if entry.event.ID > id {
			kept = append(kept, entry)
		}
	}
	queue.entries = kept
}

// Len is the number of unacknowledged events.
func (queue *ReliableQueue) Len() int { return len(queue.entries) }

// Acked is the highest cumulative ack received.
func (queue *ReliableQueue) Acked() world.EventID { return queue.acked }

// Expired counts events dropped after exhausting their attempts.
func (queue *ReliableQueue) Expired() uint64 { return queue.expired }
