// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"testing"

	"github.com/riftlab/arena/server/world"
)

func testReliableConfig() ReliableConfig {
	return ReliableConfig{
		RetryBase:   0.5, // 5 ticks at rate 10
		RetryFactor: 2,
		RetryCap:    2, // 20 ticks
		MaxAttempts: 3,
		QueueLimit:  4,
	}
}

func testEvent(id world.EventID) world.Event {
	return world.Event{Type: world.EventTowerDestroyed, ID: id}
}

func dueIDs(queue *ReliableQueue, tick world.Ticks) []world.EventID {
	var ids []world.EventID
	for _, event := range queue.Due(tick, nil) {
		ids = append(ids, event.ID)
	}
	return ids
}

func TestReliableGeometricBackoff(t *testing.T) {
	queue := NewReliableQueue(testReliableConfig(), 10)
	queue.Push(testEvent(1), 0)

	// First attempt immediately, then 0.5s and 1s between resends.
	if ids := dueIDs(queue, 0); len(ids) != 1 {
		t.Fatalf("first attempt not sent")
	}
	for tick := world.Ticks(1); tick < 5; tick++ {
		if ids := dueIDs(queue, tick); len(ids) != 0 {
			t.Fatalf("resent at tick %d, before the backoff elapsed", tick)
		}
	}
	if ids := dueIDs(queue, 5); len(ids) != 1 {
		t.Fatalf("second attempt not sent at tick 5")
	}
	if ids := dueIDs(queue, 14); len(ids) != 0 {
		t.Fatalf("third attempt sent early")
	}
	if ids := dueIDs(queue, 15); len(ids) != 1 {
		t.Fatalf("third attempt not sent at tick 15")
	}

	// Attempts exhausted; the event expires instead of resending.
	if ids := dueIDs(queue, 100); len(ids) != 0 {
		t.Fatalf("expired event resent")
	}
	if queue.Len() != 0 {
		t.Errorf("len = %d after expiry, want 0", queue.Len())
	}
	if queue.Expired() != 1 {
		t.Errorf("expired = %d, want 1", queue.Expired())
	}
}

func TestReliableBackoffCapped(t *testing.T) {
	queue := NewReliableQueue(testReliableConfig(), 10)
	// 0.5 * 2^10 seconds is far beyond the cap of 2 seconds.
	if got := queue.backoff(10); got != 20 {
		t.Errorf("backoff(10) = %d ticks, want capped 20", got)
	}
	if got := queue.backoff(0); got != 5 {
		t.Errorf("backoff(0) = %d ticks, want 5", got)
	}
}

func TestReliableBackoffAtLeastOneTick(t *testing.T) {
	cfg := testReliableConfig()
	cfg.RetryBase = 0.001
	queue := NewReliableQueue(cfg, 10)
	if got := queue.backoff(0); got != 1 {
		t.Errorf("backoff(0) = %d ticks, want floor of 1", got)
	}
}

func TestReliableCumulativeAck(t *testing.T) {
	queue := NewReliableQueue(testReliableConfig(), 10)
	queue.Push(testEvent(1), 0)
	queue.Push(testEvent(2), 0)
	queue.Push(testEvent(3), 0)

	queue.Ack(2)
	if queue.Len() != 1 {
		t.Fatalf("len = %d after ack 2, want 1", queue.Len())
	}
	if ids := dueIDs(queue, 0); len(ids) != 1 || ids[0] != 3 {
		t.Errorf("due after ack = %v, want [3]", ids)
	}

	// Acks never regress.
	queue.Ack(1)
	if queue.Acked() != 2 {
		t.Errorf("acked = %d after lower ack, want 2", queue.Acked())
	}

	// An acked id cannot be re-enqueued.
	if queue.Push(testEvent(2), 0) {
		t.Errorf("acked event re-enqueued")
	}
}

func TestReliableQueueLimit(t *testing.T) {
	cfg := testReliableConfig()
	cfg.QueueLimit = 2
	queue := NewReliableQueue(cfg, 10)

	if !queue.Push(testEvent(1), 0) || !queue.Push(testEvent(2), 0) {
		t.Fatalf("in-budget push rejected")
	}
	if queue.Push(testEvent(3), 0) {
		t.Errorf("push beyond the queue limit accepted")
	}
}
