// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// EventType tags a gameplay event.
type EventType string

const (
	EventChampionKill   EventType = "champion-kill"
	EventEntityDeath    EventType = "entity-death"
	EventTowerDestroyed EventType = "tower-destroyed"
	EventNexusDestroyed EventType = "nexus-destroyed"
	EventAbilityCast    EventType = "ability-cast"
	EventBasicAttack    EventType = "basic-attack"
	EventDamage         EventType = "damage"
	EventGoldEarned     EventType = "gold-earned"
	EventXPEarned       EventType = "xp-earned"
	EventLevelUp        EventType = "level-up"
	EventItemPurchased  EventType = "item-purchased"
	EventFirstBlood     EventType = "first-blood"
	EventMultiKill      EventType = "multi-kill"
	EventPing           EventType = "ping"
	EventRemoved        EventType = "removed" // synthetic, after an entity crash
)

// Reliable reports whether events of this type must reach every viewer at
// least once. The list covers deaths, structure destructions, and the
// persistent world-change events; extend only with events of that shape.
func (eventType EventType) Reliable() bool {
	switch eventType {
	case EventChampionKill, EventEntityDeath, EventTowerDestroyed,
		EventNexusDestroyed, EventFirstBlood, EventMultiKill,
		EventLevelUp, EventItemPurchased, EventAbilityCast:
		return true
	}
	return false
}

// Event is one buffered gameplay event. Events never leak mid-tick; the bus
// is drained at broadcast in emission order. ID stays zero until the
// reliable channel assigns one.
type Event struct {
	Type    EventType      `json:"type"`
	ID      EventID        `json:"id,omitempty"`
	Tick    Ticks          `json:"tick"`
	Payload map[string]any `json:"data,omitempty"`
}

// EventBus is the per-tick ordered queue of game events. It is flushed, not
// fired: subscribers see events only at broadcast time.
type EventBus struct {
	queue []Event
}

func NewEventBus() *EventBus {
	return &EventBus{queue: make([]Event, 0, 32)}
}

func (bus *EventBus) Emit(eventType EventType, tick Ticks, payload map[string]any) {
	bus.queue = append(bus.queue, Event{Type: eventType, Tick: tick, Payload: payload})
}

// Drain returns the buffered events in emission order and resets the queue.
// The returned slice is owned by the caller.
func (bus *EventBus) Drain() []Event {
	if len(bus.queue) == 0 {
		return nil
	}
	drained := bus.queue
	bus.queue = make([]Event, 0, cap(drained))
	return drained
}

func (bus *EventBus) Len() int {
	return len(bus.queue)
}
