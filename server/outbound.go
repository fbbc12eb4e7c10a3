// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"

	"github.com/riftlab/arena/server/world"
)

type (
	// Chat is a chat message.
	Chat struct {
		PlayerID world.PlayerID `json:"playerID"`
		Name     string         `json:"name"`
		Message  string         `json:"message"`
		Team     bool           `json:"team,omitempty"`
	}

	// EntityDelta is the per-entity unit of a StateUpdate. Mask selects the
	// field families of Snap the custom marshaller writes; a delta carrying
	// only the removal bit tells the viewer to drop the entity.
	EntityDelta struct {
		ID   world.EntityID
		Kind world.EntityKind
		Side world.Side
		Mask world.ChangeMask
		Snap world.Snapshot
	}

	// RosterEntry describes one seat of the match.
	RosterEntry struct {
		PlayerID world.PlayerID `json:"playerID"`
		Name     string         `json:"name"`
		Side     world.Side     `json:"side"`
		Champion string         `json:"champion"`
	}

	// GameStart is sent when the match begins and again on reconnect.
	GameStart struct {
		MatchID    string         `json:"matchID"`
		PlayerID   world.PlayerID `json:"playerID"`
		Side       world.Side     `json:"side"`
		TickRate   int            `json:"tickRate"`
		HalfExtent float32        `json:"halfExtent"`
		Roster     []RosterEntry  `json:"roster"`
		EntityID   world.EntityID `json:"entityID"` // own champion
	}

	// StateUpdate is one tick's view for one viewer. It depends on a
	// special marshaller for Entities that writes only masked fields.
	StateUpdate struct {
		Entities []EntityDelta `json:"entities,omitempty"`
		Events   []world.Event `json:"events,omitempty"`
		Chats    []Chat        `json:"chats,omitempty"`

		// WallTime is server unix millis at broadcast; GameTime is the
		// executed tick in game seconds.
		WallTime float64 `json:"wallTime"`
		GameTime float32 `json:"gameTime"`

		// Put smaller fields here for packing
		Tick world.Ticks `json:"tick"`
		Ack  uint32      `json:"ack"` // highest consumed input seq
		// LastEventID is the highest reliable event id in Events, zero when
		// the batch carries none.
		LastEventID world.EventID `json:"lastEventId,omitempty"`
	}

	// ScoreEntry is one line of the final scoreboard.
	ScoreEntry struct {
		PlayerID world.PlayerID `json:"playerID"`
		Name     string         `json:"name"`
		Champion string         `json:"champion"`
		Kills    uint16         `json:"kills"`
		Deaths   uint16         `json:"deaths"`
		Assists  uint16         `json:"assists"`
		Level    uint8          `json:"level"`
		Gold     int32          `json:"gold"`
	}

	// GameEnd is the final message of a match.
	GameEnd struct {
		Winner     world.Side   `json:"winner"`
		Tick       world.Ticks  `json:"tick"`
		Scoreboard []ScoreEntry `json:"scoreboard"`
	}

	// Error reports an unrecoverable condition to a viewer. The only fatal
	// kind is an invariant violation, which ends the match.
	Error struct {
		Kind   string `json:"kind"`
		Detail string `json:"detail"`
	}
)

func init() {
	registerOutbound(
		Error{},
		GameEnd{},
		GameStart{},
		&StateUpdate{},
	)
}

const poolEntitiesCap = 64

var stateUpdatePool = sync.Pool{
	New: func() interface{} {
		return &StateUpdate{
			Entities: make([]EntityDelta, 0, poolEntitiesCap),
		}
	},
}

func NewStateUpdate() *StateUpdate {
	return stateUpdatePool.Get().(*StateUpdate)
}

// Pool Uses pointers for reuse in pool
func (update *StateUpdate) Pool() {
	// Delete all fields except Entities
	*update = StateUpdate{
		Entities: clearEntityDeltas(update.Entities),
	}
	stateUpdatePool.Put(update)
}

func (GameStart) Pool() {}
func (GameEnd) Pool()   {}
func (Error) Pool()     {}

func clearEntityDeltas(deltas []EntityDelta) []EntityDelta {
	for i := range deltas {
		deltas[i] = EntityDelta{}
	}
	return deltas[:0]
}
