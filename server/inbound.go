// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/finnbear/moderation"

	"github.com/riftlab/arena/server/world"
)

// Make sure to register in init function
type (
	// Command is embedded by every simulation input. Seq orders inputs per
	// player; the server acknowledges the highest consumed seq each tick.
	// ClientTime is an opaque client timestamp echoed for lag measurement,
	// never consulted by the simulation.
	Command struct {
		Seq        uint32  `json:"seq"`
		ClientTime float64 `json:"clientTime,omitempty"`
	}

	// Move orders the champion to a point.
	Move struct {
		Command
		Target world.Vec2f `json:"target"`
	}

	// AttackMove moves to a point, engaging anything found on the way.
	AttackMove struct {
		Command
		Target world.Vec2f `json:"target"`
	}

	// TargetUnit orders an attack on a specific unit.
	TargetUnit struct {
		Command
		EntityID world.EntityID `json:"entityID"`
	}

	// Stop cancels all orders.
	Stop struct {
		Command
	}

	// CastAbility casts an ability slot at a point or unit.
	CastAbility struct {
		Command
		Slot     int            `json:"slot"`
		Target   world.Vec2f    `json:"target"`
		EntityID world.EntityID `json:"entityID"`
	}

	// LevelUp spends a skill point on an ability slot.
	LevelUp struct {
		Command
		Slot int `json:"slot"`
	}

	// BuyItem purchases an item at the shop.
	BuyItem struct {
		Command
		Item string `json:"item"`
	}

	// SellItem sells an owned item.
	SellItem struct {
		Command
		Item string `json:"item"`
	}

	// Recall channels back to base.
	Recall struct {
		Command
	}

	// PlaceWard spends a trinket charge on a stealth ward.
	PlaceWard struct {
		Command
		Target world.Vec2f `json:"target"`
	}

	// Ping drops a team-visible map marker.
	Ping struct {
		Command
		Position world.Vec2f `json:"position"`
		Kind     string      `json:"kind"`
	}

	// SendChat sends a chat message to the match or own team.
	SendChat struct {
		Message string `json:"message"`
		Team    bool   `json:"team"`
	}

	// EventAck acknowledges every reliable event up to and including EventID.
	EventAck struct {
		EventID world.EventID `json:"eventID"`
	}

	// Ready signals the client finished loading. The match starts once every
	// seat is ready.
	Ready struct{}

	// InvalidInbound means invalid message type from client (possibly out of date).
	// NOTE: Do not register, otherwise client could send type "invalidInbound"
	InvalidInbound struct {
		messageType messageType
	}
)

func init() {
	registerInbound(
		AttackMove{},
		BuyItem{},
		CastAbility{},
		EventAck{},
		LevelUp{},
		Move{},
		PlaceWard{},
		Ping{},
		Ready{},
		Recall{},
		SellItem{},
		SendChat{},
		Stop{},
		TargetUnit{},
	)
}

// playerCommand is a sequenced input destined for the simulation. Commands
// pass through the input pipeline; everything else is handled immediately.
type playerCommand interface {
	inbound
	seq() uint32
	apply(sim *world.Simulation, playerID world.PlayerID) error
}

func (command Command) seq() uint32 { return command.Seq }

func (data Move) Inbound(m *Match, v *Viewer)        { m.queueCommand(v, data) }
func (data AttackMove) Inbound(m *Match, v *Viewer)  { m.queueCommand(v, data) }
func (data TargetUnit) Inbound(m *Match, v *Viewer)  { m.queueCommand(v, data) }
func (data Stop) Inbound(m *Match, v *Viewer)        { m.queueCommand(v, data) }
func (data CastAbility) Inbound(m *Match, v *Viewer) { m.queueCommand(v, data) }
func (data LevelUp) Inbound(m *Match, v *Viewer)     { m.queueCommand(v, data) }
func (data BuyItem) Inbound(m *Match, v *Viewer)     { m.queueCommand(v, data) }
func (data SellItem) Inbound(m *Match, v *Viewer)    { m.queueCommand(v, data) }
func (data Recall) Inbound(m *Match, v *Viewer)      { m.queueCommand(v, data) }
func (data PlaceWard) Inbound(m *Match, v *Viewer)   { m.queueCommand(v, data) }
func (data Ping) Inbound(m *Match, v *Viewer)        { m.queueCommand(v, data) }

func (data Move) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandMove(playerID, data.Target)
}

func (data AttackMove) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandAttackMove(playerID, data.Target)
}

func (data TargetUnit) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandTarget(playerID, data.EntityID)
}

func (data Stop) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandStop(playerID)
}

func (data CastAbility) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandCast(playerID, data.Slot, data.Target, data.EntityID)
}

func (data LevelUp) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandLevelUp(playerID, data.Slot)
}

func (data BuyItem) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandBuy(playerID, data.Item)
}

func (data SellItem) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandSell(playerID, data.Item)
}

func (data Recall) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandRecall(playerID)
}

func (data PlaceWard) apply(sim *world.Simulation, playerID world.PlayerID) error {
	return sim.CommandPlaceWard(playerID, data.Target)
}

func (data Ping) apply(sim *world.Simulation, playerID world.PlayerID) error {
	kind := data.Kind
	switch kind {
	case "danger", "assist", "missing", "onway":
	default:
		kind = "alert"
	}
	return sim.CommandPing(playerID, data.Position, kind)
}

func (data SendChat) Inbound(m *Match, v *Viewer) {
	m.handleChat(v, data)
}

func (data EventAck) Inbound(m *Match, v *Viewer) {
	v.reliable.Ack(data.EventID)
}

func (data Ready) Inbound(m *Match, v *Viewer) {
	m.handleReady(v)
}

func (data InvalidInbound) Inbound(m *Match, v *Viewer) {}

func trimUtf8(in string, low, high int) (str string, ok bool) {
	if !utf8.ValidString(in) {
		return "", false
	}

	// Remove spaces
	str = strings.TrimSpace(in)
	str = strings.TrimFunc(str, func(r rune) bool {
		// NOTE: The following characters are not detected by
		// unicode.IsSpace() but show up as blank

		// https://www.compart.com/en/unicode/U+2800
		// https://www.compart.com/en/unicode/U+200B
		return r == 0x2800 || r == 0x200B
	})

	// Too long but can resize down
	if len(str) > high {
		var builder strings.Builder
		for _, r := range str {
			if builder.Len()+utf8.RuneLen(r) > high {
				break
			}
			builder.WriteRune(r)
		}
		str = builder.String()
	}

	// Too short
	if len(str) < low {
		return "", false
	}
	ok = true
	return
}

func sanitize(text string, name bool, low, high int) (string, bool) {
	if name {
		// Remove these characters
		// Brackets are used in formatting
		// * is used for censoring
		const removals = "()[]{}*"
		for i := 0; i < len(removals); i++ {
			text = strings.ReplaceAll(text, removals[i:i+1], "")
		}
	}

	text = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, text)

	text, ok := trimUtf8(text, low, high)
	if !ok {
		return "", false
	}

	if name {
		// Censor name
		result := moderation.Scan(text)

		if result.Is(moderation.Inappropriate) {
			if result.Is(moderation.Inappropriate & moderation.Moderate) {
				return "", false
			}
			text, _ = moderation.Censor(text, moderation.Inappropriate)
		}
	}

	return text, true
}
