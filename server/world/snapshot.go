// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import "github.com/chewxy/math32"

// ChangeMask is a bitfield identifying which field families of a Snapshot
// differ from a viewer's baseline.
type ChangeMask uint16

const (
	MaskPosition ChangeMask = 1 << iota
	MaskHealth
	MaskResource
	MaskLevel
	MaskEffects
	MaskAbilities
	MaskItems
	MaskTarget
	MaskState
	MaskTrinket
	MaskGold
	MaskShields
	MaskPassive

	// MaskRemoved is the removal sentinel: a delta carrying only this bit
	// tells the viewer to drop the entity. No data fields accompany it.
	MaskRemoved ChangeMask = 1 << 15

	// MaskAll marks every field family (a first-contact full snapshot).
	MaskAll = MaskPosition | MaskHealth | MaskResource | MaskLevel |
		MaskEffects | MaskAbilities | MaskItems | MaskTarget | MaskState |
		MaskTrinket | MaskGold | MaskShields | MaskPassive
)

// positionEpsilon is the per-axis tolerance below which position changes are
// not worth a delta. Health and resource compare exactly.
const positionEpsilon = 0.01

type (
	// StateFlags packs the boolean observables of an entity.
	StateFlags uint8

	// EffectState is one active effect as observed by viewers.
	EffectState struct {
		ID        string `json:"id"`
		Remaining Ticks  `json:"remaining"`
	}

	// AbilityState is the observable state of one ability slot.
	AbilityState struct {
		Level    uint8 `json:"level"`
		Cooldown Ticks `json:"cooldown"`
	}

	// TrinketState is the observable state of the vision trinket.
	TrinketState struct {
		Charges  uint8 `json:"charges"`
		Cooldown Ticks `json:"cooldown"`
	}

	// Snapshot is the flat record of an entity's observable fields. Every
	// kind produces one; fields that don't apply stay zero.
	Snapshot struct {
		Position    Vec2f          `json:"position"`
		Health      float32        `json:"health"`
		MaxHealth   float32        `json:"maxHealth"`
		Resource    float32        `json:"resource"`
		MaxResource float32        `json:"maxResource"`
		Level       uint8          `json:"level"`
		Effects     []EffectState  `json:"effects"`
		Abilities   []AbilityState `json:"abilities"`
		Items       []string       `json:"items"`
		Target      EntityID       `json:"target"`
		State       StateFlags     `json:"state"`
		Kills       uint16         `json:"kills"`
		Deaths      uint16         `json:"deaths"`
		Assists     uint16         `json:"assists"`
		Trinket     TrinketState   `json:"trinket"`
		Gold        int32          `json:"gold"`
		Shield      float32        `json:"shield"`
		Passive     uint8          `json:"passive"`
	}
)

const (
	StateAlive StateFlags = 1 << iota
	StateAttacking
	StateRecalling
	StateStealthed
)

func (flags StateFlags) Has(flag StateFlags) bool {
	return flags&flag != 0
}

// Diff returns the mask of field families that changed versus base.
// A nil base means first contact: everything is flagged.
func (snap *Snapshot) Diff(base *Snapshot) ChangeMask {
	if base == nil {
		return MaskAll
	}

	var mask ChangeMask
	if math32.Abs(snap.Position.X-base.Position.X) > positionEpsilon ||
		math32.Abs(snap.Position.Y-base.Position.Y) > positionEpsilon {
		mask |= MaskPosition
	}
	if snap.Health != base.Health || snap.MaxHealth != base.MaxHealth {
		mask |= MaskHealth
	}
	if snap.Resource != base.Resource || snap.MaxResource != base.MaxResource {
		mask |= MaskResource
	}
	if snap.Level != base.Level {
		mask |= MaskLevel
	}
	if !effectsEqual(snap.Effects, base.Effects) {
		mask |= MaskEffects
	}
	if !abilitiesEqual(snap.Abilities, base.Abilities) {
		mask |= MaskAbilities
	}
	if !itemsEqual(snap.Items, base.Items) {
		mask |= MaskItems
	}
	if snap.Target != base.Target {
		mask |= MaskTarget
	}
	if snap.State != base.State || snap.Kills != base.Kills ||
		snap.Deaths != base.Deaths || snap.Assists != base.Assists {
		mask |= MaskState
	}
	if snap.Trinket != base.Trinket {
		mask |= MaskTrinket
	}
	if snap.Gold != base.Gold {
		mask |= MaskGold
	}
	if snap.Shield != base.Shield {
		mask |= MaskShields
	}
	if snap.Passive != base.Passive {
		mask |= MaskPassive
	}
	return mask
}

// Clone deep copies the snapshot so it can serve as a per-viewer baseline.
func (snap *Snapshot) Clone() *Snapshot {
	c := *snap
	if len(snap.Effects) > 0 {
		c.Effects = append([]EffectState(nil), snap.Effects...)
	}
	if len(snap.Abilities) > 0 {
		c.Abilities = append([]AbilityState(nil), snap.Abilities...)
	}
	if len(snap.Items) > 0 {
		c.Items = append([]string(nil), snap.Items...)
	}
	return &c
}

func effectsEqual(a, b []EffectState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func abilitiesEqual(a, b []AbilityState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func itemsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
