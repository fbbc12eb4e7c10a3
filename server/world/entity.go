// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// Entity is an object in the match such as a champion, minion, tower or ward.
// The core treats kind-specific behavior as rule functions keyed by Kind;
// targets are held as opaque ids, never pointers, and scrubbed each tick.
type Entity struct {
	ID       EntityID
	Kind     EntityKind
	Side     Side
	Position Vec2f

	// Alive=false entities stay registered for one grace tick so their
	// death makes it into a broadcast, then the registry drops them.
	Alive    bool
	DiedTick Ticks

	// Vision. SightRadius 0 contributes nothing (most projectiles).
	SightRadius      float32
	TrueSight        bool // reveals collocated stealthed enemies
	RequireTrueSight bool // invisible even in a visible cell, without true sight

	// Ownership. Champions and wards belong to a player.
	Owner PlayerID

	// Champion identity within the rules catalogue ("warden", ...).
	Champion string

	// Combat stats, sourced from the rules catalogue at spawn and on level.
	Health       float32
	MaxHealth    float32
	Resource     float32
	MaxResource  float32
	Shield       float32
	AttackDamage float32
	AttackRange  float32
	AttackPeriod Ticks
	MoveSpeed    float32 // units per second

	// Progression.
	Level       uint8
	XP          float32
	Gold        int32
	Kills       uint16
	Deaths      uint16
	Assists     uint16
	SkillPoints uint8

	// Orders and transient state.
	Target      EntityID // scrubbed when the target dies or despawns
	MoveTarget  Vec2f
	Moving      bool
	AttackMove  bool
	Attacking   bool
	Recalling   bool
	Stealthed   bool
	attackTimer Ticks
	recallTimer Ticks

	// Observable extras.
	Effects   []EffectState
	Abilities []AbilityState
	Items     []string
	Trinket   TrinketState
	Passive   uint8

	// Lifespan for timed entities (projectiles, wards, zones), in ticks
	// remaining. Zero means unlimited.
	Lifespan Ticks

	// Projectile flight.
	FlightTarget EntityID
	FlightSpeed  float32
	HitDamage    float32
	SourceOwner  PlayerID

	// Minion lane waypoints (shared slice, read-only) and progress.
	Waypoints    []Vec2f
	WaypointNext int

	// Jungle camp anchoring.
	CampAnchor Vec2f
	CampIndex  int
	LeashRange float32

	// Zone payload: effect id applied to entities inside Radius.
	Radius   float32
	EffectID string

	// Recent damage credit for kill/assist attribution.
	damageLog []damageCredit

	// Spatial hash bookkeeping, owned by the registry.
	cell gridCell
}

type damageCredit struct {
	attacker PlayerID
	tick     Ticks
}

// Snapshot materializes the entity's observable fields as a flat record.
func (entity *Entity) Snapshot() Snapshot {
	var state StateFlags
	if entity.Alive {
		state |= StateAlive
	}
	if entity.Attacking {
		state |= StateAttacking
	}
	if entity.Recalling {
		state |= StateRecalling
	}
	if entity.Stealthed || entity.RequireTrueSight {
		state |= StateStealthed
	}

	return Snapshot{
		Position:    entity.Position,
		Health:      entity.Health,
		MaxHealth:   entity.MaxHealth,
		Resource:    entity.Resource,
		MaxResource: entity.MaxResource,
		Level:       entity.Level,
		Effects:     entity.Effects,
		Abilities:   entity.Abilities,
		Items:       entity.Items,
		Target:      entity.Target,
		State:       state,
		Kills:       entity.Kills,
		Deaths:      entity.Deaths,
		Assists:     entity.Assists,
		Trinket:     entity.Trinket,
		Gold:        entity.Gold,
		Shield:      entity.Shield,
		Passive:     entity.Passive,
	}
}

// CreditDamage records attacker as a recent damage source for kill and
// assist attribution.
func (entity *Entity) CreditDamage(attacker PlayerID, tick Ticks) {
	if attacker == 0 {
		return
	}
	// The last applied source becomes the killer, so order is preserved.
	entity.damageLog = append(entity.damageLog, damageCredit{attacker: attacker, tick: tick})
}

// DamageCredits returns the killer (last source) and the distinct assisters
// that dealt damage within window ticks of tick.
func (entity *Entity) DamageCredits(tick, window Ticks) (killer PlayerID, assisters []PlayerID) {
	for i := len(entity.damageLog) - 1; i >= 0; i-- {
		credit := entity.damageLog[i]
		if tick-credit.tick > window {
			break
		}
		if killer == 0 {
			killer = credit.attacker
			continue
		}
		if credit.attacker == killer {
			continue
		}
		seen := false
		for _, a := range assisters {
			if a == credit.attacker {
				seen = true
				break
			}
		}
		if !seen {
			assisters = append(assisters, credit.attacker)
		}
	}
	return
}

// AbilityReady reports whether slot exists, is leveled, and is off cooldown.
func (entity *Entity) AbilityReady(slot int) bool {
	if slot < 0 || slot >= len(entity.Abilities) {
		return false
	}
	ab := entity.Abilities[slot]
	return ab.Level > 0 && ab.Cooldown == 0
}
