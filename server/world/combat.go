// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import "go.uber.org/zap"

// applyDamage burns shields first, credits the attacker for kill/assist
// attribution, and flags death. Actual death consequences are reconciled at
// the end of the tick so mid-tick order stays deterministic.
func (sim *Simulation) applyDamage(attacker PlayerID, victim *Entity, amount float32) {
	if !victim.Alive || amount <= 0 {
		return
	}

	if victim.Shield > 0 {
		absorbed := min(victim.Shield, amount)
		victim.Shield -= absorbed
		amount -= absorbed
	}
	victim.Health -= amount
	victim.CreditDamage(attacker, sim.tick)

	sim.bus.Emit(EventDamage, sim.tick, map[string]any{
		"victim": victim.ID.String(),
		"amount": amount,
	})

	if victim.Health <= 0 {
		victim.Health = 0
		victim.Alive = false
		victim.DiedTick = sim.tick
	}
}

// ApplyDamage is the hook surface for scripted ability effects.
func (sim *Simulation) ApplyDamage(attacker PlayerID, victim *Entity, amount float32) {
	sim.applyDamage(attacker, victim, amount)
}

// SpawnZone is the hook surface for scripted area effects.
func (sim *Simulation) SpawnZone(owner PlayerID, side Side, position Vec2f, radius, damagePerSecond, duration float32) {
	zone := &Entity{
		Kind:        KindZone,
		Side:        side,
		Position:    sim.mapDef.Clamp(position),
		Alive:       true,
		Radius:      radius,
		HitDamage:   damagePerSecond,
		SourceOwner: owner,
		Lifespan:    ToTicks(duration, sim.dt),
	}
	if _, err := sim.reg.Add(zone); err != nil {
		sim.log.Error("spawn zone", zap.Error(err))
	}
}

// spawnBolt launches a homing projectile (tower shots, default abilities).
func (sim *Simulation) spawnBolt(source *Entity, target *Entity) {
	bolt := &Entity{
		Kind:         KindProjectile,
		Side:         source.Side,
		Position:     source.Position,
		Alive:        true,
		FlightTarget: target.ID,
		FlightSpeed:  1400,
		HitDamage:    source.AttackDamage,
		SourceOwner:  source.Owner,
	}
	if _, err := sim.reg.Add(bolt); err != nil {
		sim.log.Error("spawn bolt", zap.Error(err))
	}
}

// reconcileDeaths awards kills, assists and bounties for every entity that
// died this tick, and emits the corresponding events. Dead entities stay
// registered for one grace tick so the death reaches a broadcast.
func (sim *Simulation) reconcileDeaths(tickNow Ticks) {
	window := ToTicks(sim.cfg.AssistWindow, sim.dt)

	for _, kind := range UpdateOrder {
		for _, entity := range sim.reg.ByKind(kind) {
			if entity.Alive || entity.DiedTick != tickNow {
				continue
			}
			sim.settleDeath(entity, tickNow, window)
		}
	}
}

func (sim *Simulation) settleDeath(victim *Entity, tickNow, window Ticks) {
	killer, assisters := victim.DamageCredits(tickNow, window)
	rewards := sim.rules.Rewards()

	switch victim.Kind {
	case KindChampion:
		victim.Deaths++
		sim.champions[victim.Owner] = EntityIDInvalid
		sim.scheduleRespawn(victim, tickNow)

		payload := map[string]any{
			"victim":       victim.ID.String(),
			"victimPlayer": uint32(victim.Owner),
		}
		if killerEntity := sim.ChampionOf(killer); killerEntity != nil {
			payload["killer"] = killerEntity.ID.String()
			killerEntity.Kills++
			sim.awardGold(killerEntity, rewards.KillGold)
			sim.awardXP(killerEntity, rewards.KillXP)
			sim.recordStreak(killer, tickNow)
			if !sim.firstBlood {
				sim.firstBlood = true
				sim.awardGold(killerEntity, rewards.FirstBloodGold)
				sim.bus.Emit(EventFirstBlood, tickNow, map[string]any{
					"killer": killerEntity.ID.String(),
				})
			}
		}
		sim.bus.Emit(EventChampionKill, tickNow, payload)

		for _, assister := range assisters {
			assistEntity := sim.ChampionOf(assister)
			if assistEntity == nil {
				continue
			}
			assistEntity.Assists++
			sim.awardGold(assistEntity, rewards.AssistGold)
			sim.awardXP(assistEntity, rewards.AssistXP)
		}

	case KindTower:
		sim.bus.Emit(EventTowerDestroyed, tickNow, map[string]any{
			"tower": victim.ID.String(),
			"side":  victim.Side.String(),
		})
		// Tower gold is a team-wide bounty.
		for _, champion := range sim.reg.ByKind(KindChampion) {
			if champion.Alive && champion.Side == victim.Side.Enemy() {
				sim.awardGold(champion, rewards.TowerGold)
			}
		}

	case KindNexus:
		sim.bus.Emit(EventNexusDestroyed, tickNow, map[string]any{
			"side": victim.Side.String(),
		})
		if !sim.ended {
			sim.ended = true
			sim.winner = victim.Side.Enemy()
		}

	case KindMinion:
		wave := sim.rules.Wave()
		if killerEntity := sim.ChampionOf(killer); killerEntity != nil {
			sim.awardGold(killerEntity, wave.GoldBounty)
			sim.awardXP(killerEntity, wave.XPBounty)
		}
		sim.bus.Emit(EventEntityDeath, tickNow, map[string]any{
			"entity": victim.ID.String(),
			"kind":   victim.Kind.String(),
		})

	case KindJungleCreature:
		camp := &sim.camps[victim.CampIndex]
		camp.aliveID = EntityIDInvalid
		camp.pending = true
		camp.respawnAt = tickNow + ToTicks(camp.spec.Respawn, sim.dt)
		if killerEntity := sim.ChampionOf(killer); killerEntity != nil {
			sim.awardGold(killerEntity, camp.spec.GoldBounty)
			sim.awardXP(killerEntity, camp.spec.XPBounty)
		}
		sim.bus.Emit(EventEntityDeath, tickNow, map[string]any{
			"entity": victim.ID.String(),
			"kind":   victim.Kind.String(),
		})

	case KindWard:
		sim.bus.Emit(EventEntityDeath, tickNow, map[string]any{
			"entity": victim.ID.String(),
			"kind":   victim.Kind.String(),
		})
	}
}

func (sim *Simulation) scheduleRespawn(victim *Entity, tickNow Ticks) {
	delay := sim.cfg.RespawnBase + sim.cfg.RespawnPerLevel*float32(victim.Level)
	sim.respawns[victim.Owner] = &respawnState{
		at:        tickNow + ToTicks(delay, sim.dt),
		champ:     victim.Champion,
		side:      victim.Side,
		level:     victim.Level,
		xp:        victim.XP,
		gold:      victim.Gold,
		kills:     victim.Kills,
		deaths:    victim.Deaths,
		assists:   victim.Assists,
		items:     victim.Items,
		abilities: append([]AbilityState(nil), victim.Abilities...),
		skill:     victim.SkillPoints,
		trinket:   victim.Trinket,
	}
}

func (sim *Simulation) recordStreak(killer PlayerID, tickNow Ticks) {
	window := ToTicks(sim.rules.Rewards().MultiKillWindow, sim.dt)
	streak := sim.streaks[killer]
	if streak == nil {
		streak = &killStreak{}
		sim.streaks[killer] = streak
	}
	if streak.count > 0 && tickNow-streak.lastKill <= window {
		streak.count++
	} else {
		streak.count = 1
	}
	streak.lastKill = tickNow

	if streak.count >= 2 {
		sim.bus.Emit(EventMultiKill, tickNow, map[string]any{
			"player": uint32(killer),
			"count":  streak.count,
		})
	}
}

func (sim *Simulation) awardGold(champion *Entity, amount int32) {
	if amount <= 0 {
		return
	}
	champion.Gold += amount
	sim.bus.Emit(EventGoldEarned, sim.tick, map[string]any{
		"player": uint32(champion.Owner),
		"amount": amount,
	})
}

func (sim *Simulation) awardXP(champion *Entity, amount float32) {
	if amount <= 0 {
		return
	}
	rewards := sim.rules.Rewards()
	champion.XP += amount
	sim.bus.Emit(EventXPEarned, sim.tick, map[string]any{
		"player": uint32(champion.Owner),
		"amount": amount,
	})

	for champion.Level < rewards.MaxLevel &&
		champion.XP >= rewards.XPPerLevel*float32(champion.Level) {
		champion.XP -= rewards.XPPerLevel * float32(champion.Level)
		champion.Level++
		champion.SkillPoints++
		sim.applyGrowth(champion)
		// Leveling tops the pools up by the growth, not to full.
		sim.bus.Emit(EventLevelUp, sim.tick, map[string]any{
			"player": uint32(champion.Owner),
			"level":  champion.Level,
		})
	}
}

// applyGrowth recomputes max stats from base + per-level growth + items.
func (sim *Simulation) applyGrowth(champion *Entity) {
	stats, ok := sim.rules.Champion(champion.Champion)
	if !ok {
		return
	}
	levels := float32(champion.Level - 1)

	oldMaxHealth := champion.MaxHealth
	oldMaxResource := champion.MaxResource

	champion.MaxHealth = stats.Health + stats.HealthPerLevel*levels
	champion.MaxResource = stats.Resource + stats.ResourcePerLevel*levels
	champion.AttackDamage = stats.AttackDamage + stats.DamagePerLevel*levels
	champion.MoveSpeed = stats.MoveSpeed

	for _, itemID := range champion.Items {
		if item, ok := sim.rules.Item(itemID); ok {
			champion.MaxHealth += item.Health
			champion.AttackDamage += item.Damage
			champion.MoveSpeed += item.MoveSpeed
		}
	}

	if grown := champion.MaxHealth - oldMaxHealth; grown > 0 && oldMaxHealth > 0 {
		champion.Health = min(champion.Health+grown, champion.MaxHealth)
	}
	if grown := champion.MaxResource - oldMaxResource; grown > 0 && oldMaxResource > 0 {
		champion.Resource = min(champion.Resource+grown, champion.MaxResource)
	}
	champion.Health = min(champion.Health, champion.MaxHealth)
	champion.Resource = min(champion.Resource, champion.MaxResource)
}
