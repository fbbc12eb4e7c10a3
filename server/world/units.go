// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// Per-kind update rules. Each rule only mutates its own entity plus combat
// state through applyDamage; spawned entities may not be iterated until the
// next tick.

func (sim *Simulation) updateChampion(entity *Entity) {
	sim.tickCooldowns(entity)
	sim.tickEffects(entity)

	stats, _ := sim.rules.Champion(entity.Champion)
	if stats.HealthRegen > 0 && entity.Health < entity.MaxHealth {
		entity.Health = min(entity.Health+stats.HealthRegen*sim.dt, entity.MaxHealth)
	}
	if stats.ResourceRegen > 0 && entity.Resource < entity.MaxResource {
		entity.Resource = min(entity.Resource+stats.ResourceRegen*sim.dt, entity.MaxResource)
	}

	if entity.Recalling {
		if entity.recallTimer > 0 {
			entity.recallTimer--
		}
		if entity.recallTimer == 0 {
			entity.Recalling = false
			entity.Position = sim.mapDef.SpawnOf(entity.Side)
			sim.reg.Moved(entity)
			return
		}
		// Any order interrupts recall before we get here.
		return
	}

	if entity.AttackMove && entity.Target == EntityIDInvalid {
		if target := sim.acquireTarget(entity, sim.cfg.AcquireRange); target != nil {
			entity.Target = target.ID
		}
	}

	if entity.Target != EntityIDInvalid {
		target := sim.reg.Get(entity.Target)
		if target != nil && target.Alive {
			sim.chaseAndAttack(entity, target)
			return
		}
	}

	entity.Attacking = false
	if entity.Moving {
		sim.stepTowards(entity, entity.MoveTarget)
		if entity.Position.DistanceSquared(entity.MoveTarget) < 1 {
			entity.Moving = false
		}
	}
}

func (sim *Simulation) updateMinion(entity *Entity) {
	sim.tickCooldowns(entity)

	if entity.Target == EntityIDInvalid {
		if target := sim.acquireTarget(entity, sim.cfg.AcquireRange); target != nil {
			entity.Target = target.ID
		}
	}

	if entity.Target != EntityIDInvalid {
		target := sim.reg.Get(entity.Target)
		if target != nil && target.Alive {
			sim.chaseAndAttack(entity, target)
			return
		}
		entity.Target = EntityIDInvalid
	}

	entity.Attacking = false
	for entity.WaypointNext < len(entity.Waypoints) {
		waypoint := entity.Waypoints[entity.WaypointNext]
		if entity.Position.DistanceSquared(waypoint) < square(50) {
			entity.WaypointNext++
			continue
		}
		sim.stepTowards(entity, waypoint)
		return
	}
	// Past the last waypoint: push the enemy nexus.
	sim.stepTowards(entity, sim.mapDef.NexusOf(entity.Side.Enemy()))
}

func (sim *Simulation) updateJungle(entity *Entity) {
	sim.tickCooldowns(entity)

	anchorDist2 := entity.Position.DistanceSquared(entity.CampAnchor)
	if anchorDist2 > square(entity.LeashRange) {
		// Leash: walk home and shake off all aggro.
		entity.Target = EntityIDInvalid
		entity.Attacking = false
		entity.damageLog = nil
		entity.Health = entity.MaxHealth
		sim.stepTowards(entity, entity.CampAnchor)
		return
	}

	if entity.Target != EntityIDInvalid {
		target := sim.reg.Get(entity.Target)
		if target != nil && target.Alive {
			sim.chaseAndAttack(entity, target)
			return
		}
		entity.Target = EntityIDInvalid
	}

	// Fight back against the most recent damager if they're close.
	if len(entity.damageLog) > 0 {
		attacker := sim.ChampionOf(entity.damageLog[len(entity.damageLog)-1].attacker)
		if attacker != nil && attacker.Position.DistanceSquared(entity.CampAnchor) <= square(entity.LeashRange) {
			entity.Target = attacker.ID
			return
		}
	}

	entity.Attacking = false
	sim.wander(entity)
}

// wander drifts a neutral creature around its anchor on seeded noise, so
// camps look alive without a scheduler.
func (sim *Simulation) wander(entity *Entity) {
	spec := sim.camps[entity.CampIndex].spec
	if spec.WanderRadius <= 0 {
		return
	}
	t := float64(sim.tick) * float64(sim.dt) * 0.1
	seed := float64(entity.CampIndex) * 7.3
	offset := Vec2f{
		X: float32(sim.noise.Noise2D(t, seed)),
		Y: float32(sim.noise.Noise2D(t, seed+31.7)),
	}
	goal := entity.CampAnchor.AddScaled(offset, spec.WanderRadius*2)
	if entity.Position.DistanceSquared(goal) > square(20) {
		sim.stepTowards(entity, goal)
	}
}

func (sim *Simulation) updateTower(entity *Entity) {
	sim.tickCooldowns(entity)

	target := sim.reg.Get(entity.Target)
	if target == nil || !target.Alive ||
		target.Position.DistanceSquared(entity.Position) > square(entity.AttackRange) {
		entity.Target = EntityIDInvalid
		target = sim.acquireTowerTarget(entity)
		if target != nil {
			entity.Target = target.ID
		}
	}

	if target == nil {
		entity.Attacking = false
		return
	}

	entity.Attacking = true
	if entity.attackTimer > 0 {
		return
	}
	entity.attackTimer = entity.AttackPeriod
	sim.spawnBolt(entity, target)
}

// acquireTowerTarget prefers minions over champions, nearest first, so
// towers behave predictably under dive.
func (sim *Simulation) acquireTowerTarget(entity *Entity) *Entity {
	var bestMinion, bestChampion *Entity
	var bestMinionD2, bestChampionD2 float32

	sim.reg.ForInRadius(entity.Position, entity.AttackRange, func(d2 float32, other *Entity) (_ bool) {
		if !other.Alive || other.Side == entity.Side || !other.Side.Valid() {
			return
		}
		switch other.Kind {
		case KindMinion:
			if bestMinion == nil || d2 < bestMinionD2 {
				bestMinion, bestMinionD2 = other, d2
			}
		case KindChampion:
			if bestChampion == nil || d2 < bestChampionD2 {
				bestChampion, bestChampionD2 = other, d2
			}
		}
		return
	})

	if bestMinion != nil {
		return bestMinion
	}
	return bestChampion
}

func (sim *Simulation) updateProjectile(entity *Entity) {
	if entity.FlightTarget == EntityIDInvalid {
		// Target vanished mid-flight; the bolt fizzles.
		entity.Alive = false
		entity.DiedTick = sim.tick
		return
	}
	target := sim.reg.Get(entity.FlightTarget)
	if target == nil || !target.Alive {
		entity.Alive = false
		entity.DiedTick = sim.tick
		return
	}

	step := entity.FlightSpeed * sim.dt
	if entity.Position.DistanceSquared(target.Position) <= square(step) {
		sim.applyDamage(entity.SourceOwner, target, entity.HitDamage)
		entity.Alive = false
		entity.DiedTick = sim.tick
		return
	}
	entity.Position = entity.Position.AddScaled(entity.Position.Towards(target.Position), step)
	sim.reg.Moved(entity)
}

func (sim *Simulation) updateWard(entity *Entity) {
	if entity.Lifespan > 0 {
		entity.Lifespan--
		if entity.Lifespan == 0 {
			entity.Alive = false
			entity.DiedTick = sim.tick
			entity.damageLog = nil // expiry, not a kill
		}
	}
}

func (sim *Simulation) updateZone(entity *Entity) {
	if entity.Lifespan > 0 {
		entity.Lifespan--
		if entity.Lifespan == 0 {
			entity.Alive = false
			entity.DiedTick = sim.tick
			return
		}
	}
	if entity.HitDamage <= 0 {
		return
	}
	damage := entity.HitDamage * sim.dt
	sim.reg.ForInRadius(entity.Position, entity.Radius, func(_ float32, other *Entity) (_ bool) {
		if !other.Alive || other.Side == entity.Side || !other.Side.Valid() {
			return
		}
		if other.Kind == KindChampion || other.Kind == KindMinion || other.Kind == KindJungleCreature {
			sim.applyDamage(entity.SourceOwner, other, damage)
		}
		return
	})
}

// stepTowards moves the entity one tick's worth towards goal, clamped to
// the map, and rewires its spatial cell.
func (sim *Simulation) stepTowards(entity *Entity, goal Vec2f) {
	goal = sim.mapDef.Clamp(goal)
	step := entity.MoveSpeed * sim.dt
	if entity.Position.DistanceSquared(goal) <= square(step) {
		entity.Position = goal
	} else {
		entity.Position = entity.Position.AddScaled(entity.Position.Towards(goal), step)
	}
	sim.reg.Moved(entity)
}

// acquireTarget picks the nearest living attackable enemy within radius.
func (sim *Simulation) acquireTarget(entity *Entity, radius float32) *Entity {
	var best *Entity
	var bestD2 float32
	sim.reg.ForInRadius(entity.Position, radius, func(d2 float32, other *Entity) (_ bool) {
		if !other.Alive || other.Side == entity.Side {
			return
		}
		switch other.Kind {
		case KindChampion, KindMinion, KindJungleCreature, KindTower, KindNexus:
		default:
			return
		}
		// Only champions pick fights with neutral camps.
		if !other.Side.Valid() && entity.Kind != KindChampion {
			return
		}
		if !sim.vis.EntityVisible(entity.Side, other) {
			return
		}
		if best == nil || d2 < bestD2 {
			best, bestD2 = other, d2
		}
		return
	})
	return best
}

// chaseAndAttack closes to attack range and swings on cooldown.
func (sim *Simulation) chaseAndAttack(entity *Entity, target *Entity) {
	if entity.Position.DistanceSquared(target.Position) > square(entity.AttackRange) {
		entity.Attacking = false
		sim.stepTowards(entity, target.Position)
		return
	}

	entity.Attacking = true
	if entity.attackTimer > 0 {
		return
	}
	entity.attackTimer = entity.AttackPeriod

	sim.bus.Emit(EventBasicAttack, sim.tick, map[string]any{
		"attacker": entity.ID.String(),
		"victim":   target.ID.String(),
	})
	sim.applyDamage(entity.Owner, target, entity.AttackDamage)
}

func (sim *Simulation) tickCooldowns(entity *Entity) {
	if entity.attackTimer > 0 {
		entity.attackTimer--
	}
	for i := range entity.Abilities {
		if entity.Abilities[i].Cooldown > 0 {
			entity.Abilities[i].Cooldown--
		}
	}
	if entity.Trinket.Cooldown > 0 {
		entity.Trinket.Cooldown--
		if entity.Trinket.Cooldown == 0 && entity.Trinket.Charges < 2 {
			entity.Trinket.Charges++
		}
	}
}

func (sim *Simulation) tickEffects(entity *Entity) {
	if len(entity.Effects) == 0 {
		return
	}
	kept := entity.Effects[:0]
	for _, effect := range entity.Effects {
		if effect.Remaining > 1 {
			effect.Remaining--
			kept = append(kept, effect)
		}
	}
	entity.Effects = kept
}
