// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"errors"
	"fmt"
)

// Command errors. The input pipeline drops these silently (the client's
// predicted feedback is the UX); they exist so rejection reasons can be
// counted and logged at debug level.
var (
	ErrNoChampion    = errors.New("player has no living champion")
	ErrTargetInvalid = errors.New("target no longer valid")
	ErrRuleRejected  = errors.New("rejected by rules")
)

// CommandMove orders the champion to a point. Points outside the navigable
// map are clamped, not rejected.
func (sim *Simulation) CommandMove(playerID PlayerID, target Vec2f) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	sim.interruptRecall(champion)
	champion.MoveTarget = sim.mapDef.Clamp(target)
	champion.Moving = true
	champion.AttackMove = false
	champion.Target = EntityIDInvalid
	return nil
}

// CommandAttackMove moves towards a point, attacking anything acquired on
// the way.
func (sim *Simulation) CommandAttackMove(playerID PlayerID, target Vec2f) error {
	if err := sim.CommandMove(playerID, target); err != nil {
		return err
	}
	sim.ChampionOf(playerID).AttackMove = true
	return nil
}

// CommandTarget orders an attack on a specific unit. A dead or invisible
// target rewrites the order to a stop instead of erroring to the client.
func (sim *Simulation) CommandTarget(playerID PlayerID, targetID EntityID) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}

	target := sim.reg.Get(targetID)
	if target == nil || !target.Alive || target.Side == champion.Side ||
		!sim.vis.EntityVisible(champion.Side, target) {
		sim.stop(champion)
		return nil
	}

	sim.interruptRecall(champion)
	champion.Target = targetID
	champion.Moving = false
	champion.AttackMove = false
	return nil
}

// CommandStop cancels all orders.
func (sim *Simulation) CommandStop(playerID PlayerID) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	sim.stop(champion)
	return nil
}

func (sim *Simulation) stop(champion *Entity) {
	sim.interruptRecall(champion)
	champion.Moving = false
	champion.AttackMove = false
	champion.Attacking = false
	champion.Target = EntityIDInvalid
}

// CommandCast casts an ability at a point or unit. Cooldown, resource and
// range failures are rule rejections; the command is consumed either way.
func (sim *Simulation) CommandCast(playerID PlayerID, slot int, target Vec2f, targetID EntityID) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	specs := sim.rules.Abilities(champion.Champion)
	if slot < 0 || slot >= len(specs) || slot >= len(champion.Abilities) {
		return fmt.Errorf("%w: no ability in slot %d", ErrRuleRejected, slot)
	}
	if !champion.AbilityReady(slot) {
		return fmt.Errorf("%w: ability not ready", ErrRuleRejected)
	}
	spec := specs[slot]
	if champion.Resource < spec.Cost {
		return fmt.Errorf("%w: not enough resource", ErrRuleRejected)
	}

	var targetEntity *Entity
	aim := target
	if targetID != EntityIDInvalid {
		targetEntity = sim.reg.Get(targetID)
		if targetEntity == nil || !targetEntity.Alive ||
			!sim.vis.EntityVisible(champion.Side, targetEntity) {
			return ErrTargetInvalid
		}
		aim = targetEntity.Position
	}
	if spec.Range > 0 && champion.Position.DistanceSquared(aim) > square(spec.Range) {
		return fmt.Errorf("%w: out of range", ErrRuleRejected)
	}

	sim.interruptRecall(champion)
	champion.Resource -= spec.Cost
	champion.Abilities[slot].Cooldown = ToTicks(spec.Cooldown, sim.dt)

	sim.bus.Emit(EventAbilityCast, sim.tick, map[string]any{
		"caster":  champion.ID.String(),
		"ability": spec.ID,
	})

	if hook := sim.rules.CastHook(champion.Champion, slot); hook != nil {
		hook(sim, champion, &spec, aim, targetID)
		return nil
	}

	// Built-in behavior: damage the unit directly or via projectile.
	damage := spec.BaseDamage + spec.DamagePerLevel*float32(champion.Abilities[slot].Level-1)
	if targetEntity != nil {
		if spec.Speed > 0 {
			bolt := &Entity{
				Kind:         KindProjectile,
				Side:         champion.Side,
				Position:     champion.Position,
				Alive:        true,
				FlightTarget: targetEntity.ID,
				FlightSpeed:  spec.Speed,
				HitDamage:    damage,
				SourceOwner:  playerID,
			}
			_, err := sim.reg.Add(bolt)
			return err
		}
		sim.applyDamage(playerID, targetEntity, damage)
		return nil
	}

	// Point cast without a scripted hook leaves a brief damage zone.
	sim.SpawnZone(playerID, champion.Side, aim, 150, damage, 1)
	return nil
}

// CommandLevelUp spends a skill point on an ability slot.
func (sim *Simulation) CommandLevelUp(playerID PlayerID, slot int) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	specs := sim.rules.Abilities(champion.Champion)
	if slot < 0 || slot >= len(specs) || slot >= len(champion.Abilities) {
		return fmt.Errorf("%w: no ability in slot %d", ErrRuleRejected, slot)
	}
	if champion.SkillPoints == 0 {
		return fmt.Errorf("%w: no skill points", ErrRuleRejected)
	}
	if champion.Abilities[slot].Level >= specs[slot].MaxLevel {
		return fmt.Errorf("%w: ability maxed", ErrRuleRejected)
	}
	champion.SkillPoints--
	champion.Abilities[slot].Level++
	return nil
}

// CommandBuy purchases an item; only works near the own spawn's shop.
func (sim *Simulation) CommandBuy(playerID PlayerID, itemID string) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	item, ok := sim.rules.Item(itemID)
	if !ok {
		return fmt.Errorf("%w: unknown item %q", ErrRuleRejected, itemID)
	}
	shop := sim.mapDef.SpawnOf(champion.Side)
	if champion.Position.DistanceSquared(shop) > square(sim.mapDef.ShopRange) {
		return fmt.Errorf("%w: not at shop", ErrRuleRejected)
	}
	if champion.Gold < item.Cost {
		return fmt.Errorf("%w: cannot afford %q", ErrRuleRejected, itemID)
	}
	champion.Gold -= item.Cost
	champion.Items = append(append([]string(nil), champion.Items...), itemID)
	sim.applyGrowth(champion)
	sim.bus.Emit(EventItemPurchased, sim.tick, map[string]any{
		"player": uint32(playerID),
		"item":   itemID,
	})
	return nil
}

// CommandSell refunds most of an owned item's cost.
func (sim *Simulation) CommandSell(playerID PlayerID, itemID string) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	item, ok := sim.rules.Item(itemID)
	if !ok {
		return fmt.Errorf("%w: unknown item %q", ErrRuleRejected, itemID)
	}
	for i, owned := range champion.Items {
		if owned != itemID {
			continue
		}
		items := append([]string(nil), champion.Items...)
		champion.Items = append(items[:i], items[i+1:]...)
		champion.Gold += item.Cost * 7 / 10
		sim.applyGrowth(champion)
		return nil
	}
	return fmt.Errorf("%w: item %q not owned", ErrRuleRejected, itemID)
}

// CommandRecall starts the channel back to base. Movement or combat orders
// interrupt it.
func (sim *Simulation) CommandRecall(playerID PlayerID) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	if champion.Recalling {
		return nil
	}
	champion.Moving = false
	champion.AttackMove = false
	champion.Attacking = false
	champion.Target = EntityIDInvalid
	champion.Recalling = true
	champion.recallTimer = ToTicks(sim.cfg.RecallDuration, sim.dt)
	return nil
}

// CommandPing emits a team-scoped unreliable marker event.
func (sim *Simulation) CommandPing(playerID PlayerID, position Vec2f, kind string) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	sim.bus.Emit(EventPing, sim.tick, map[string]any{
		"player": uint32(playerID),
		"side":   champion.Side.String(),
		"kind":   kind,
		"x":      position.X,
		"y":      position.Y,
	})
	return nil
}

// CommandPlaceWard spends a trinket charge on a stealth ward.
func (sim *Simulation) CommandPlaceWard(playerID PlayerID, position Vec2f) error {
	champion := sim.ChampionOf(playerID)
	if champion == nil {
		return ErrNoChampion
	}
	if champion.Trinket.Charges == 0 {
		return fmt.Errorf("%w: no ward charges", ErrRuleRejected)
	}
	position = sim.mapDef.Clamp(position)
	if champion.Position.DistanceSquared(position) > square(sim.cfg.WardRange) {
		return fmt.Errorf("%w: ward out of range", ErrRuleRejected)
	}

	champion.Trinket.Charges--
	if champion.Trinket.Cooldown == 0 {
		champion.Trinket.Cooldown = ToTicks(30, sim.dt)
	}

	ward := &Entity{
		Kind:             KindWard,
		Side:             champion.Side,
		Position:         position,
		Alive:            true,
		Owner:            playerID,
		Health:           3,
		MaxHealth:        3,
		SightRadius:      sim.cfg.WardSight,
		RequireTrueSight: true,
		Lifespan:         ToTicks(sim.cfg.WardLifespan, sim.dt),
	}
	_, err := sim.reg.Add(ward)
	return err
}

func (sim *Simulation) interruptRecall(champion *Entity) {
	if champion.Recalling {
		champion.Recalling = false
		champion.recallTimer = 0
	}
}
