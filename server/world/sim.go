// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"
)

// SimConfig are the knobs the simulation itself needs. Everything else
// (snapshot cadence, reliability tuning) lives with the transport.
type SimConfig struct {
	TickRate        int
	GridCellSize    float32 // spatial hash cell
	VisibilityCell  float32 // fog cell
	AssistWindow    float32 // seconds of damage history that counts as assist
	RespawnBase     float32 // seconds
	RespawnPerLevel float32 // seconds
	RecallDuration  float32 // seconds
	WardLifespan    float32 // seconds
	WardSight       float32
	WardRange       float32 // max placement distance
	AcquireRange    float32 // attack-move and minion aggro radius
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		TickRate:        DefaultTickRate,
		GridCellSize:    400,
		VisibilityCell:  100,
		AssistWindow:    10,
		RespawnBase:     8,
		RespawnPerLevel: 2,
		RecallDuration:  6,
		WardLifespan:    90,
		WardSight:       500,
		WardRange:       600,
		AcquireRange:    700,
	}
}

var ErrInvariantViolated = errors.New("invariant violated")

type (
	// Simulation ties the rules catalogue to the registry: it applies
	// commands, advances entities in a deterministic order, and buffers
	// events. It is owned by exactly one match worker; nothing here locks.
	Simulation struct {
		reg    *Registry
		vis    *Visibility
		bus    *EventBus
		rules  Rules
		mapDef MapDef
		cfg    SimConfig
		rng    *rand.Rand
		noise  *perlin.Perlin
		log    *zap.Logger

		dt   float32
		tick Ticks

		champions map[PlayerID]EntityID
		respawns  map[PlayerID]*respawnState
		streaks   map[PlayerID]*killStreak
		camps     []campState

		nextWave   Ticks
		waveCount  int
		firstBlood bool
		goldFrac   map[PlayerID]float32 // fractional passive income carry

		winner Side
		ended  bool
		faults uint64
	}

	// respawnState preserves champion progression across death.
	respawnState struct {
		at        Ticks
		champ     string
		side      Side
		level     uint8
		xp        float32
		gold      int32
		kills     uint16
		deaths    uint16
		assists   uint16
		items     []string
		abilities []AbilityState
		skill     uint8
		trinket   TrinketState
	}

	killStreak struct {
		count    int
		lastKill Ticks
	}

	campState struct {
		spec      CampSpec
		aliveID   EntityID
		respawnAt Ticks
		pending   bool
	}
)

func NewSimulation(cfg SimConfig, mapDef MapDef, rules Rules, seed int64, log *zap.Logger) *Simulation {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}

	sim := &Simulation{
		reg:       NewRegistry(cfg.GridCellSize),
		vis:       NewVisibility(mapDef.HalfExtent, cfg.VisibilityCell),
		bus:       NewEventBus(),
		rules:     rules,
		mapDef:    mapDef,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		noise:     perlin.NewPerlin(2, 2, 3, seed),
		log:       log,
		dt:        1.0 / float32(cfg.TickRate),
		champions: make(map[PlayerID]EntityID),
		respawns:  make(map[PlayerID]*respawnState),
		streaks:   make(map[PlayerID]*killStreak),
		goldFrac:  make(map[PlayerID]float32),
		winner:    SideNone,
	}
	return sim
}

func (sim *Simulation) Registry() *Registry     { return sim.reg }
func (sim *Simulation) Visibility() *Visibility { return sim.vis }
func (sim *Simulation) Bus() *EventBus          { return sim.bus }
func (sim *Simulation) Map() MapDef             { return sim.mapDef }
func (sim *Simulation) Rules() Rules            { return sim.rules }
func (sim *Simulation) Tick() Ticks             { return sim.tick }
func (sim *Simulation) Dt() float32             { return sim.dt }
func (sim *Simulation) Config() SimConfig       { return sim.cfg }
func (sim *Simulation) Faults() uint64          { return sim.faults }

// Winner returns the winning side once a nexus has fallen.
func (sim *Simulation) Winner() (Side, bool) {
	return sim.winner, sim.ended
}

// ChampionOf returns the player's living champion entity, or nil while dead.
func (sim *Simulation) ChampionOf(playerID PlayerID) *Entity {
	id, ok := sim.champions[playerID]
	if !ok {
		return nil
	}
	entity := sim.reg.Get(id)
	if entity == nil || !entity.Alive {
		return nil
	}
	return entity
}

// ChampionID returns the player's current champion entity id, which changes
// on respawn.
func (sim *Simulation) ChampionID(playerID PlayerID) EntityID {
	return sim.champions[playerID]
}

// Progression reports a player's scoreboard stats, whether their champion
// is currently alive or waiting on a respawn.
func (sim *Simulation) Progression(playerID PlayerID) (level uint8, kills, deaths, assists uint16, gold int32, ok bool) {
	if entity := sim.ChampionOf(playerID); entity != nil {
		return entity.Level, entity.Kills, entity.Deaths, entity.Assists, entity.Gold, true
	}
	if state := sim.respawns[playerID]; state != nil {
		return state.level, state.kills, state.deaths, state.assists, state.gold, true
	}
	return 0, 0, 0, 0, 0, false
}

// SpawnWorld places the static world: one nexus per side, towers and
// jungle camps. Called once while the match is starting.
func (sim *Simulation) SpawnWorld() error {
	for _, side := range [...]Side{SideA, SideB} {
		nexus := &Entity{
			Kind:        KindNexus,
			Side:        side,
			Position:    sim.mapDef.NexusOf(side),
			Alive:       true,
			Health:      5500,
			MaxHealth:   5500,
			SightRadius: 800,
		}
		if _, err := sim.reg.Add(nexus); err != nil {
			return fmt.Errorf("spawn nexus: %w", err)
		}

		for _, position := range sim.mapDef.TowersOf(side) {
			tower := &Entity{
				Kind:         KindTower,
				Side:         side,
				Position:     position,
				Alive:        true,
				Health:       3000,
				MaxHealth:    3000,
				AttackDamage: 110,
				AttackRange:  750,
				AttackPeriod: ToTicks(1.2, sim.dt),
				SightRadius:  900,
			}
			if _, err := sim.reg.Add(tower); err != nil {
				return fmt.Errorf("spawn tower: %w", err)
			}
		}
	}

	for i, spec := range sim.rules.Camps() {
		sim.camps = append(sim.camps, campState{spec: spec})
		if err := sim.spawnCamp(i); err != nil {
			return err
		}
	}

	wave := sim.rules.Wave()
	sim.nextWave = ToTicks(wave.FirstSpawn, sim.dt)
	return nil
}

// SpawnChampion instantiates a player's champion at their side's spawn.
func (sim *Simulation) SpawnChampion(playerID PlayerID, champ string, side Side) (EntityID, error) {
	stats, ok := sim.rules.Champion(champ)
	if !ok {
		return EntityIDInvalid, fmt.Errorf("unknown champion %q", champ)
	}

	specs := sim.rules.Abilities(champ)
	abilities := make([]AbilityState, len(specs))

	entity := &Entity{
		Kind:         KindChampion,
		Side:         side,
		Position:     sim.mapDef.SpawnOf(side),
		Alive:        true,
		Owner:        playerID,
		Champion:     champ,
		Health:       stats.Health,
		MaxHealth:    stats.Health,
		Resource:     stats.Resource,
		MaxResource:  stats.Resource,
		AttackDamage: stats.AttackDamage,
		AttackRange:  stats.AttackRange,
		AttackPeriod: ToTicks(1/max(stats.AttackSpeed, 0.1), sim.dt),
		MoveSpeed:    stats.MoveSpeed,
		SightRadius:  stats.SightRadius,
		Level:        1,
		SkillPoints:  1,
		Abilities:    abilities,
		Trinket:      TrinketState{Charges: 2},
	}

	id, err := sim.reg.Add(entity)
	if err != nil {
		return EntityIDInvalid, err
	}
	sim.champions[playerID] = id
	return id, nil
}

// Update advances one fixed step and returns the tick it executed.
func (sim *Simulation) Update() Ticks {
	tickNow := sim.tick

	sim.buryCorpses(tickNow)
	sim.scrubTargets()
	sim.runRespawns(tickNow)
	sim.spawnWaves(tickNow)
	sim.respawnCamps(tickNow)
	sim.passiveIncome()

	for _, kind := range UpdateOrder {
		entities := sim.reg.ByKind(kind)
		for _, entity := range entities {
			if !entity.Alive {
				continue
			}
			sim.updateEntitySafe(entity)
		}
	}

	sim.reconcileDeaths(tickNow)

	sim.tick++
	return tickNow
}

// buryCorpses removes entities that have been dead for a full tick; the
// grace tick has let their death reach a broadcast.
func (sim *Simulation) buryCorpses(tickNow Ticks) {
	var dead []EntityID
	sim.reg.ForEach(func(entity *Entity) (_ bool) {
		if !entity.Alive && entity.DiedTick < tickNow {
			dead = append(dead, entity.ID)
		}
		return
	})
	for _, id := range dead {
		sim.reg.Remove(id)
	}
}

// scrubTargets drops references to entities that died or despawned so no
// stale id is ever read during the tick.
func (sim *Simulation) scrubTargets() {
	sim.reg.ForEach(func(entity *Entity) (_ bool) {
		if entity.Target != EntityIDInvalid {
			target := sim.reg.Get(entity.Target)
			if target == nil || !target.Alive {
				entity.Target = EntityIDInvalid
				entity.Attacking = false
			}
		}
		if entity.FlightTarget != EntityIDInvalid {
			target := sim.reg.Get(entity.FlightTarget)
			if target == nil || !target.Alive {
				entity.FlightTarget = EntityIDInvalid
			}
		}
		return
	})
}

// updateEntitySafe contains a panicking entity: it is logged, marked dead
// and a synthetic removal event is emitted. The match keeps running.
func (sim *Simulation) updateEntitySafe(entity *Entity) {
	defer func() {
		if r := recover(); r != nil {
			sim.faults++
			sim.log.Error("entity update panicked",
				zap.Stringer("entity", entity.ID),
				zap.Stringer("kind", entity.Kind),
				zap.Any("panic", r),
			)
			entity.Alive = false
			entity.DiedTick = sim.tick
			entity.damageLog = nil // nobody gets credit for a crash
			sim.bus.Emit(EventRemoved, sim.tick, map[string]any{
				"entity": entity.ID.String(),
			})
		}
	}()

	sim.updateEntity(entity)
}

func (sim *Simulation) updateEntity(entity *Entity) {
	switch entity.Kind {
	case KindTower:
		sim.updateTower(entity)
	case KindNexus:
		// Nexuses just stand there until they don't.
	case KindChampion:
		sim.updateChampion(entity)
	case KindMinion:
		sim.updateMinion(entity)
	case KindJungleCreature:
		sim.updateJungle(entity)
	case KindProjectile:
		sim.updateProjectile(entity)
	case KindWard:
		sim.updateWard(entity)
	case KindZone:
		sim.updateZone(entity)
	}
}

// runRespawns brings champions back at their side's spawn with progression
// intact but a fresh entity id.
func (sim *Simulation) runRespawns(tickNow Ticks) {
	if len(sim.respawns) == 0 {
		return
	}
	pids := make([]PlayerID, 0, len(sim.respawns))
	for pid := range sim.respawns {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	for _, pid := range pids {
		state := sim.respawns[pid]
		if state.at > tickNow {
			continue
		}
		delete(sim.respawns, pid)

		id, err := sim.SpawnChampion(pid, state.champ, state.side)
		if err != nil {
			sim.log.Error("respawn failed", zap.Uint32("player", uint32(pid)), zap.Error(err))
			continue
		}
		entity := sim.reg.Get(id)
		entity.Level = state.level
		entity.XP = state.xp
		entity.Gold = state.gold
		entity.Kills = state.kills
		entity.Deaths = state.deaths
		entity.Assists = state.assists
		entity.Items = state.items
		entity.SkillPoints = state.skill
		entity.Trinket = state.trinket
		for i := range entity.Abilities {
			if i < len(state.abilities) {
				entity.Abilities[i].Level = state.abilities[i].Level
			}
		}
		sim.applyGrowth(entity)
		entity.Health = entity.MaxHealth
		entity.Resource = entity.MaxResource
	}
}

// spawnWaves pushes one minion wave per lane per side at the configured
// cadence.
func (sim *Simulation) spawnWaves(tickNow Ticks) {
	wave := sim.rules.Wave()
	if wave.PerWave <= 0 || tickNow < sim.nextWave {
		return
	}
	sim.nextWave = tickNow + ToTicks(wave.Period, sim.dt)
	sim.waveCount++

	for laneIdx, lane := range sim.mapDef.Lanes {
		if len(lane) == 0 {
			continue
		}
		for _, side := range [...]Side{SideA, SideB} {
			waypoints := lane
			if side == SideB {
				waypoints = reverseWaypoints(lane)
			}
			for i := 0; i < wave.PerWave; i++ {
				minion := &Entity{
					Kind:         KindMinion,
					Side:         side,
					Position:     sim.mapDef.NexusOf(side),
					Alive:        true,
					Health:       wave.Health,
					MaxHealth:    wave.Health,
					AttackDamage: wave.Damage,
					AttackRange:  wave.AttackRange,
					AttackPeriod: ToTicks(1.0, sim.dt),
					MoveSpeed:    wave.MoveSpeed,
					SightRadius:  wave.SightRadius,
					Waypoints:    waypoints,
				}
				// Stagger the file so the wave doesn't stack on one point.
				minion.Position.Y += float32(i) * 25
				if _, err := sim.reg.Add(minion); err != nil {
					sim.log.Error("spawn minion", zap.Int("lane", laneIdx), zap.Error(err))
				}
			}
		}
	}
}

func reverseWaypoints(lane []Vec2f) []Vec2f {
	reversed := make([]Vec2f, len(lane))
	for i, wp := range lane {
		reversed[len(lane)-1-i] = wp
	}
	return reversed
}

func (sim *Simulation) spawnCamp(index int) error {
	camp := &sim.camps[index]
	spec := camp.spec
	entity := &Entity{
		Kind:         KindJungleCreature,
		Side:         SideNone,
		Position:     spec.Position,
		Alive:        true,
		Health:       spec.Health,
		MaxHealth:    spec.Health,
		AttackDamage: spec.Damage,
		AttackRange:  max(spec.AttackRange, 100),
		AttackPeriod: ToTicks(1.4, sim.dt),
		MoveSpeed:    max(spec.MoveSpeed, 150),
		SightRadius:  spec.SightRadius,
		CampAnchor:   spec.Position,
		CampIndex:    index,
		LeashRange:   max(spec.LeashRange, 600),
	}
	id, err := sim.reg.Add(entity)
	if err != nil {
		return fmt.Errorf("spawn camp %s: %w", spec.ID, err)
	}
	camp.aliveID = id
	camp.pending = false
	return nil
}

func (sim *Simulation) respawnCamps(tickNow Ticks) {
	for i := range sim.camps {
		camp := &sim.camps[i]
		if camp.pending && camp.respawnAt <= tickNow {
			if err := sim.spawnCamp(i); err != nil {
				sim.log.Error("respawn camp", zap.Error(err))
			}
		}
	}
}

// passiveIncome trickles gold to living champions.
func (sim *Simulation) passiveIncome() {
	rate := sim.rules.Rewards().PassiveGoldRate
	if rate <= 0 {
		return
	}
	for _, entity := range sim.reg.ByKind(KindChampion) {
		if !entity.Alive {
			continue
		}
		frac := sim.goldFrac[entity.Owner] + rate*sim.dt
		whole := int32(frac)
		if whole > 0 {
			entity.Gold += whole
			frac -= float32(whole)
		}
		sim.goldFrac[entity.Owner] = frac
	}
}

// CheckInvariants validates the core invariants that are fatal when broken.
func (sim *Simulation) CheckInvariants() error {
	var nexuses [SideCount]int
	var violation error
	sim.reg.ForEach(func(entity *Entity) bool {
		if entity.Kind == KindNexus && entity.Alive && entity.Side.Valid() {
			nexuses[entity.Side]++
		}
		if entity.Alive && entity.Health < 0 {
			violation = fmt.Errorf("%w: negative health on %s", ErrInvariantViolated, entity.ID)
			return true
		}
		return false
	})
	if violation != nil {
		return violation
	}
	if sim.ended {
		return nil
	}
	for side, count := range nexuses {
		if count != 1 {
			return fmt.Errorf("%w: side %s has %d nexuses", ErrInvariantViolated, Side(side), count)
		}
	}
	return nil
}
