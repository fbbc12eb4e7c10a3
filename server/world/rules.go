// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

// The champion/ability/item catalogue is external to the core. The
// simulation consumes it through the Rules contract below; the data types
// are defined here so the catalogue and the core agree on units (world
// units, seconds, attacks per second).

type (
	// ChampionStats are base stats plus per-level growth.
	ChampionStats struct {
		Health            float32 `yaml:"health"`
		HealthPerLevel    float32 `yaml:"health_per_level"`
		Resource          float32 `yaml:"resource"`
		ResourcePerLevel  float32 `yaml:"resource_per_level"`
		AttackDamage      float32 `yaml:"attack_damage"`
		DamagePerLevel    float32 `yaml:"damage_per_level"`
		AttackRange       float32 `yaml:"attack_range"`
		AttackSpeed       float32 `yaml:"attack_speed"` // attacks per second
		MoveSpeed         float32 `yaml:"move_speed"`   // units per second
		SightRadius       float32 `yaml:"sight_radius"`
		HealthRegen       float32 `yaml:"health_regen"`   // per second
		ResourceRegen     float32 `yaml:"resource_regen"` // per second
	}

	// AbilitySpec describes one ability slot.
	AbilitySpec struct {
		ID             string  `yaml:"id"`
		MaxLevel       uint8   `yaml:"max_level"`
		Cost           float32 `yaml:"cost"`
		Cooldown       float32 `yaml:"cooldown"` // seconds
		Range          float32 `yaml:"range"`
		BaseDamage     float32 `yaml:"base_damage"`
		DamagePerLevel float32 `yaml:"damage_per_level"`
		Speed          float32 `yaml:"speed"`  // projectile speed; 0 casts instantly
		Script         string  `yaml:"script"` // optional scripted hook name
	}

	// ItemSpec describes a purchasable item.
	ItemSpec struct {
		ID        string  `yaml:"id"`
		Cost      int32   `yaml:"cost"`
		Health    float32 `yaml:"health"`
		Damage    float32 `yaml:"damage"`
		MoveSpeed float32 `yaml:"move_speed"`
	}

	// WaveSpec controls minion wave cadence and composition.
	WaveSpec struct {
		Period      float32 `yaml:"period"`      // seconds between waves
		FirstSpawn  float32 `yaml:"first_spawn"` // seconds into the match
		PerWave     int     `yaml:"per_wave"`
		Health      float32 `yaml:"health"`
		Damage      float32 `yaml:"damage"`
		AttackRange float32 `yaml:"attack_range"`
		MoveSpeed   float32 `yaml:"move_speed"`
		SightRadius float32 `yaml:"sight_radius"`
		GoldBounty  int32   `yaml:"gold_bounty"`
		XPBounty    float32 `yaml:"xp_bounty"`
	}

	// CampSpec is one neutral jungle camp.
	CampSpec struct {
		ID           string  `yaml:"id"`
		Position     Vec2f   `yaml:"position"`
		Health       float32 `yaml:"health"`
		Damage       float32 `yaml:"damage"`
		AttackRange  float32 `yaml:"attack_range"`
		MoveSpeed    float32 `yaml:"move_speed"`
		SightRadius  float32 `yaml:"sight_radius"`
		Respawn      float32 `yaml:"respawn"` // seconds
		GoldBounty   int32   `yaml:"gold_bounty"`
		XPBounty     float32 `yaml:"xp_bounty"`
		WanderRadius float32 `yaml:"wander_radius"`
		LeashRange   float32 `yaml:"leash_range"`
	}

	// RewardSpec is the reward table applied on deaths and level thresholds.
	RewardSpec struct {
		KillGold        int32   `yaml:"kill_gold"`
		AssistGold      int32   `yaml:"assist_gold"`
		KillXP          float32 `yaml:"kill_xp"`
		AssistXP        float32 `yaml:"assist_xp"`
		TowerGold       int32   `yaml:"tower_gold"`
		FirstBloodGold  int32   `yaml:"first_blood_gold"`
		XPPerLevel      float32 `yaml:"xp_per_level"` // threshold per level
		MaxLevel        uint8   `yaml:"max_level"`
		MultiKillWindow float32 `yaml:"multi_kill_window"` // seconds
		PassiveGoldRate float32 `yaml:"passive_gold_rate"` // gold per second
	}
)

// CastHook runs a scripted ability effect. Implementations come from the
// rules catalogue; the hook may inspect the world and apply damage through
// the simulation.
type CastHook func(sim *Simulation, caster *Entity, spec *AbilitySpec, target Vec2f, targetID EntityID)

// Rules is the boundary contract to the data-driven rules catalogue.
type Rules interface {
	Champion(id string) (ChampionStats, bool)
	Abilities(champ string) []AbilitySpec
	Item(id string) (ItemSpec, bool)
	Wave() WaveSpec
	Camps() []CampSpec
	Rewards() RewardSpec

	// CastHook returns the scripted hook for one ability slot, or nil when
	// the ability uses the built-in projectile/instant damage behavior.
	CastHook(champ string, slot int) CastHook
}
