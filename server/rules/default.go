// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package rules

import "github.com/riftlab/arena/server/world"

// DefaultScript is the Lua source for the default catalogue's scripted
// abilities.
const DefaultScript = `
function tempest_storm(level, x, y, target_id)
	arena.zone(x, y, 220, 40 + 15 * level, 3)
end

function warden_bulwark(level, x, y, target_id)
	arena.shield(80 + 40 * level)
end
`

// Default returns the built-in two-champion catalogue used when no
// catalogue file is configured. It is also the fixture for most tests.
func Default() *Catalogue {
	cat, err := NewCatalogue(defaultChampions(), defaultItems(),
		defaultWave(), defaultCamps(), defaultRewards())
	if err != nil {
		// The built-in catalogue is validated by tests; this cannot fail
		// at runtime.
		panic(err)
	}
	cat.script = DefaultScript
	return cat
}

func defaultChampions() []ChampionSpec {
	return []ChampionSpec{
		{
			ID: "warden",
			Stats: world.ChampionStats{
				Health:           640,
				HealthPerLevel:   100,
				Resource:         280,
				ResourcePerLevel: 35,
				AttackDamage:     62,
				DamagePerLevel:   3.5,
				AttackRange:      175,
				AttackSpeed:      0.75,
				MoveSpeed:        345,
				SightRadius:      1200,
				HealthRegen:      1.8,
				ResourceRegen:    1.0,
			},
			Abilities: []world.AbilitySpec{
				{
					ID:             "crushing-blow",
					MaxLevel:       5,
					Cost:           30,
					Cooldown:       7,
					Range:          250,
					BaseDamage:     70,
					DamagePerLevel: 35,
				},
				{
					ID:       "bulwark",
					MaxLevel: 5,
					Cost:     50,
					Cooldown: 14,
					Script:   "warden_bulwark",
				},
				{
					ID:             "judgment",
					MaxLevel:       3,
					Cost:           100,
					Cooldown:       80,
					Range:          450,
					BaseDamage:     200,
					DamagePerLevel: 120,
				},
			},
		},
		{
			ID: "tempest",
			Stats: world.ChampionStats{
				Health:           520,
				HealthPerLevel:   75,
				Resource:         400,
				ResourcePerLevel: 55,
				AttackDamage:     52,
				DamagePerLevel:   2.8,
				AttackRange:      550,
				AttackSpeed:      0.68,
				MoveSpeed:        330,
				SightRadius:      1200,
				HealthRegen:      1.2,
				ResourceRegen:    2.2,
			},
			Abilities: []world.AbilitySpec{
				{
					ID:             "spark",
					MaxLevel:       5,
					Cost:           45,
					Cooldown:       5,
					Range:          900,
					BaseDamage:     80,
					DamagePerLevel: 42,
					Speed:          1500,
				},
				{
					ID:       "storm",
					MaxLevel: 5,
					Cost:     70,
					Cooldown: 12,
					Range:    800,
					Script:   "tempest_storm",
				},
				{
					ID:             "thunderclap",
					MaxLevel:       3,
					Cost:           120,
					Cooldown:       90,
					Range:          650,
					BaseDamage:     250,
					DamagePerLevel: 150,
					Speed:          2000,
				},
			},
		},
	}
}

func defaultItems() []world.ItemSpec {
	return []world.ItemSpec{
		{ID: "longsword", Cost: 350, Damage: 10},
		{ID: "greatblade", Cost: 1300, Damage: 40},
		{ID: "chainmail", Cost: 800, Health: 200},
		{ID: "warmog-heart", Cost: 2500, Health: 700},
		{ID: "swiftboots", Cost: 900, MoveSpeed: 45},
		{ID: "duelist-edge", Cost: 2800, Damage: 55, MoveSpeed: 20},
	}
}

func defaultWave() world.WaveSpec {
	return world.WaveSpec{
		Period:      30,
		FirstSpawn:  15,
		PerWave:     6,
		Health:      220,
		Damage:      12,
		AttackRange: 110,
		MoveSpeed:   325,
		SightRadius: 750,
		GoldBounty:  21,
		XPBounty:    16,
	}
}

func defaultCamps() []world.CampSpec {
	return []world.CampSpec{
		{
			ID: "gromp-north", Position: world.Vec2f{X: -900, Y: 1400},
			Health: 1400, Damage: 40, AttackRange: 150, MoveSpeed: 250,
			SightRadius: 500, Respawn: 120, GoldBounty: 80, XPBounty: 110,
			WanderRadius: 120, LeashRange: 800,
		},
		{
			ID: "gromp-south", Position: world.Vec2f{X: 900, Y: -1400},
			Health: 1400, Damage: 40, AttackRange: 150, MoveSpeed: 250,
			SightRadius: 500, Respawn: 120, GoldBounty: 80, XPBounty: 110,
			WanderRadius: 120, LeashRange: 800,
		},
		{
			ID: "elder-wyrm", Position: world.Vec2f{X: 0, Y: 1900},
			Health: 4200, Damage: 110, AttackRange: 300, MoveSpeed: 220,
			SightRadius: 600, Respawn: 300, GoldBounty: 300, XPBounty: 400,
			WanderRadius: 60, LeashRange: 900,
		},
	}
}

func defaultRewards() world.RewardSpec {
	return world.RewardSpec{
		KillGold:        300,
		AssistGold:      150,
		KillXP:          120,
		AssistXP:        60,
		TowerGold:       175,
		FirstBloodGold:  150,
		XPPerLevel:      180,
		MaxLevel:        18,
		MultiKillWindow: 10,
		PassiveGoldRate: 1.9,
	}
}
