// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/riftlab/arena/server/world"
)

type (
	// Config is the full host configuration, loaded from toml with
	// defaults for everything.
	Config struct {
		Server   ServerConfig   `toml:"server"`
		Match    MatchConfig    `toml:"match"`
		Input    InputConfig    `toml:"input"`
		Snapshot SnapshotConfig `toml:"snapshot"`
		Reliable ReliableConfig `toml:"reliable"`
		Rules    RulesConfig    `toml:"rules"`
		Log      LogConfig      `toml:"log"`
	}

	ServerConfig struct {
		Addr string `toml:"addr"`
		// Compress outbound frames at or above this size, in bytes.
		// Zero disables compression.
		CompressMin int `toml:"compress_min"`
	}

	MatchConfig struct {
		TickRate   int   `toml:"tick_rate"`
		MaxPlayers int   `toml:"max_players"` // per match, both sides combined
		Seed       int64 `toml:"seed"`        // zero means time-derived per match

		// Simulation knobs, applied to every match this process hosts.
		GridCellSize    float32 `toml:"grid_cell_size"`    // spatial hash cell
		VisibilityCell  float32 `toml:"visibility_cell"`   // fog cell
		AssistWindow    float32 `toml:"assist_window"`     // seconds
		RespawnBase     float32 `toml:"respawn_base"`      // seconds
		RespawnPerLevel float32 `toml:"respawn_per_level"` // seconds
		RecallDuration  float32 `toml:"recall_duration"`   // seconds
		WardLifespan    float32 `toml:"ward_lifespan"`     // seconds
		WardSight       float32 `toml:"ward_sight"`
		WardRange       float32 `toml:"ward_range"`
		AcquireRange    float32 `toml:"acquire_range"`
	}

	// InputConfig tunes the per-player input pipeline.
	InputConfig struct {
		// ReorderWindow is how many ticks an out-of-order gap is waited on
		// before the pipeline skips ahead.
		ReorderWindow int `toml:"reorder_window"`
		// RatePerSecond and Burst form a token bucket per player.
		RatePerSecond float64 `toml:"rate_per_second"`
		Burst         float64 `toml:"burst"`
		// QueueSize bounds buffered out-of-order inputs per player.
		QueueSize int `toml:"queue_size"`
	}

	// SnapshotConfig tunes per-viewer delta thinning.
	SnapshotConfig struct {
		// Entities within NearRadius of the viewer's champion update every
		// tick; within MidRadius every MidInterval ticks; beyond that every
		// FarInterval ticks. Critical changes ignore thinning.
		NearRadius  float32 `toml:"near_radius"`
		MidRadius   float32 `toml:"mid_radius"`
		MidInterval int     `toml:"mid_interval"`
		FarInterval int     `toml:"far_interval"`
	}

	// ReliableConfig tunes the reliable event sub-channel.
	ReliableConfig struct {
		// RetryBase seconds before the first resend, growing by RetryFactor
		// per attempt up to RetryCap seconds.
		RetryBase   float32 `toml:"retry_base"`
		RetryFactor float32 `toml:"retry_factor"`
		RetryCap    float32 `toml:"retry_cap"`
		MaxAttempts int     `toml:"max_attempts"`
		// QueueLimit bounds unacknowledged events per viewer; overflow
		// drops the viewer as unrecoverable.
		QueueLimit int `toml:"queue_limit"`
	}

	RulesConfig struct {
		// Catalogue is a yaml file path; empty uses the built-in catalogue.
		Catalogue string `toml:"catalogue"`
	}

	LogConfig struct {
		Level       string `toml:"level"`
		Development bool   `toml:"development"`
	}
)

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8192",
			CompressMin: 1 << 10,
		},
		Match: defaultMatchConfig(),
		Input: InputConfig{
			ReorderWindow: 31, // 250ms at 125Hz
			RatePerSecond: 30,
			Burst:         15,
			QueueSize:     64,
		},
		Snapshot: SnapshotConfig{
			NearRadius:  1000,
			MidRadius:   2200,
			MidInterval: 2,
			FarInterval: 4,
		},
		Reliable: ReliableConfig{
			RetryBase:   0.25,
			RetryFactor: 2,
			RetryCap:    4,
			MaxAttempts: 10,
			QueueLimit:  1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultMatchConfig() MatchConfig {
	sim := world.DefaultSimConfig()
	return MatchConfig{
		TickRate:        sim.TickRate,
		MaxPlayers:      10,
		GridCellSize:    sim.GridCellSize,
		VisibilityCell:  sim.VisibilityCell,
		AssistWindow:    sim.AssistWindow,
		RespawnBase:     sim.RespawnBase,
		RespawnPerLevel: sim.RespawnPerLevel,
		RecallDuration:  sim.RecallDuration,
		WardLifespan:    sim.WardLifespan,
		WardSight:       sim.WardSight,
		WardRange:       sim.WardRange,
		AcquireRange:    sim.AcquireRange,
	}
}

// simConfig maps the match section onto the simulation's own knobs.
func (cfg *Config) simConfig() world.SimConfig {
	return world.SimConfig{
		TickRate:        cfg.Match.TickRate,
		GridCellSize:    cfg.Match.GridCellSize,
		VisibilityCell:  cfg.Match.VisibilityCell,
		AssistWindow:    cfg.Match.AssistWindow,
		RespawnBase:     cfg.Match.RespawnBase,
		RespawnPerLevel: cfg.Match.RespawnPerLevel,
		RecallDuration:  cfg.Match.RecallDuration,
		WardLifespan:    cfg.Match.WardLifespan,
		WardSight:       cfg.Match.WardSight,
		WardRange:       cfg.Match.WardRange,
		AcquireRange:    cfg.Match.AcquireRange,
	}
}

// LoadConfig overlays a toml file onto the defaults. An empty path returns
// the defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("load config: unknown key %s", undecoded[0])
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) Validate() error {
	if cfg.Match.TickRate <= 0 || cfg.Match.TickRate > 1000 {
		return fmt.Errorf("tick_rate %d out of range", cfg.Match.TickRate)
	}
	if cfg.Match.MaxPlayers < 2 || cfg.Match.MaxPlayers%2 != 0 {
		return fmt.Errorf("max_players %d must be even and at least 2", cfg.Match.MaxPlayers)
	}
	if cfg.Match.GridCellSize <= 0 || cfg.Match.VisibilityCell <= 0 {
		return fmt.Errorf("match cell sizes must be positive")
	}
	if cfg.Match.AssistWindow < 0 {
		return fmt.Errorf("assist_window %f negative", cfg.Match.AssistWindow)
	}
	if cfg.Input.ReorderWindow < 0 {
		return fmt.Errorf("reorder_window %d negative", cfg.Input.ReorderWindow)
	}
	if cfg.Input.RatePerSecond <= 0 || cfg.Input.Burst <= 0 {
		return fmt.Errorf("input rate limit must be positive")
	}
	if cfg.Snapshot.MidInterval < 1 || cfg.Snapshot.FarInterval < cfg.Snapshot.MidInterval {
		return fmt.Errorf("snapshot intervals %d/%d invalid",
			cfg.Snapshot.MidInterval, cfg.Snapshot.FarInterval)
	}
	if cfg.Reliable.RetryBase <= 0 || cfg.Reliable.RetryFactor < 1 {
		return fmt.Errorf("reliable retry curve invalid")
	}
	if cfg.Reliable.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts %d must be at least 1", cfg.Reliable.MaxAttempts)
	}
	return nil
}
