// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"github.com/riftlab/arena/server/world"
)

// MatchRegistry is the process-wide index of live matches. Matches delist
// themselves through the onEnd hook when they finish.
type MatchRegistry struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]*Match
	cfg     Config
	rules   world.Rules
	log     *zap.Logger
}

func NewMatchRegistry(cfg Config, rules world.Rules, log *zap.Logger) *MatchRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &MatchRegistry{
		matches: make(map[uuid.UUID]*Match),
		cfg:     cfg,
		rules:   rules,
		log:     log,
	}
}

// Create registers a fresh match in the waiting state.
func (registry *MatchRegistry) Create() *Match {
	match := NewMatch(registry.cfg, registry.rules, registry.log, registry.remove)

	registry.mu.Lock()
	registry.matches[match.ID] = match
	registry.mu.Unlock()

	registry.log.Info("match created", zap.Stringer("match", match.ID))
	return match
}

func (registry *MatchRegistry) Get(id uuid.UUID) *Match {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.matches[id]
}

// FindWaiting returns a match still accepting players, creating one when
// none exists. Quick-join lands players here.
func (registry *MatchRegistry) FindWaiting() *Match {
	registry.mu.RLock()
	for _, match := range registry.matches {
		match.mu.Lock()
		waiting := match.state == matchWaiting && len(match.viewers) < match.cfg.Match.MaxPlayers
		match.mu.Unlock()
		if waiting {
			registry.mu.RUnlock()
			return match
		}
	}
	registry.mu.RUnlock()
	return registry.Create()
}

func (registry *MatchRegistry) remove(match *Match) {
	registry.mu.Lock()
	delete(registry.matches, match.ID)
	registry.mu.Unlock()
	registry.log.Info("match delisted", zap.Stringer("match", match.ID))
}

func (registry *MatchRegistry) Len() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return len(registry.matches)
}

// Shutdown stops every live match.
func (registry *MatchRegistry) Shutdown() {
	registry.mu.Lock()
	matches := make([]*Match, 0, len(registry.matches))
	for _, match := range registry.matches {
		matches = append(matches, match)
	}
	registry.mu.Unlock()

	for _, match := range matches {
		match.Stop()
	}
}
