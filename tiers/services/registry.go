// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/internal/pkg/log"
	tierErrors "github.com/qolzam/imagehost/tiers/errors"
	"github.com/qolzam/imagehost/tiers/models"
	"github.com/qolzam/imagehost/tiers/repository"
)

// Snapshot is an immutable view of every tier. It is safe for concurrent use.
type Snapshot struct {
	byID        map[uuid.UUID]models.Tier
	byName      map[string]models.Tier
	ordered     []models.Tier
	defaultTier models.Tier
}

// NewSnapshot indexes tiers. The tier named defaultName becomes the default;
// when it is missing the built-in Basic tier is used.
func NewSnapshot(tiers []models.Tier, defaultName string) *Snapshot {
	s := &Snapshot{
		byID:   make(map[uuid.UUID]models.Tier, len(tiers)),
		byName: make(map[string]models.Tier, len(tiers)),
	}
	for _, t := range tiers {
		t.AllowedSizes = t.Sizes()
		s.byID[t.ID] = t
		s.byName[t.Name] = t
		s.ordered = append(s.ordered, t)
	}
	sort.Slice(s.ordered, func(i, j int) bool { return s.ordered[i].Name < s.ordered[j].Name })

	if def, ok := s.byName[defaultName]; ok {
		s.defaultTier = def
	} else {
		s.defaultTier = models.BuiltinBasic()
		s.defaultTier.Name = defaultName
		if defaultName == "" {
			s.defaultTier.Name = models.DefaultTierName
		}
	}
	return s
}

// Resolve looks a tier up by id
func (s *Snapshot) Resolve(tierID uuid.UUID) (models.Tier, error) {
	t, ok := s.byID[tierID]
	if !ok {
		return models.Tier{}, fmt.Errorf("%w: %s", tierErrors.ErrTierNotFound, tierID)
	}
	return t, nil
}

// Default returns the fallback tier
func (s *Snapshot) Default() models.Tier {
	return s.defaultTier
}

// List returns all tiers ordered by name
func (s *Snapshot) List() []models.Tier {
	out := make([]models.Tier, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Registry holds the current Snapshot and swaps it on Reload
type Registry struct {
	repo        repository.Repository
	defaultName string
	current     atomic.Pointer[Snapshot]
}

// NewRegistry loads the first snapshot from repo
func NewRegistry(ctx context.Context, repo repository.Repository, defaultName string) (*Registry, error) {
	if defaultName == "" {
		defaultName = models.DefaultTierName
	}
	r := &Registry{repo: repo, defaultName: defaultName}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Snapshot returns the current snapshot
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Reload rebuilds the snapshot from the repository
func (r *Registry) Reload(ctx context.Context) error {
	tiers, err := r.repo.ListTiers(ctx)
	if err != nil {
		return fmt.Errorf("load tiers: %w", err)
	}

	snap := NewSnapshot(tiers, r.defaultName)
	if _, ok := snap.byName[r.defaultName]; !ok {
		log.WarnWithContext(ctx, "[tiers] default tier %q not found in store, using built-in", r.defaultName)
	}
	r.current.Store(snap)
	log.Dump("tier snapshot", snap.ordered)
	return nil
}

// Run reloads the registry every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Reload(ctx); err != nil {
				log.Error("[tiers] reload failed, keeping previous snapshot: %v", err)
			}
		}
	}
}
