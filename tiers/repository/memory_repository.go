package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	uuid "github.com/gofrs/uuid"
	tierErrors "github.com/qolzam/imagehost/tiers/errors"
	"github.com/qolzam/imagehost/tiers/models"
)

type memoryRepository struct {
	mu    sync.RWMutex
	tiers map[uuid.UUID]models.Tier
	users map[uuid.UUID]uuid.UUID
}

// NewMemoryRepository creates an in-process repository holding the given tiers.
// With no tiers it is seeded with models.SeedTiers.
func NewMemoryRepository(tiers ...models.Tier) Repository {
	if len(tiers) == 0 {
		tiers = models.SeedTiers()
	}
	r := &memoryRepository{
		tiers: make(map[uuid.UUID]models.Tier, len(tiers)),
		users: make(map[uuid.UUID]uuid.UUID),
	}
	for _, t := range tiers {
		t.AllowedSizes = append([]int(nil), t.AllowedSizes...)
		r.tiers[t.ID] = t
	}
	return r
}

func (r *memoryRepository) ListTiers(ctx context.Context) ([]models.Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tiers := make([]models.Tier, 0, len(r.tiers))
	for _, t := range r.tiers {
		t.AllowedSizes = append([]int(nil), t.AllowedSizes...)
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Name < tiers[j].Name })
	return tiers, nil
}

func (r *memoryRepository) FindUserTierID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tierID, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	return &tierID, nil
}

func (r *memoryRepository) AssignTier(ctx context.Context, userID uuid.UUID, tierID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tierID == nil {
		delete(r.users, userID)
		return nil
	}
	if _, ok := r.tiers[*tierID]; !ok {
		return fmt.Errorf("%w: %s", tierErrors.ErrTierNotFound, tierID)
	}
	r.users[userID] = *tierID
	return nil
}
