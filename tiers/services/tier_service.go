// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"fmt"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/internal/pkg/log"
	tierErrors "github.com/qolzam/imagehost/tiers/errors"
	"github.com/qolzam/imagehost/tiers/models"
	"github.com/qolzam/imagehost/tiers/repository"
)

// TierService answers tier questions about a user id
type TierService interface {
	// ListTiers returns every known tier
	ListTiers(ctx context.Context) []models.Tier

	// EffectiveTier returns the tier governing userID and whether it was explicitly assigned
	EffectiveTier(ctx context.Context, userID uuid.UUID) (models.Tier, bool, error)

	// View returns the render decision for userID
	View(ctx context.Context, userID uuid.UUID) (models.RenderDecision, error)

	// AssignTier sets or clears a user's tier
	AssignTier(ctx context.Context, userID uuid.UUID, tierID *uuid.UUID) error
}

type tierService struct {
	repo     repository.Repository
	registry *Registry
}

// NewTierService creates a new tier service
func NewTierService(repo repository.Repository, registry *Registry) TierService {
	return &tierService{
		repo:     repo,
		registry: registry,
	}
}

func (s *tierService) ListTiers(ctx context.Context) []models.Tier {
	return s.registry.Snapshot().List()
}

func (s *tierService) EffectiveTier(ctx context.Context, userID uuid.UUID) (models.Tier, bool, error) {
	tierID, err := s.repo.FindUserTierID(ctx, userID)
	if err != nil {
		return models.Tier{}, false, fmt.Errorf("failed to find user tier: %w", err)
	}

	snap := s.registry.Snapshot()
	tier := EffectiveTier(snap, models.User{ID: userID, TierID: tierID})
	assigned := tierID != nil && tier.ID == *tierID
	return tier, assigned, nil
}

func (s *tierService) View(ctx context.Context, userID uuid.UUID) (models.RenderDecision, error) {
	tier, _, err := s.EffectiveTier(ctx, userID)
	if err != nil {
		return models.RenderDecision{}, err
	}
	return DecisionFor(tier), nil
}

func (s *tierService) AssignTier(ctx context.Context, userID uuid.UUID, tierID *uuid.UUID) error {
	if tierID != nil {
		if _, err := s.registry.Snapshot().Resolve(*tierID); err != nil {
			// the tier may have been added since the last reload
			if reloadErr := s.registry.Reload(ctx); reloadErr != nil {
				return reloadErr
			}
			if _, err := s.registry.Snapshot().Resolve(*tierID); err != nil {
				return err
			}
		}
	}

	if err := s.repo.AssignTier(ctx, userID, tierID); err != nil {
		if errors.Is(err, tierErrors.ErrTierNotFound) {
			return err
		}
		return fmt.Errorf("failed to assign tier: %w", err)
	}

	if tierID == nil {
		log.InfoWithContext(ctx, "[tiers] cleared tier for user %s", userID)
	} else {
		log.InfoWithContext(ctx, "[tiers] assigned tier %s to user %s", tierID, userID)
	}
	return nil
}
