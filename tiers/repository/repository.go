// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/tiers/models"
)

// Repository defines tier and tier-assignment storage
type Repository interface {
	// ListTiers returns every tier with its allowed sizes
	ListTiers(ctx context.Context) ([]models.Tier, error)

	// FindUserTierID returns the tier assigned to a user, or nil when none is assigned
	FindUserTierID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)

	// AssignTier sets or, with a nil tierID, clears a user's tier.
	// An unknown tierID yields errors.ErrTierNotFound.
	AssignTier(ctx context.Context, userID uuid.UUID, tierID *uuid.UUID) error
}
