// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/images/models"
)

// Repository persists image metadata. Blob bytes live in the provider.
type Repository interface {
	// Create inserts a new image row
	Create(ctx context.Context, image *models.Image) error

	// FindByID returns ErrImageNotFound when no row matches
	FindByID(ctx context.Context, id uuid.UUID) (*models.Image, error)

	// FindByOwner lists an owner's images newest first
	FindByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Image, error)

	// CountByOwner returns how many images an owner has
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
