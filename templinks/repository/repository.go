// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	"github.com/qolzam/imagehost/templinks/models"
)

// Repository persists temporary links keyed by token digest
type Repository interface {
	// Create inserts a link. Digests are unique.
	Create(ctx context.Context, link *models.TempLink) error

	// FindByDigest returns ErrLinkNotFound when no link matches
	FindByDigest(ctx context.Context, digest []byte) (*models.TempLink, error)
}
