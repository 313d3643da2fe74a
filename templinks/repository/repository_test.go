// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	imageModels "github.com/qolzam/imagehost/images/models"
	imageRepository "github.com/qolzam/imagehost/images/repository"
	"github.com/qolzam/imagehost/internal/database/postgres"
	linkErrors "github.com/qolzam/imagehost/templinks/errors"
	"github.com/qolzam/imagehost/templinks/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func runRepositoryContract(t *testing.T, repo Repository, newImage func(t *testing.T) uuid.UUID) {
	ctx := context.Background()

	t.Run("Create and find by digest", func(t *testing.T) {
		digest := blake2b.Sum256([]byte("token-one"))
		link := &models.TempLink{
			TokenDigest: digest[:],
			ImageID:     newImage(t),
			OwnerUserID: uuid.Must(uuid.NewV4()),
			ExpiresAt:   time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond),
			CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		}
		require.NoError(t, repo.Create(ctx, link))

		found, err := repo.FindByDigest(ctx, digest[:])
		require.NoError(t, err)
		assert.Equal(t, link.ImageID, found.ImageID)
		assert.Equal(t, link.OwnerUserID, found.OwnerUserID)
		assert.True(t, link.ExpiresAt.Equal(found.ExpiresAt))
	})

	t.Run("Several links for one image are independent", func(t *testing.T) {
		imageID := newImage(t)
		for _, token := range []string{"a", "b", "c"} {
			digest := blake2b.Sum256([]byte(token))
			require.NoError(t, repo.Create(ctx, &models.TempLink{
				TokenDigest: digest[:],
				ImageID:     imageID,
				OwnerUserID: uuid.Must(uuid.NewV4()),
				ExpiresAt:   time.Now().Add(time.Minute),
				CreatedAt:   time.Now(),
			}))
		}
		digest := blake2b.Sum256([]byte("b"))
		found, err := repo.FindByDigest(ctx, digest[:])
		require.NoError(t, err)
		assert.Equal(t, imageID, found.ImageID)
	})

	t.Run("Unknown digest", func(t *testing.T) {
		digest := blake2b.Sum256([]byte("never issued"))
		_, err := repo.FindByDigest(ctx, digest[:])
		assert.ErrorIs(t, err, linkErrors.ErrLinkNotFound)
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, NewMemoryRepository(), func(*testing.T) uuid.UUID {
		return uuid.Must(uuid.NewV4())
	})
}

func TestPostgresRepository(t *testing.T) {
	client := postgres.NewTestClient(t)
	images := imageRepository.NewPostgresRepositoryWithSchema(client, client.Schema())
	repo := NewPostgresRepositoryWithSchema(client, client.Schema())

	runRepositoryContract(t, repo, func(t *testing.T) uuid.UUID {
		id := uuid.Must(uuid.NewV4())
		require.NoError(t, images.Create(context.Background(), &imageModels.Image{
			ID:          id,
			OwnerUserID: uuid.Must(uuid.NewV4()),
			ObjectKey:   "uploads/originals/" + id.String() + ".png",
			ContentType: "image/png",
			SizeBytes:   1,
			Width:       1,
			Height:      1,
			CreatedAt:   time.Now(),
		}))
		return id
	})

	t.Run("Link to a missing image is rejected", func(t *testing.T) {
		digest := blake2b.Sum256([]byte("orphan"))
		err := repo.Create(context.Background(), &models.TempLink{
			TokenDigest: digest[:],
			ImageID:     uuid.Must(uuid.NewV4()),
			OwnerUserID: uuid.Must(uuid.NewV4()),
			ExpiresAt:   time.Now().Add(time.Minute),
			CreatedAt:   time.Now(),
		})
		assert.ErrorIs(t, err, linkErrors.ErrImageNotFound)
	})
}
