package repository

import (
	"context"
	"sort"
	"sync"

	uuid "github.com/gofrs/uuid"
	imageErrors "github.com/qolzam/imagehost/images/errors"
	"github.com/qolzam/imagehost/images/models"
)

type memoryRepository struct {
	mu     sync.RWMutex
	images map[uuid.UUID]models.Image
}

// NewMemoryRepository creates an in-process repository
func NewMemoryRepository() Repository {
	return &memoryRepository{images: make(map[uuid.UUID]models.Image)}
}

func (r *memoryRepository) Create(_ context.Context, image *models.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[image.ID] = *image
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	image, ok := r.images[id]
	if !ok {
		return nil, imageErrors.ErrImageNotFound
	}
	return &image, nil
}

func (r *memoryRepository) FindByOwner(_ context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Image, error) {
	r.mu.RLock()
	owned := []models.Image{}
	for _, image := range r.images {
		if image.OwnerUserID == ownerID {
			owned = append(owned, image)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID.String() > owned[j].ID.String()
	})

	if offset >= len(owned) {
		return []models.Image{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

func (r *memoryRepository) CountByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, image := range r.images {
		if image.OwnerUserID == ownerID {
			n++
		}
	}
	return n, nil
}
