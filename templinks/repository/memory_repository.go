package repository

import (
	"context"
	"fmt"
	"sync"

	linkErrors "github.com/qolzam/imagehost/templinks/errors"
	"github.com/qolzam/imagehost/templinks/models"
)

type memoryRepository struct {
	mu    sync.RWMutex
	links map[string]models.TempLink
}

// NewMemoryRepository creates an in-process repository
func NewMemoryRepository() Repository {
	return &memoryRepository{links: make(map[string]models.TempLink)}
}

func (r *memoryRepository) Create(_ context.Context, link *models.TempLink) error {
	key := string(link.TokenDigest)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[key]; ok {
		return fmt.Errorf("%w: duplicate token digest", linkErrors.ErrDatabaseOperation)
	}
	stored := *link
	stored.TokenDigest = append([]byte(nil), link.TokenDigest...)
	r.links[key] = stored
	return nil
}

func (r *memoryRepository) FindByDigest(_ context.Context, digest []byte) (*models.TempLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.links[string(digest)]
	if !ok {
		return nil, linkErrors.ErrLinkNotFound
	}
	return &link, nil
}
