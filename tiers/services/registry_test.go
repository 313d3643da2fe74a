// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	tierErrors "github.com/qolzam/imagehost/tiers/errors"
	"github.com/qolzam/imagehost/tiers/models"
	"github.com/qolzam/imagehost/tiers/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	t.Run("Missing Basic falls back to the built-in tier", func(t *testing.T) {
		snap := NewSnapshot([]models.Tier{
			{ID: uuid.Must(uuid.NewV4()), Name: "Gold", AllowedSizes: []int{800}, ExposeOriginal: true},
		}, models.DefaultTierName)

		def := snap.Default()
		assert.Equal(t, models.DefaultTierName, def.Name)
		assert.Equal(t, []int{200}, def.AllowedSizes)
		assert.False(t, def.ExposeOriginal)
		assert.False(t, def.CanIssueTempLinks)
	})

	t.Run("Resolve unknown id", func(t *testing.T) {
		snap := NewSnapshot(models.SeedTiers(), models.DefaultTierName)
		_, err := snap.Resolve(uuid.Must(uuid.NewV4()))
		assert.ErrorIs(t, err, tierErrors.ErrTierNotFound)
	})

	t.Run("List is ordered by name and detached", func(t *testing.T) {
		snap := NewSnapshot(models.SeedTiers(), models.DefaultTierName)
		list := snap.List()
		require.Len(t, list, 3)
		assert.Equal(t, []string{"Basic", "Enterprise", "Premium"}, []string{list[0].Name, list[1].Name, list[2].Name})

		list[0].Name = "changed"
		assert.Equal(t, "Basic", snap.List()[0].Name)
	})
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("Reload swaps the snapshot", func(t *testing.T) {
		repo := new(MockTierRepository)
		repo.On("ListTiers", mock.Anything).Return(models.SeedTiers()[:1], nil).Once()
		registry, err := NewRegistry(ctx, repo, "")
		require.NoError(t, err)
		first := registry.Snapshot()
		assert.Len(t, first.List(), 1)

		repo.On("ListTiers", mock.Anything).Return(models.SeedTiers(), nil).Once()
		require.NoError(t, registry.Reload(ctx))
		assert.Len(t, registry.Snapshot().List(), 3)
		// old snapshot is unchanged
		assert.Len(t, first.List(), 1)
		repo.AssertExpectations(t)
	})

	t.Run("Failed reload keeps the previous snapshot", func(t *testing.T) {
		repo := new(MockTierRepository)
		repo.On("ListTiers", mock.Anything).Return(models.SeedTiers(), nil).Once()
		registry, err := NewRegistry(ctx, repo, models.DefaultTierName)
		require.NoError(t, err)

		repo.On("ListTiers", mock.Anything).Return(nil, errors.New("connection refused")).Once()
		assert.Error(t, registry.Reload(ctx))
		assert.Len(t, registry.Snapshot().List(), 3)
	})

	t.Run("Initial load failure is returned", func(t *testing.T) {
		repo := new(MockTierRepository)
		repo.On("ListTiers", mock.Anything).Return(nil, errors.New("boom"))
		_, err := NewRegistry(ctx, repo, models.DefaultTierName)
		assert.Error(t, err)
	})

	t.Run("Run reloads until cancelled", func(t *testing.T) {
		repo := &countingRepository{Repository: repository.NewMemoryRepository()}
		registry, err := NewRegistry(ctx, repo, models.DefaultTierName)
		require.NoError(t, err)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			registry.Run(runCtx, 5*time.Millisecond)
			close(done)
		}()

		assert.Eventually(t, func() bool {
			return repo.loads.Load() >= 3
		}, time.Second, 5*time.Millisecond)
		cancel()
		<-done
	})
}

type countingRepository struct {
	repository.Repository
	loads atomic.Int64
}

func (r *countingRepository) ListTiers(ctx context.Context) ([]models.Tier, error) {
	r.loads.Add(1)
	return r.Repository.ListTiers(ctx)
}
