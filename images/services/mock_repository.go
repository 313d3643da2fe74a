// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/images/repository"
	tierModels "github.com/qolzam/imagehost/tiers/models"
	"github.com/stretchr/testify/mock"
)

// MockImageRepository is a mock implementation of repository.Repository
type MockImageRepository struct {
	mock.Mock
}

// Ensure MockImageRepository implements Repository
var _ repository.Repository = (*MockImageRepository)(nil)

func (m *MockImageRepository) Create(ctx context.Context, image *models.Image) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockImageRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Image, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Image, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Image), args.Error(1)
}

func (m *MockImageRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRenderDecider is a mock implementation of RenderDecider
type MockRenderDecider struct {
	mock.Mock
}

var _ RenderDecider = (*MockRenderDecider)(nil)

func (m *MockRenderDecider) View(ctx context.Context, userID uuid.UUID) (tierModels.RenderDecision, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(tierModels.RenderDecision), args.Error(1)
}
