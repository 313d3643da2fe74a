// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/tiers/models"
	"github.com/qolzam/imagehost/tiers/repository"
	"github.com/stretchr/testify/mock"
)

// MockTierRepository is a mock implementation of repository.Repository
type MockTierRepository struct {
	mock.Mock
}

// Ensure MockTierRepository implements Repository
var _ repository.Repository = (*MockTierRepository)(nil)

func (m *MockTierRepository) ListTiers(ctx context.Context) ([]models.Tier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tier), args.Error(1)
}

func (m *MockTierRepository) FindUserTierID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uuid.UUID), args.Error(1)
}

func (m *MockTierRepository) AssignTier(ctx context.Context, userID uuid.UUID, tierID *uuid.UUID) error {
	args := m.Called(ctx, userID, tierID)
	return args.Error(0)
}
