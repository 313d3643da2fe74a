// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	imageModels "github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/templinks/models"
	"github.com/qolzam/imagehost/templinks/repository"
	tierModels "github.com/qolzam/imagehost/tiers/models"
	"github.com/stretchr/testify/mock"
)

// MockTempLinkRepository is a mock implementation of repository.Repository
type MockTempLinkRepository struct {
	mock.Mock
}

// Ensure MockTempLinkRepository implements Repository
var _ repository.Repository = (*MockTempLinkRepository)(nil)

func (m *MockTempLinkRepository) Create(ctx context.Context, link *models.TempLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockTempLinkRepository) FindByDigest(ctx context.Context, digest []byte) (*models.TempLink, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TempLink), args.Error(1)
}

// MockImageSource is a mock implementation of ImageSource
type MockImageSource struct {
	mock.Mock
}

var _ ImageSource = (*MockImageSource)(nil)

func (m *MockImageSource) FindImage(ctx context.Context, imageID uuid.UUID) (*imageModels.Image, error) {
	args := m.Called(ctx, imageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*imageModels.Image), args.Error(1)
}

func (m *MockImageSource) ReadOriginal(ctx context.Context, image *imageModels.Image) ([]byte, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
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
