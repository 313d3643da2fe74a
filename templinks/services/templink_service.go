// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	uuid "github.com/gofrs/uuid"
	imageErrors "github.com/qolzam/imagehost/images/errors"
	imageModels "github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/internal/cache"
	"github.com/qolzam/imagehost/internal/pkg/log"
	"github.com/qolzam/imagehost/internal/types"
	"github.com/qolzam/imagehost/internal/utils"
	linkErrors "github.com/qolzam/imagehost/templinks/errors"
	"github.com/qolzam/imagehost/templinks/models"
	"github.com/qolzam/imagehost/templinks/repository"
	tierModels "github.com/qolzam/imagehost/tiers/models"
	"golang.org/x/crypto/blake2b"
)

const (
	// TokenBytes is the entropy of a bearer token
	TokenBytes = 32

	// BinaryPath prefixes the public fetch URL of a link
	BinaryPath = "/images/binary/"

	linkCachePrefix = "templink:"
)

// ImageSource resolves images and their original bytes
type ImageSource interface {
	FindImage(ctx context.Context, imageID uuid.UUID) (*imageModels.Image, error)
	ReadOriginal(ctx context.Context, image *imageModels.Image) ([]byte, error)
}

// RenderDecider returns the render decision for a user
type RenderDecider interface {
	View(ctx context.Context, userID uuid.UUID) (tierModels.RenderDecision, error)
}

// TempLinkService issues and redeems temporary links
type TempLinkService interface {
	// Authorize reports whether user's tier may issue links at all
	Authorize(ctx context.Context, user types.UserContext) error

	// Issue creates a link to one of user's images valid for req.SecondsToExpire
	Issue(ctx context.Context, user types.UserContext, req models.IssueRequest) (*models.IssueResponse, error)

	// ValidateAndFetch redeems token for the original bytes of its image
	ValidateAndFetch(ctx context.Context, token string) ([]byte, error)
}

type tempLinkService struct {
	repo          repository.Repository
	images        ImageSource
	decider       RenderDecider
	publicBaseURL string
	cache         *cache.GenericCacheService
	random        io.Reader
	now           func() time.Time
}

// Option customizes a temp link service
type Option func(*tempLinkService)

// WithClock overrides the server clock
func WithClock(now func() time.Time) Option {
	return func(s *tempLinkService) { s.now = now }
}

// WithCache caches link lookups for their remaining lifetime
func WithCache(c *cache.GenericCacheService) Option {
	return func(s *tempLinkService) { s.cache = c }
}

// WithRandom overrides the token entropy source
func WithRandom(r io.Reader) Option {
	return func(s *tempLinkService) { s.random = r }
}

// NewTempLinkService creates a new temp link service
func NewTempLinkService(repo repository.Repository, images ImageSource, decider RenderDecider, publicBaseURL string, opts ...Option) TempLinkService {
	s := &tempLinkService{
		repo:          repo,
		images:        images,
		decider:       decider,
		publicBaseURL: publicBaseURL,
		random:        rand.Reader,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cachedLink is the cached subset of a link
type cachedLink struct {
	ImageID   uuid.UUID `json:"imageId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *tempLinkService) Authorize(ctx context.Context, user types.UserContext) error {
	if user.UserID == uuid.Nil {
		return linkErrors.ErrInvalidUserContext
	}

	decision, err := s.decider.View(ctx, user.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve tier: %w", err)
	}
	if !decision.CanIssueTempLinks {
		return linkErrors.ErrPermissionDenied
	}
	return nil
}

func (s *tempLinkService) Issue(ctx context.Context, user types.UserContext, req models.IssueRequest) (*models.IssueResponse, error) {
	if err := s.Authorize(ctx, user); err != nil {
		return nil, err
	}

	if req.SecondsToExpire < models.MinTTLSeconds || req.SecondsToExpire > models.MaxTTLSeconds {
		return nil, fmt.Errorf("%w: %s", linkErrors.ErrInvalidTTL, linkErrors.TTLFieldMessage)
	}

	image, err := s.images.FindImage(ctx, req.ImageID)
	if err != nil {
		if errors.Is(err, imageErrors.ErrImageNotFound) {
			return nil, linkErrors.ErrImageNotFound
		}
		return nil, fmt.Errorf("%w: %v", linkErrors.ErrDatabaseOperation, err)
	}
	if image.OwnerUserID != user.UserID {
		log.WarnWithContext(ctx, "[templinks] user %s asked for a link to foreign image %s", user.UserID, image.ID)
		return nil, linkErrors.ErrImageNotOwned
	}

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	link := &models.TempLink{
		TokenDigest: digest(token),
		ImageID:     image.ID,
		OwnerUserID: user.UserID,
		ExpiresAt:   now.Add(time.Duration(req.SecondsToExpire) * time.Second).Truncate(time.Microsecond),
		CreatedAt:   now.Truncate(time.Microsecond),
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to store temp link: %w", err)
	}
	s.cacheLink(ctx, link, now)

	log.InfoWithContext(ctx, "[templinks] issued link for image %s expiring %s", image.ID, link.ExpiresAt.Format(time.RFC3339))

	return &models.IssueResponse{
		TempLink:  utils.JoinURL(s.publicBaseURL, BinaryPath+token),
		ExpiresAt: link.ExpiresAt,
	}, nil
}

func (s *tempLinkService) ValidateAndFetch(ctx context.Context, token string) ([]byte, error) {
	link, err := s.lookup(ctx, digest(token))
	if err != nil {
		return nil, err
	}

	if link.ExpiredAt(s.now()) {
		return nil, linkErrors.ErrLinkExpired
	}

	image, err := s.images.FindImage(ctx, link.ImageID)
	if err != nil {
		if errors.Is(err, imageErrors.ErrImageNotFound) {
			return nil, linkErrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("%w: %v", linkErrors.ErrDatabaseOperation, err)
	}

	data, err := s.images.ReadOriginal(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", linkErrors.ErrStorageOperation, err)
	}
	return data, nil
}

// lookup reads a link through the cache
func (s *tempLinkService) lookup(ctx context.Context, tokenDigest []byte) (*models.TempLink, error) {
	key := linkCachePrefix + hex.EncodeToString(tokenDigest)

	var cached cachedLink
	if err := s.cache.GetCached(ctx, key, &cached); err == nil {
		return &models.TempLink{TokenDigest: tokenDigest, ImageID: cached.ImageID, ExpiresAt: cached.ExpiresAt}, nil
	}

	link, err := s.repo.FindByDigest(ctx, tokenDigest)
	if err != nil {
		if errors.Is(err, linkErrors.ErrLinkNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find temp link: %w", err)
	}
	s.cacheLink(ctx, link, s.now())
	return link, nil
}

func (s *tempLinkService) cacheLink(ctx context.Context, link *models.TempLink, now time.Time) {
	if !s.cache.IsEnabled() {
		return
	}
	remaining := link.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return
	}
	key := linkCachePrefix + hex.EncodeToString(link.TokenDigest)
	if err := s.cache.CacheData(ctx, key, cachedLink{ImageID: link.ImageID, ExpiresAt: link.ExpiresAt}, remaining); err != nil {
		log.WarnWithContext(ctx, "[templinks] failed to cache link for image %s: %v", link.ImageID, err)
	}
}

func (s *tempLinkService) newToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// digest is the at-rest form of a token
func digest(token string) []byte {
	sum := blake2b.Sum256([]byte(token))
	return sum[:]
}
