// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	uuid "github.com/gofrs/uuid"
	"github.com/microcosm-cc/bluemonday"
	imageErrors "github.com/qolzam/imagehost/images/errors"
	"github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/images/provider"
	"github.com/qolzam/imagehost/images/repository"
	"github.com/qolzam/imagehost/images/thumbnail"
	"github.com/qolzam/imagehost/internal/cache"
	"github.com/qolzam/imagehost/internal/pkg/log"
	"github.com/qolzam/imagehost/internal/types"
	tierModels "github.com/qolzam/imagehost/tiers/models"
	"github.com/segmentio/ksuid"
)

const (
	originalsPrefix  = "uploads/originals/"
	thumbnailsPrefix = "uploads/thumbnails/"
	maxFileNameLen   = 255

	// rendered thumbnails never change, so markers can live long
	renderedMarkerTTL = 24 * time.Hour
)

// RenderDecider returns the render decision for a user
type RenderDecider interface {
	View(ctx context.Context, userID uuid.UUID) (tierModels.RenderDecision, error)
}

// UploadInput is a raw image body plus its optional client filename
type UploadInput struct {
	Data     []byte
	FileName string
}

// ImageService manages uploads and shapes images for their owner's tier
type ImageService interface {
	// Upload stores an original owned by user and returns it shaped for user's tier
	Upload(ctx context.Context, user types.UserContext, in UploadInput) (*models.ImageResponse, error)

	// List returns a page of user's own images
	List(ctx context.Context, user types.UserContext, query models.ListQuery) (*models.ListResponse, error)

	// Get returns one of user's images. Foreign images are reported as not found.
	Get(ctx context.Context, user types.UserContext, imageID uuid.UUID) (*models.ImageResponse, error)

	// GetOwnedBinary returns the original bytes of one of user's images
	GetOwnedBinary(ctx context.Context, user types.UserContext, imageID uuid.UUID) ([]byte, error)

	// FindImage looks up image metadata without an ownership check
	FindImage(ctx context.Context, imageID uuid.UUID) (*models.Image, error)

	// ReadOriginal loads the original bytes of image
	ReadOriginal(ctx context.Context, image *models.Image) ([]byte, error)
}

type imageService struct {
	repo      repository.Repository
	blobs     provider.BlobProvider
	renderer  thumbnail.Renderer
	decider   RenderDecider
	cache     *cache.GenericCacheService
	sanitizer *bluemonday.Policy
	maxBytes  int64
	now       func() time.Time
}

// Option customizes an image service
type Option func(*imageService)

// WithClock overrides the creation timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *imageService) { s.now = now }
}

// WithCache enables rendered-thumbnail markers
func WithCache(c *cache.GenericCacheService) Option {
	return func(s *imageService) { s.cache = c }
}

// NewImageService creates a new image service. maxBytes <= 0 disables the size limit.
func NewImageService(repo repository.Repository, blobs provider.BlobProvider, renderer thumbnail.Renderer, decider RenderDecider, maxBytes int64, opts ...Option) ImageService {
	s := &imageService{
		repo:      repo,
		blobs:     blobs,
		renderer:  renderer,
		decider:   decider,
		sanitizer: bluemonday.StrictPolicy(),
		maxBytes:  maxBytes,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *imageService) Upload(ctx context.Context, user types.UserContext, in UploadInput) (*models.ImageResponse, error) {
	if user.UserID == uuid.Nil {
		return nil, imageErrors.ErrInvalidUserContext
	}
	if len(in.Data) == 0 {
		return nil, imageErrors.NewImageError(imageErrors.ErrInvalidImage, "empty body")
	}
	if s.maxBytes > 0 && int64(len(in.Data)) > s.maxBytes {
		return nil, imageErrors.NewImageError(imageErrors.ErrImageTooLarge, "maximum size is %d bytes", s.maxBytes)
	}

	info, err := thumbnail.Inspect(in.Data)
	if err != nil {
		return nil, imageErrors.NewImageError(imageErrors.ErrInvalidImage, "%v", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate image id: %w", err)
	}
	objectID, err := ksuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate object key: %w", err)
	}

	image := &models.Image{
		ID:          id,
		OwnerUserID: user.UserID,
		ObjectKey:   originalsPrefix + objectID.String() + info.Format.Ext,
		ContentType: info.Format.ContentType,
		FileName:    s.cleanFileName(in.FileName),
		SizeBytes:   int64(len(in.Data)),
		Width:       info.Width,
		Height:      info.Height,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.blobs.Put(ctx, image.ObjectKey, image.ContentType, in.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", imageErrors.ErrStorageOperation, err)
	}
	if err := s.repo.Create(ctx, image); err != nil {
		// best effort, an orphaned blob is harmless
		if delErr := s.blobs.Delete(ctx, image.ObjectKey); delErr != nil {
			log.WarnWithContext(ctx, "[images] failed to remove orphaned original %s: %v", image.ObjectKey, delErr)
		}
		return nil, fmt.Errorf("failed to create image: %w", err)
	}

	log.InfoWithContext(ctx, "[images] user %s uploaded %s (%s, %dx%d, %d bytes)",
		user.UserID, image.ID, info.Format.Name, image.Width, image.Height, image.SizeBytes)

	return s.shapeFor(ctx, user.UserID, image, in.Data)
}

func (s *imageService) List(ctx context.Context, user types.UserContext, query models.ListQuery) (*models.ListResponse, error) {
	if user.UserID == uuid.Nil {
		return nil, imageErrors.ErrInvalidUserContext
	}
	query.Normalize()

	images, err := s.repo.FindByOwner(ctx, user.UserID, query.Limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	decision, err := s.decider.View(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tier: %w", err)
	}

	out := &models.ListResponse{
		Images: make([]models.ImageResponse, 0, len(images)),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	for i := range images {
		resp, err := s.shape(ctx, &images[i], decision, nil)
		if err != nil {
			return nil, err
		}
		out.Images = append(out.Images, *resp)
	}
	return out, nil
}

func (s *imageService) Get(ctx context.Context, user types.UserContext, imageID uuid.UUID) (*models.ImageResponse, error) {
	image, err := s.findOwned(ctx, user, imageID)
	if err != nil {
		return nil, err
	}
	return s.shapeFor(ctx, user.UserID, image, nil)
}

func (s *imageService) GetOwnedBinary(ctx context.Context, user types.UserContext, imageID uuid.UUID) ([]byte, error) {
	image, err := s.findOwned(ctx, user, imageID)
	if err != nil {
		return nil, err
	}
	return s.ReadOriginal(ctx, image)
}

func (s *imageService) FindImage(ctx context.Context, imageID uuid.UUID) (*models.Image, error) {
	image, err := s.repo.FindByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, imageErrors.ErrImageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find image: %w", err)
	}
	return image, nil
}

func (s *imageService) ReadOriginal(ctx context.Context, image *models.Image) ([]byte, error) {
	obj, err := s.blobs.Get(ctx, image.ObjectKey)
	if err != nil {
		if errors.Is(err, provider.ErrObjectNotFound) {
			log.ErrorWithContext(ctx, "[images] original %s missing for image %s", image.ObjectKey, image.ID)
		}
		return nil, fmt.Errorf("%w: %v", imageErrors.ErrStorageOperation, err)
	}
	return obj.Data, nil
}

// findOwned hides foreign images behind ErrImageNotFound
func (s *imageService) findOwned(ctx context.Context, user types.UserContext, imageID uuid.UUID) (*models.Image, error) {
	if user.UserID == uuid.Nil {
		return nil, imageErrors.ErrInvalidUserContext
	}
	image, err := s.FindImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if image.OwnerUserID != user.UserID {
		return nil, imageErrors.ErrImageNotFound
	}
	return image, nil
}

func (s *imageService) shapeFor(ctx context.Context, userID uuid.UUID, image *models.Image, original []byte) (*models.ImageResponse, error) {
	decision, err := s.decider.View(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tier: %w", err)
	}
	return s.shape(ctx, image, decision, original)
}

// shape renders any missing thumbnails in decision and builds the response.
// original may be nil, it is then loaded on first render.
func (s *imageService) shape(ctx context.Context, image *models.Image, decision tierModels.RenderDecision, original []byte) (*models.ImageResponse, error) {
	resp := &models.ImageResponse{
		ID:         image.ID,
		Thumbnails: make(map[string]string, len(decision.ThumbnailSizes)),
		FileName:   image.FileName,
		Width:      image.Width,
		Height:     image.Height,
		CreatedAt:  image.CreatedAt,
	}

	for _, size := range decision.ThumbnailSizes {
		key, err := s.ensureThumbnail(ctx, image, size, &original)
		if err != nil {
			return nil, err
		}
		u, err := s.blobs.URL(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", imageErrors.ErrStorageOperation, err)
		}
		resp.Thumbnails[strconv.Itoa(size)] = u
	}

	if decision.IncludeOriginal {
		u, err := s.blobs.URL(ctx, image.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", imageErrors.ErrStorageOperation, err)
		}
		resp.OriginalImageURL = u
	}
	return resp, nil
}

// ThumbnailKey is the object key of image's rendering at height size
func ThumbnailKey(image *models.Image, size int) string {
	return fmt.Sprintf("%s%s/%d%s", thumbnailsPrefix, image.ID, size, path.Ext(image.ObjectKey))
}

// ensureThumbnail renders image at size unless a rendering already exists
func (s *imageService) ensureThumbnail(ctx context.Context, image *models.Image, size int, original *[]byte) (string, error) {
	key := ThumbnailKey(image, size)
	marker := "rendered:" + key

	if ok, err := s.cache.Exists(ctx, marker); err == nil && ok {
		return key, nil
	}

	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", imageErrors.ErrStorageOperation, err)
	}
	if !exists {
		if *original == nil {
			data, err := s.ReadOriginal(ctx, image)
			if err != nil {
				return "", err
			}
			*original = data
		}

		rendered, err := s.renderer.Render(*original, size)
		if err != nil {
			return "", fmt.Errorf("%w: %v", imageErrors.ErrRenderFailed, err)
		}
		if err := s.blobs.Put(ctx, key, image.ContentType, rendered); err != nil {
			return "", fmt.Errorf("%w: %v", imageErrors.ErrStorageOperation, err)
		}
		log.InfoWithContext(ctx, "[images] rendered %dpx thumbnail for %s", size, image.ID)
	}

	if s.cache.IsEnabled() {
		if err := s.cache.Mark(ctx, marker, renderedMarkerTTL); err != nil {
			log.WarnWithContext(ctx, "[images] failed to mark %s rendered: %v", key, err)
		}
	}
	return key, nil
}

// cleanFileName strips markup and path components from a client supplied name
func (s *imageService) cleanFileName(name string) string {
	name = strings.TrimSpace(s.sanitizer.Sanitize(name))
	if name == "" {
		return ""
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if utf8.RuneCountInString(name) > maxFileNameLen {
		name = string([]rune(name)[:maxFileNameLen])
	}
	return name
}
