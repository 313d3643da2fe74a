package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	imageErrors "github.com/qolzam/imagehost/images/errors"
	"github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/images/provider"
	"github.com/qolzam/imagehost/images/repository"
	"github.com/qolzam/imagehost/images/thumbnail"
	"github.com/qolzam/imagehost/internal/cache"
	"github.com/qolzam/imagehost/internal/testutil"
	"github.com/qolzam/imagehost/internal/types"
	tierModels "github.com/qolzam/imagehost/tiers/models"
	tierServices "github.com/qolzam/imagehost/tiers/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	basicDecision      = tierServices.DecisionFor(tierModels.BuiltinBasic())
	enterpriseDecision = tierModels.RenderDecision{ThumbnailSizes: []int{200, 400}, IncludeOriginal: true, CanIssueTempLinks: true}
)

// countingProvider counts writes and existence probes on a memory provider
type countingProvider struct {
	*provider.MemoryProvider
	puts   atomic.Int64
	probes atomic.Int64
}

func (p *countingProvider) Put(ctx context.Context, key, contentType string, data []byte) error {
	p.puts.Add(1)
	return p.MemoryProvider.Put(ctx, key, contentType, data)
}

func (p *countingProvider) Exists(ctx context.Context, key string) (bool, error) {
	p.probes.Add(1)
	return p.MemoryProvider.Exists(ctx, key)
}

type fixture struct {
	svc     ImageService
	repo    repository.Repository
	blobs   *countingProvider
	decider *MockRenderDecider
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:    repository.NewMemoryRepository(),
		blobs:   &countingProvider{MemoryProvider: provider.NewMemoryProvider("http://img.test")},
		decider: new(MockRenderDecider),
	}
	f.svc = NewImageService(f.repo, f.blobs, thumbnail.NewImagingRenderer(), f.decider, 1<<20, opts...)
	return f
}

func newUser() types.UserContext {
	return types.UserContext{UserID: uuid.Must(uuid.NewV4()), SystemRole: types.UserRole}
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("Basic tier gets a single thumbnail and no original", func(t *testing.T) {
		f := newFixture(t)
		user := newUser()
		f.decider.On("View", mock.Anything, user.UserID).Return(basicDecision, nil)

		resp, err := f.svc.Upload(ctx, user, UploadInput{Data: testutil.PNGImage(t, 800, 600), FileName: "cat.png"})
		require.NoError(t, err)

		assert.Len(t, resp.Thumbnails, 1)
		require.Contains(t, resp.Thumbnails, "200")
		assert.Contains(t, resp.Thumbnails["200"], "/media/uploads/thumbnails/"+resp.ID.String()+"/200.png")
		assert.Empty(t, resp.OriginalImageURL)
		assert.Equal(t, "cat.png", resp.FileName)
		assert.Equal(t, 800, resp.Width)

		stored, err := f.repo.FindByID(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, user.UserID, stored.OwnerUserID)
		assert.Regexp(t, `^uploads/originals/[0-9A-Za-z]{27}\.png$`, stored.ObjectKey)

		thumb, err := f.blobs.Get(ctx, ThumbnailKey(stored, 200))
		require.NoError(t, err)
		assert.Equal(t, 200, testutil.DecodedSize(t, thumb.Data).Y)
		assert.Equal(t, 2, f.blobs.Len())
	})

	t.Run("Enterprise tier gets every size and the original", func(t *testing.T) {
		f := newFixture(t)
		user := newUser()
		f.decider.On("View", mock.Anything, user.UserID).Return(enterpriseDecision, nil)

		resp, err := f.svc.Upload(ctx, user, UploadInput{Data: testutil.PNGImage(t, 800, 600)})
		require.NoError(t, err)

		assert.Len(t, resp.Thumbnails, 2)
		assert.Contains(t, resp.Thumbnails, "200")
		assert.Contains(t, resp.Thumbnails, "400")
		assert.Contains(t, resp.OriginalImageURL, "/media/uploads/originals/")
	})

	t.Run("Rejects bodies over the limit", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Upload(ctx, newUser(), UploadInput{Data: make([]byte, 1<<20+1)})
		assert.ErrorIs(t, err, imageErrors.ErrImageTooLarge)
		assert.Equal(t, 0, f.blobs.Len())
	})

	t.Run("Rejects non images", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Upload(ctx, newUser(), UploadInput{Data: []byte("definitely not a picture")})
		assert.ErrorIs(t, err, imageErrors.ErrInvalidImage)

		_, err = f.svc.Upload(ctx, newUser(), UploadInput{})
		assert.ErrorIs(t, err, imageErrors.ErrInvalidImage)
	})

	t.Run("Requires a user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Upload(ctx, types.UserContext{}, UploadInput{Data: testutil.PNGImage(t, 10, 10)})
		assert.ErrorIs(t, err, imageErrors.ErrInvalidUserContext)
	})

	t.Run("Database failure removes the stored original", func(t *testing.T) {
		repo := new(MockImageRepository)
		blobs := provider.NewMemoryProvider("http://img.test")
		svc := NewImageService(repo, blobs, thumbnail.NewImagingRenderer(), new(MockRenderDecider), 0)

		repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Image")).
			Return(errors.Join(imageErrors.ErrDatabaseOperation, errors.New("connection reset")))

		_, err := svc.Upload(ctx, newUser(), UploadInput{Data: testutil.PNGImage(t, 10, 10)})
		assert.ErrorIs(t, err, imageErrors.ErrDatabaseOperation)
		assert.Equal(t, 0, blobs.Len())
		repo.AssertExpectations(t)
	})

	t.Run("Uses the injected clock", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		f := newFixture(t, WithClock(func() time.Time { return at }))
		user := newUser()
		f.decider.On("View", mock.Anything, user.UserID).Return(basicDecision, nil)

		resp, err := f.svc.Upload(ctx, user, UploadInput{Data: testutil.PNGImage(t, 10, 10)})
		require.NoError(t, err)
		assert.True(t, at.Equal(resp.CreatedAt))
	})
}

func TestThumbnailsAreRenderedOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("Without cache the provider is probed", func(t *testing.T) {
		f := newFixture(t)
		user := newUser()
		f.decider.On("View", mock.Anything, user.UserID).Return(enterpriseDecision, nil)

		resp, err := f.svc.Upload(ctx, user, UploadInput{Data: testutil.PNGImage(t, 800, 600)})
		require.NoError(t, err)
		puts := f.blobs.puts.Load()
		assert.Equal(t, int64(3), puts)

		_, err = f.svc.Get(ctx, user, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, puts, f.blobs.puts.Load())
	})

	t.Run("Cached markers skip the provider", func(t *testing.T) {
		backend, err := cache.NewCache(&cache.CacheConfig{Enabled: true, Backend: cache.CacheTypeMemory, MaxEntries: 100, TTL: time.Minute})
		require.NoError(t, err)
		svcCache := cache.NewGenericCacheService(backend, &cache.CacheConfig{Enabled: true, TTL: time.Minute})

		f := newFixture(t, WithCache(svcCache))
		user := newUser()
		f.decider.On("View", mock.Anything, user.UserID).Return(enterpriseDecision, nil)

		resp, err := f.svc.Upload(ctx, user, UploadInput{Data: testutil.PNGImage(t, 800, 600)})
		require.NoError(t, err)
		probes := f.blobs.probes.Load()

		_, err = f.svc.Get(ctx, user, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, probes, f.blobs.probes.Load())
	})

	t.Run("A tier upgrade renders only the new size", func(t *testing.T) {
		f := newFixture(t)
		user := newUser()
		f.decider.On("View", mock.Anything, user.UserID).Return(basicDecision, nil).Once()
		f.decider.On("View", mock.Anything, user.UserID).Return(enterpriseDecision, nil)

		resp, err := f.svc.Upload(ctx, user, UploadInput{Data: testutil.PNGImage(t, 800, 600)})
		require.NoError(t, err)
		assert.Equal(t, int64(2), f.blobs.puts.Load())

		upgraded, err := f.svc.Get(ctx, user, resp.ID)
		require.NoError(t, err)
		assert.Len(t, upgraded.Thumbnails, 2)
		assert.Equal(t, int64(3), f.blobs.puts.Load())
	})
}

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, other := newUser(), newUser()
	f.decider.On("View", mock.Anything, mock.Anything).Return(basicDecision, nil)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		resp, err := f.svc.Upload(ctx, owner, UploadInput{Data: testutil.PNGImage(t, 20, 20)})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	t.Run("Owner can read", func(t *testing.T) {
		resp, err := f.svc.Get(ctx, owner, ids[0])
		require.NoError(t, err)
		assert.Equal(t, ids[0], resp.ID)

		data, err := f.svc.GetOwnedBinary(ctx, owner, ids[0])
		require.NoError(t, err)
		assert.Equal(t, 20, testutil.DecodedSize(t, data).X)
	})

	t.Run("Foreign and unknown images are not found", func(t *testing.T) {
		_, err := f.svc.Get(ctx, other, ids[0])
		assert.ErrorIs(t, err, imageErrors.ErrImageNotFound)

		_, err = f.svc.GetOwnedBinary(ctx, other, ids[0])
		assert.ErrorIs(t, err, imageErrors.ErrImageNotFound)

		_, err = f.svc.Get(ctx, owner, uuid.Must(uuid.NewV4()))
		assert.ErrorIs(t, err, imageErrors.ErrImageNotFound)
	})

	t.Run("List is scoped to the caller and paged", func(t *testing.T) {
		page, err := f.svc.List(ctx, owner, models.ListQuery{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page.Images, 2)
		assert.Equal(t, 2, page.Limit)

		rest, err := f.svc.List(ctx, owner, models.ListQuery{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, rest.Images, 1)

		none, err := f.svc.List(ctx, other, models.ListQuery{})
		require.NoError(t, err)
		assert.Empty(t, none.Images)
		assert.Equal(t, models.DefaultListLimit, none.Limit)
	})

	t.Run("Missing original surfaces as a storage error", func(t *testing.T) {
		image, err := f.svc.FindImage(ctx, ids[1])
		require.NoError(t, err)
		require.NoError(t, f.blobs.Delete(ctx, image.ObjectKey))

		_, err = f.svc.ReadOriginal(ctx, image)
		assert.ErrorIs(t, err, imageErrors.ErrStorageOperation)
	})
}

func TestCleanFileName(t *testing.T) {
	s := NewImageService(nil, nil, nil, nil, 0).(*imageService)

	cases := map[string]string{
		"cat.png":                   "cat.png",
		"  <b>cat</b>.png ":         "cat.png",
		"../../etc/passwd":          "passwd",
		`C:\Users\me\dog.jpg`:       "dog.jpg",
		"<script>alert(1)</script>": "",
		"":                          "",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, s.cleanFileName(in))
		})
	}
}
