package handlers_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/images"
	"github.com/qolzam/imagehost/images/handlers"
	"github.com/qolzam/imagehost/images/models"
	"github.com/qolzam/imagehost/images/provider"
	imageRepository "github.com/qolzam/imagehost/images/repository"
	imageServices "github.com/qolzam/imagehost/images/services"
	"github.com/qolzam/imagehost/images/thumbnail"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	"github.com/qolzam/imagehost/internal/testutil"
	"github.com/qolzam/imagehost/internal/types"
	tierModels "github.com/qolzam/imagehost/tiers/models"
	tierRepository "github.com/qolzam/imagehost/tiers/repository"
	tierServices "github.com/qolzam/imagehost/tiers/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type imageApp struct {
	helper *testutil.HTTPHelper
	priv   string
	tiers  tierRepository.Repository
}

func setupImageApp(t *testing.T) *imageApp {
	t.Helper()
	ctx := context.Background()
	pub, priv := testutil.GenerateECDSAKeyPairPEM(t)

	tierRepo := tierRepository.NewMemoryRepository()
	registry, err := tierServices.NewRegistry(ctx, tierRepo, tierModels.DefaultTierName)
	require.NoError(t, err)

	blobs := provider.NewMemoryProvider("http://img.test")
	svc := imageServices.NewImageService(
		imageRepository.NewMemoryRepository(),
		blobs,
		thumbnail.NewImagingRenderer(),
		tierServices.NewTierService(tierRepo, registry),
		1<<20,
	)

	app := fiber.New()
	images.RegisterRoutes(app, &images.ImageHandlers{
		ImageHandler: handlers.NewImageHandler(svc),
		MediaHandler: handlers.NewMediaHandler(blobs),
	}, &platformconfig.Config{JWT: platformconfig.JWTConfig{PublicKey: pub}})

	return &imageApp{helper: testutil.NewHTTPHelper(t, app), priv: priv, tiers: tierRepo}
}

func (a *imageApp) upload(t *testing.T, token string, data []byte) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	a.helper.NewRequest(http.MethodPost, "/images", data).
		WithContentType("image/png").
		WithHeader(types.HeaderFilename, "cat.png").
		WithJWTAuth(token).
		SendJSON(http.StatusCreated, &body)
	return body
}

func TestImageHandler(t *testing.T) {
	app := setupImageApp(t)
	owner := testutil.CreateTestUserContext(t, types.UserRole)
	other := testutil.CreateTestUserContext(t, types.UserRole)
	ownerToken := testutil.MustJWT(t, app.priv, owner)
	otherToken := testutil.MustJWT(t, app.priv, other)

	var imageID string

	t.Run("Upload requires authentication", func(t *testing.T) {
		app.helper.NewRequest(http.MethodPost, "/images", testutil.PNGImage(t, 10, 10)).
			WithContentType("image/png").
			SendJSON(http.StatusUnauthorized, nil)
	})

	t.Run("Basic upload omits the original", func(t *testing.T) {
		body := app.upload(t, ownerToken, testutil.PNGImage(t, 800, 600))

		imageID, _ = body["id"].(string)
		require.NotEmpty(t, imageID)
		assert.NotContains(t, body, "original_image_url")

		thumbs, ok := body["thumbnails"].(map[string]interface{})
		require.True(t, ok)
		assert.Len(t, thumbs, 1)
		assert.Contains(t, thumbs, "200")
	})

	t.Run("Thumbnail URL is served by the media route", func(t *testing.T) {
		var body models.ImageResponse
		app.helper.NewRequest(http.MethodGet, "/images/"+imageID, nil).WithJWTAuth(ownerToken).SendJSON(http.StatusOK, &body)

		path := body.Thumbnails["200"][len("http://img.test"):]
		resp := app.helper.NewRequest(http.MethodGet, path, nil).Send()
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get(types.HeaderContentType))

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, 200, testutil.DecodedSize(t, data).Y)
	})

	t.Run("Media outside uploads is not found", func(t *testing.T) {
		app.helper.NewRequest(http.MethodGet, "/media/etc/passwd", nil).SendJSON(http.StatusNotFound, nil)
		app.helper.NewRequest(http.MethodGet, "/media/uploads/originals/missing.png", nil).SendJSON(http.StatusNotFound, nil)
	})

	t.Run("Upgraded user sees original and new size", func(t *testing.T) {
		require.NoError(t, app.tiers.AssignTier(context.Background(), owner.UserID, &tierModels.PremiumTierID))

		var body map[string]interface{}
		app.helper.NewRequest(http.MethodGet, "/images/"+imageID, nil).WithJWTAuth(ownerToken).SendJSON(http.StatusOK, &body)
		assert.Contains(t, body, "original_image_url")
		assert.Len(t, body["thumbnails"], 2)
	})

	t.Run("Foreign, unknown and malformed ids are not found", func(t *testing.T) {
		app.helper.NewRequest(http.MethodGet, "/images/"+imageID, nil).WithJWTAuth(otherToken).SendJSON(http.StatusNotFound, nil)
		app.helper.NewRequest(http.MethodGet, "/images/"+uuid.Must(uuid.NewV4()).String(), nil).WithJWTAuth(ownerToken).SendJSON(http.StatusNotFound, nil)
		resp := app.helper.NewRequest(http.MethodGet, "/images/not-a-uuid", nil).WithJWTAuth(ownerToken).Send()
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("List only returns own images", func(t *testing.T) {
		app.upload(t, ownerToken, testutil.PNGImage(t, 30, 30))

		var mine models.ListResponse
		app.helper.NewRequest(http.MethodGet, "/images?limit=1", nil).WithJWTAuth(ownerToken).SendJSON(http.StatusOK, &mine)
		assert.Len(t, mine.Images, 1)
		assert.Equal(t, 1, mine.Limit)

		var theirs models.ListResponse
		app.helper.NewRequest(http.MethodGet, "/images", nil).WithJWTAuth(otherToken).SendJSON(http.StatusOK, &theirs)
		assert.Empty(t, theirs.Images)
	})

	t.Run("List rejects malformed paging", func(t *testing.T) {
		app.helper.NewRequest(http.MethodGet, "/images?limit=many", nil).WithJWTAuth(ownerToken).SendJSON(http.StatusBadRequest, nil)
	})

	t.Run("Binary returns the original base64 encoded", func(t *testing.T) {
		var body models.BinaryResponse
		app.helper.NewRequest(http.MethodGet, "/images/"+imageID+"/binary", nil).WithJWTAuth(ownerToken).SendJSON(http.StatusOK, &body)

		data, err := base64.StdEncoding.DecodeString(body.BinaryImage)
		require.NoError(t, err)
		assert.Equal(t, 800, testutil.DecodedSize(t, data).X)

		app.helper.NewRequest(http.MethodGet, "/images/"+imageID+"/binary", nil).WithJWTAuth(otherToken).SendJSON(http.StatusNotFound, nil)
	})

	t.Run("Rejects bodies that are not images", func(t *testing.T) {
		app.helper.NewRequest(http.MethodPost, "/images", []byte("hello")).
			WithContentType("image/png").
			WithJWTAuth(ownerToken).
			SendJSON(http.StatusBadRequest, nil)
	})
}
