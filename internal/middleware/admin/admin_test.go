package admin

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appWithUser(user *types.UserContext, cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals(types.UserCtxName, *user)
		}
		return c.Next()
	})
	app.Get("/", New(cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAdmin(t *testing.T) {
	uid := uuid.Must(uuid.NewV4())

	tests := []struct {
		name   string
		user   *types.UserContext
		cfg    Config
		status int
	}{
		{"No user - Unauthorized", nil, Config{}, fiber.StatusUnauthorized},
		{"Regular user - Forbidden", &types.UserContext{UserID: uid, SystemRole: types.UserRole}, Config{}, fiber.StatusForbidden},
		{"Admin - Allowed", &types.UserContext{UserID: uid, SystemRole: types.AdminRole}, Config{}, fiber.StatusNoContent},
		{"Custom hook - Allowed", &types.UserContext{UserID: uid, SystemRole: types.UserRole},
			Config{HasAccess: func(u types.UserContext) bool { return u.UserID == uid }}, fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := appWithUser(tt.user, tt.cfg).Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
