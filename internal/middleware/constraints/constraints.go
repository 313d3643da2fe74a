package constraints

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
)

// RequireUUID is a Fiber middleware that ensures a path parameter is a valid UUID.
// If the parameter is not a valid UUID, it returns 404 Not Found (route doesn't match).
//
// Static routes like /temp-links must be registered BEFORE parameterized routes like /:imageId
// to ensure correct route matching precedence.
func RequireUUID(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		paramValue := c.Params(param)
		if paramValue == "" {
			return c.Next()
		}
		if _, err := uuid.FromString(paramValue); err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.Next()
	}
}

// RequireBase64URL rejects path parameters that are not unpadded base64url
// or that decode to fewer than minBytes bytes. Rejections answer 404 with the
// given JSON body so they are indistinguishable from an unknown value.
func RequireBase64URL(param string, minBytes int, notFound func(c *fiber.Ctx) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := base64.RawURLEncoding.DecodeString(c.Params(param))
		if err != nil || len(raw) < minBytes {
			if notFound != nil {
				return notFound(c)
			}
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.Next()
	}
}
