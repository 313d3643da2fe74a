package authjwt

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/qolzam/imagehost/internal/pkg/log"
	"github.com/qolzam/imagehost/internal/types"
)

// Config defines the config for the JWT middleware.
type Config struct {
	// The EC public key for validating ES256 tokens.
	PublicKey string
	// The claim key where the UserContext is stored.
	ClaimKey string
	// The context key to store the UserContext.
	UserCtxName string
}

var (
	errMissingClaim = errors.New("invalid token claim format")
	errMissingUID   = errors.New("missing or invalid uid in claim")
)

// New creates a new middleware handler.
func New(cfg Config) fiber.Handler {
	// Parse the key once on startup.
	ecPublicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.PublicKey))
	if err != nil {
		panic(fmt.Sprintf("failed to parse EC public key: %v", err))
	}
	if cfg.ClaimKey == "" {
		cfg.ClaimKey = types.ClaimKey
	}
	if cfg.UserCtxName == "" {
		cfg.UserCtxName = types.UserCtxName
	}

	return func(c *fiber.Ctx) error {
		tokenString := extractToken(c)
		if tokenString == "" {
			return unauthorized(c, "Missing or invalid JWT", "")
		}

		userCtx, err := validate(tokenString, ecPublicKey, cfg.ClaimKey)
		if err != nil {
			log.Warn("[authjwt] rejected token from %s: %v", c.IP(), err)
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				return unauthorized(c, "Token has expired", "")
			case errors.Is(err, errMissingClaim):
				return unauthorized(c, "Invalid token claim format", "")
			case errors.Is(err, errMissingUID):
				return unauthorized(c, "Invalid user context in token", err.Error())
			default:
				return unauthorized(c, "Invalid token", err.Error())
			}
		}

		c.Locals(cfg.UserCtxName, userCtx)
		return c.Next()
	}
}

// ValidateToken validates a JWT token and returns the UserContext if valid.
// It does not write to the response.
func ValidateToken(tokenString string, publicKey string, claimKey string) (types.UserContext, error) {
	ecPublicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKey))
	if err != nil {
		return types.UserContext{}, fmt.Errorf("failed to parse EC public key: %w", err)
	}
	return validate(tokenString, ecPublicKey, claimKey)
}

// extractToken prefers the Authorization header and falls back to the access_token cookie
func extractToken(c *fiber.Ctx) string {
	authHeader := c.Get(types.HeaderAuthorization)
	if strings.HasPrefix(authHeader, types.BearerPrefix) {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 {
			return parts[1]
		}
	}
	return c.Cookies(types.AccessTokenCookie)
}

func validate(tokenString string, key *ecdsa.PublicKey, claimKey string) (types.UserContext, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// CRITICAL: Enforce the expected signing algorithm.
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return types.UserContext{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return types.UserContext{}, errors.New("invalid token")
	}

	claimData, ok := claims[claimKey].(map[string]interface{})
	if !ok {
		return types.UserContext{}, errMissingClaim
	}
	return mapToUserContext(claimData)
}

// mapToUserContext converts claim data to UserContext
func mapToUserContext(claimData map[string]interface{}) (types.UserContext, error) {
	var userCtx types.UserContext

	userIDStr, ok := claimData[types.HeaderUID].(string)
	if !ok {
		return userCtx, errMissingUID
	}
	userID, err := uuid.FromString(userIDStr)
	if err != nil {
		return userCtx, fmt.Errorf("%w: %v", errMissingUID, err)
	}
	userCtx.UserID = userID

	if username, ok := claimData["username"].(string); ok {
		userCtx.Username = username
	}
	if displayName, ok := claimData["displayName"].(string); ok {
		userCtx.DisplayName = displayName
	}
	if systemRole, ok := claimData["role"].(string); ok {
		userCtx.SystemRole = systemRole
	}
	if createdDate, ok := claimData["createdDate"].(float64); ok {
		userCtx.CreatedDate = int64(createdDate)
	}

	return userCtx, nil
}

func unauthorized(c *fiber.Ctx, message, details string) error {
	body := fiber.Map{
		"code":    "UNAUTHORIZED",
		"message": message,
	}
	if details != "" {
		body["details"] = details
	}
	return c.Status(fiber.StatusUnauthorized).JSON(body)
}
