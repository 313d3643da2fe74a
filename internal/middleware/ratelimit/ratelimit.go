// Package ratelimit provides rate limiting middleware for the image endpoints
package ratelimit

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/qolzam/imagehost/internal/pkg/log"
	platformconfig "github.com/qolzam/imagehost/internal/platform/config"
	"github.com/qolzam/imagehost/internal/types"
)

// Limit is one fixed window
type Limit struct {
	Enabled        bool
	MaxRequests    int
	WindowDuration time.Duration
}

// EndpointLimits defines rate limiting configuration for specific endpoints
type EndpointLimits struct {
	Upload        Limit
	TempLinkIssue Limit
	BinaryFetch   Limit
}

// DefaultEndpointLimits returns the default rate limits
func DefaultEndpointLimits() EndpointLimits {
	return EndpointLimits{
		Upload:        Limit{Enabled: true, MaxRequests: 30, WindowDuration: time.Minute},
		TempLinkIssue: Limit{Enabled: true, MaxRequests: 60, WindowDuration: time.Minute},
		BinaryFetch:   Limit{Enabled: true, MaxRequests: 300, WindowDuration: time.Minute},
	}
}

// LimitsFromConfig maps the platform rate limit section onto EndpointLimits
func LimitsFromConfig(cfg platformconfig.RateLimitsConfig) EndpointLimits {
	conv := func(rl platformconfig.RateLimitConfig) Limit {
		return Limit{Enabled: rl.Enabled, MaxRequests: rl.Max, WindowDuration: rl.Duration}
	}
	return EndpointLimits{
		Upload:        conv(cfg.Upload),
		TempLinkIssue: conv(cfg.TempLinkIssue),
		BinaryFetch:   conv(cfg.BinaryFetch),
	}
}

// EndpointType represents different endpoints for rate limiting
type EndpointType int

const (
	EndpointUpload EndpointType = iota
	EndpointTempLinkIssue
	EndpointBinaryFetch
)

// Config holds the configuration for rate limiting middleware
type Config struct {
	// Endpoint type to determine which limits to apply
	EndpointType EndpointType

	// Custom limits (optional - uses defaults if not provided)
	Limits *EndpointLimits

	// Next defines a function to skip this middleware when returned true
	Next func(c *fiber.Ctx) bool

	// Custom key generator (optional - uses default IP-based if not provided)
	KeyGenerator func(c *fiber.Ctx) string

	// LimitReached defines the response when rate limit is exceeded
	LimitReached func(c *fiber.Ctx) error
}

// configDefault sets default configuration values
func configDefault(config Config) Config {
	if config.Limits == nil {
		limits := DefaultEndpointLimits()
		config.Limits = &limits
	}

	// Rate limit by IP + endpoint path
	if config.KeyGenerator == nil {
		config.KeyGenerator = func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		}
	}

	if config.LimitReached == nil {
		limit := config.Limits.For(config.EndpointType)
		endpointName := config.EndpointType.String()
		config.LimitReached = func(c *fiber.Ctx) error {
			log.WarnWithContext(c.UserContext(), "[RateLimit] Rate limit exceeded for %s from IP: %s", endpointName, c.IP())
			return TooManyRequests(c, fmt.Sprintf("Too many %s requests. Please try again later.", endpointName), limit.WindowDuration)
		}
	}

	return config
}

// TooManyRequests writes the shared 429 body
func TooManyRequests(c *fiber.Ctx, message string, retryAfter time.Duration) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":      "Rate limit exceeded",
		"code":       "RATE_LIMIT_EXCEEDED",
		"message":    message,
		"retryAfter": int(retryAfter.Seconds()),
	})
}

// String returns the human-readable endpoint name for logging
func (e EndpointType) String() string {
	switch e {
	case EndpointUpload:
		return "upload"
	case EndpointTempLinkIssue:
		return "temporary link"
	case EndpointBinaryFetch:
		return "binary fetch"
	default:
		return "unknown"
	}
}

// For returns the limit for the endpoint type
func (l *EndpointLimits) For(endpointType EndpointType) Limit {
	var limit Limit
	switch endpointType {
	case EndpointUpload:
		limit = l.Upload
	case EndpointTempLinkIssue:
		limit = l.TempLinkIssue
	case EndpointBinaryFetch:
		limit = l.BinaryFetch
	}
	if limit.MaxRequests <= 0 {
		limit.MaxRequests = 5
	}
	if limit.WindowDuration <= 0 {
		limit.WindowDuration = 15 * time.Minute
	}
	return limit
}

// New creates a new rate limiting middleware handler. A disabled limit
// yields a pass-through handler.
func New(config Config) fiber.Handler {
	cfg := configDefault(config)
	limit := cfg.Limits.For(cfg.EndpointType)

	if !limit.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return limiter.New(limiter.Config{
		Max:          limit.MaxRequests,
		Expiration:   limit.WindowDuration,
		KeyGenerator: cfg.KeyGenerator,
		LimitReached: cfg.LimitReached,
		Next:         cfg.Next,
	})
}

// NewUploadLimiter limits uploads per authenticated user, falling back to IP
func NewUploadLimiter(limits *EndpointLimits) fiber.Handler {
	return New(Config{
		EndpointType: EndpointUpload,
		Limits:       limits,
		KeyGenerator: userOrIPKey("upload"),
	})
}

// NewTempLinkIssueLimiter limits temporary link issuance per authenticated user
func NewTempLinkIssueLimiter(limits *EndpointLimits) fiber.Handler {
	return New(Config{
		EndpointType: EndpointTempLinkIssue,
		Limits:       limits,
		KeyGenerator: userOrIPKey("templink"),
	})
}

// NewBinaryFetchLimiter limits anonymous binary fetches per IP
func NewBinaryFetchLimiter(limits *EndpointLimits) fiber.Handler {
	return New(Config{
		EndpointType: EndpointBinaryFetch,
		Limits:       limits,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "binary:" + c.IP()
		},
	})
}

func userOrIPKey(prefix string) func(c *fiber.Ctx) string {
	return func(c *fiber.Ctx) string {
		if user, ok := c.Locals(types.UserCtxName).(types.UserContext); ok {
			return fmt.Sprintf("%s:user:%s", prefix, user.UserID)
		}
		return fmt.Sprintf("%s:ip:%s", prefix, c.IP())
	}
}
