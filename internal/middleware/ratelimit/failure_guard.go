package ratelimit

import (
	"time"

	"github.com/bluele/gcache"
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/imagehost/internal/pkg/log"
	"golang.org/x/time/rate"
)

// FailureGuardConfig bounds how many failed lookups one client may make
type FailureGuardConfig struct {
	// MaxFailures is the burst of failures allowed before blocking
	MaxFailures int
	// Window is the time to fully refill MaxFailures
	Window time.Duration
	// FailureStatus is the response status counted as a failure
	FailureStatus int
	// MaxClients bounds the number of tracked clients
	MaxClients int
	// KeyGenerator identifies a client. Defaults to c.IP().
	KeyGenerator func(c *fiber.Ctx) string
}

// NewFailureGuard blocks clients that produce too many FailureStatus responses.
// Successful requests cost nothing, so token guessing is throttled without
// limiting legitimate link holders.
func NewFailureGuard(cfg FailureGuardConfig) fiber.Handler {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 20
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Minute
	}
	if cfg.FailureStatus == 0 {
		cfg.FailureStatus = fiber.StatusNotFound
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = func(c *fiber.Ctx) string { return c.IP() }
	}

	every := rate.Every(cfg.Window / time.Duration(cfg.MaxFailures))
	clients := gcache.New(cfg.MaxClients).
		LRU().
		Expiration(cfg.Window).
		LoaderFunc(func(interface{}) (interface{}, error) {
			return rate.NewLimiter(every, cfg.MaxFailures), nil
		}).
		Build()

	return func(c *fiber.Ctx) error {
		key := cfg.KeyGenerator(c)
		value, err := clients.Get(key)
		if err != nil {
			return c.Next()
		}
		limiter := value.(*rate.Limiter)

		if limiter.Tokens() < 1 {
			log.WarnWithContext(c.UserContext(), "[RateLimit] failure budget exhausted for %s on %s", key, c.Path())
			return TooManyRequests(c, "Too many failed lookups. Please try again later.", cfg.Window)
		}

		err = c.Next()
		if c.Response().StatusCode() == cfg.FailureStatus {
			limiter.Allow()
		}
		return err
	}
}
