package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"schoolku_backend/internals/configs"
	helper "schoolku_backend/internals/helpers"
)

// ApplyProxyConfig makes c.IP() read X-Forwarded-For only when the socket
// peer is one of trusted. With none configured the header is ignored.
func ApplyProxyConfig(cfg *fiber.Config, trusted []string) {
	cfg.ProxyHeader = fiber.HeaderXForwardedFor
	cfg.EnableTrustedProxyCheck = true
	cfg.TrustedProxies = trusted
}

func tooMany(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return helper.JsonError(c, fiber.StatusTooManyRequests, message)
	}
}

func byIP(c *fiber.Ctx) string { return c.IP() }

// Global limiter for regular endpoints.
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          100,
		Expiration:   1 * time.Minute,
		KeyGenerator: byIP,
		LimitReached: tooMany("❌ Too many requests. Please try again later."),
	})
}

func LoginRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          5,
		Expiration:   1 * time.Minute,
		KeyGenerator: byIP,
		LimitReached: tooMany("❌ Too many sign-in attempts. Please wait a moment."),
	})
}

func RegisterRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          3,
		Expiration:   5 * time.Minute,
		KeyGenerator: byIP,
		LimitReached: tooMany("❌ Too many sign-up attempts. Please wait a few minutes."),
	})
}

// KioskRateLimiter slows PIN guessing: 4 digits is a small space.
// Keyed by IP and school so one kiosk cannot lock out another.
func KioskRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        configs.GetEnvInt("KIOSK_PIN_LIMIT", 10),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + c.Params("school_id")
		},
		LimitReached: tooMany("❌ Too many PIN attempts. Please wait a minute."),
	})
}

// KioskSchoolRateLimiter caps PIN attempts per school whatever the source
// address, so rotating IPs cannot walk the whole PIN space.
func KioskSchoolRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        configs.GetEnvInt("KIOSK_SCHOOL_LIMIT", 120),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "school|" + c.Params("school_id")
		},
		LimitReached: tooMany("❌ Too many PIN attempts for this school. Please wait a minute."),
	})
}
