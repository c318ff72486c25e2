package middlewares

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKioskLimitedApp(t *testing.T, trusted []string) *fiber.App {
	t.Helper()
	cfg := fiber.Config{DisableStartupMessage: true}
	ApplyProxyConfig(&cfg, trusted)
	app := fiber.New(cfg)
	kiosk := app.Group("/k/:school_id", KioskRateLimiter(), KioskSchoolRateLimiter())
	kiosk.Post("/sign-in", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func kioskAttempt(t *testing.T, app *fiber.App, school, forwardedFor string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/k/"+school+"/sign-in", nil)
	if forwardedFor != "" {
		req.Header.Set(fiber.HeaderXForwardedFor, forwardedFor)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestKioskLimiterIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	t.Setenv("KIOSK_PIN_LIMIT", "10")
	t.Setenv("KIOSK_SCHOOL_LIMIT", "1000")
	app := newKioskLimitedApp(t, nil)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 200, kioskAttempt(t, app, "s1", fmt.Sprintf("203.0.113.%d", i)), "attempt %d", i)
	}
	assert.Equal(t, 429, kioskAttempt(t, app, "s1", "198.51.100.77"),
		"a fresh X-Forwarded-For value must not reset the per-IP budget")

	// the budget is per school
	assert.Equal(t, 200, kioskAttempt(t, app, "s2", ""))
}

func TestKioskSchoolLimiterCapsRotatingAddresses(t *testing.T) {
	t.Setenv("KIOSK_PIN_LIMIT", "10")
	t.Setenv("KIOSK_SCHOOL_LIMIT", "5")
	// every peer is trusted, so each request looks like a new client
	app := newKioskLimitedApp(t, []string{"0.0.0.0/0"})

	tests := []struct {
		name   string
		school string
		ip     string
		want   int
	}{
		{name: "first", school: "s1", ip: "203.0.113.1", want: 200},
		{name: "second", school: "s1", ip: "203.0.113.2", want: 200},
		{name: "third", school: "s1", ip: "203.0.113.3", want: 200},
		{name: "fourth", school: "s1", ip: "203.0.113.4", want: 200},
		{name: "fifth", school: "s1", ip: "203.0.113.5", want: 200},
		{name: "over school cap", school: "s1", ip: "203.0.113.6", want: 429},
		{name: "other school unaffected", school: "s2", ip: "203.0.113.7", want: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kioskAttempt(t, app, tt.school, tt.ip))
		})
	}
}
