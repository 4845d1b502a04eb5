package middlewares

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp() *fiber.App {
	app := fiber.New(fiber.Config{ProxyHeader: fiber.HeaderXForwardedFor})
	ok := func(ctx *fiber.Ctx) error { return ctx.SendString("ok") }
	app.Post("/login", RateLimit(5, time.Minute), ok)
	app.Post("/forgot", RateLimit(3, time.Minute), ok)
	return app
}

func postFrom(t *testing.T, app *fiber.App, path string, ip string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, nil)
	req.Header.Set(fiber.HeaderXForwardedFor, ip)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRateLimitBlocksAfterMax(t *testing.T) {
	app := newLimitedApp()

	for i := 0; i < 5; i++ {
		assert.Equal(t, fiber.StatusOK, postFrom(t, app, "/login", "203.0.113.1"))
	}
	assert.Equal(t, fiber.StatusTooManyRequests, postFrom(t, app, "/login", "203.0.113.1"))
}

func TestRateLimitKeyedByIP(t *testing.T) {
	app := newLimitedApp()

	for i := 0; i < 5; i++ {
		postFrom(t, app, "/login", "203.0.113.1")
	}
	require.Equal(t, fiber.StatusTooManyRequests, postFrom(t, app, "/login", "203.0.113.1"))

	assert.Equal(t, fiber.StatusOK, postFrom(t, app, "/login", "203.0.113.2"),
		"one client's exhausted window must not block another")
}

func TestRateLimitPerEndpointWindows(t *testing.T) {
	app := newLimitedApp()

	for i := 0; i < 3; i++ {
		postFrom(t, app, "/forgot", "203.0.113.1")
	}
	require.Equal(t, fiber.StatusTooManyRequests, postFrom(t, app, "/forgot", "203.0.113.1"))

	assert.Equal(t, fiber.StatusOK, postFrom(t, app, "/login", "203.0.113.1"),
		"windows are per endpoint class, not shared")
}
