package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("secret"))
	user := app.Group("/", UserContextMiddleware())
	user.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})
	user.Get("/s/admin/ping", RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestMiddlewareChain(t *testing.T) {
	tests := []struct {
		Desc    string
		Path    string
		Headers map[string]string
		Status  int
		Body    string
	}{
		{"no token", "/whoami", nil, fiber.StatusUnauthorized, ""},
		{"wrong token", "/whoami", map[string]string{"Authorization": "Bearer nope"}, fiber.StatusUnauthorized, ""},
		{"no user", "/whoami", map[string]string{"Authorization": "Bearer secret"}, fiber.StatusUnauthorized, ""},
		{"bearer token", "/whoami", map[string]string{"Authorization": "Bearer secret", "X-User-ID": "u1"}, fiber.StatusOK, "u1"},
		{"raw token", "/whoami", map[string]string{"Authorization": "secret", "X-User-ID": "u1"}, fiber.StatusOK, "u1"},
		{"admin without role", "/s/admin/ping", map[string]string{"Authorization": "secret", "X-User-ID": "u1", "X-User-Roles": "student"}, fiber.StatusForbidden, ""},
		{"admin with role", "/s/admin/ping", map[string]string{"Authorization": "secret", "X-User-ID": "u1", "X-User-Roles": "student, admin"}, fiber.StatusOK, "pong"},
	}

	app := newApp()
	for _, tc := range tests {
		t.Run(tc.Desc, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.Path, nil)
			for k, v := range tc.Headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.Status, resp.StatusCode)
			if tc.Body != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tc.Body, string(body))
			}
		})
	}
}
