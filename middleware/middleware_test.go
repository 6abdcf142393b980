package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter/models"
	"newsletter/store"
	"newsletter/utils"
)

type fakeAdmins map[uint]*models.AdminUser

func (f fakeAdmins) FindAdminByID(_ context.Context, id uint) (*models.AdminUser, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func protectedApp(secret string) *fiber.App {
	app := fiber.New()
	admins := fakeAdmins{1: {ID: 1, Username: "root"}}
	app.Get("/admin/me", AdminProtected(secret, admins), func(c *fiber.Ctx) error {
		return c.SendString(CurrentAdmin(c).Username)
	})
	return app
}

func TestAdminProtected(t *testing.T) {
	app := protectedApp("secret")
	good, _, err := utils.GenerateAdminToken(1, "root", "secret", time.Hour)
	require.NoError(t, err)
	ghost, _, err := utils.GenerateAdminToken(2, "ghost", "secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing", "", "", fiber.StatusUnauthorized},
		{"bad format", "Token " + good, "", fiber.StatusUnauthorized},
		{"bad token", "Bearer nope", "", fiber.StatusUnauthorized},
		{"unknown admin", "Bearer " + ghost, "", fiber.StatusUnauthorized},
		{"header", "Bearer " + good, "", fiber.StatusOK},
		{"cookie", "", good, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "admin_token", Value: tt.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestLoginRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimiter(2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, fiber.StatusTooManyRequests}, codes)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSForOrigins([]string{"https://site.example"})))
	app.Post("/api/subscribe", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/subscribe", nil)
	req.Header.Set("Origin", "https://site.example")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://site.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "3600", resp.Header.Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodPost, "/api/subscribe", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
