package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/socialsync-api/configs"
	"github.com/maheshrc27/socialsync-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newApp() *fiber.App {
	cfg := &config.Config{SecretKey: testSecret, CookieName: "session"}
	app := fiber.New()
	app.Use(NewAuthMiddleware(cfg).AuthMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := utils.GenerateToken(testSecret, "42", time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("other-secret", "42", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		status  int
		body    string
	}{
		{
			name:    "cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: valid}) },
			status:  http.StatusOK,
			body:    "42",
		},
		{
			name:    "bearer",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			status:  http.StatusOK,
			body:    "42",
		},
		{
			name:    "missing",
			prepare: func(r *http.Request) {},
			status:  http.StatusUnauthorized,
		},
		{
			name:    "wrong signature",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+foreign) },
			status:  http.StatusUnauthorized,
		},
		{
			name:    "garbage cookie",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "nope"}) },
			status:  http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tt.prepare(req)

			resp, err := newApp().Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.body, string(body))
			}
		})
	}
}
