package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"stockledger/internal/metrics"
	"stockledger/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorBody(t *testing.T, app *fiber.App, method, path, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Error string `json:"error"`
	}
	if resp.StatusCode != fiber.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body.Error
}

func TestRequireAuth(t *testing.T) {
	tokens := jwt.NewManager("secret", "stockledger")
	valid, err := tokens.GenerateToken("u-1", "a@b.test", "Alice", []string{"product:view"}, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", RequireAuth(tokens), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalUserID).(string))
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing", "", fiber.StatusUnauthorized, "Missing authorization token"},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>"},
		{"bad token", "Bearer nope", fiber.StatusUnauthorized, "Invalid or expired token"},
		{"valid", "Bearer " + valid, fiber.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, fiber.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorBody(t, app, "GET", "/me", tt.header)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantError, msg)
		})
	}
}

func TestRequirePrivilege(t *testing.T) {
	withPrivileges := func(privs interface{}) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if privs != nil {
				c.Locals(LocalUserPrivileges, privs)
			}
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	app := fiber.New()
	app.Get("/one", withPrivileges([]string{"a", "b"}), RequirePrivilege("b"), ok)
	app.Get("/one-missing", withPrivileges([]string{"a"}), RequirePrivilege("b"), ok)
	app.Get("/none", withPrivileges(nil), RequirePrivilege("b"), ok)
	app.Get("/any", withPrivileges([]string{"c"}), RequireAnyPrivilege("b", "c"), ok)
	app.Get("/any-missing", withPrivileges([]string{"a"}), RequireAnyPrivilege("b", "c"), ok)

	tests := map[string]int{
		"/one":         fiber.StatusOK,
		"/one-missing": fiber.StatusForbidden,
		"/none":        fiber.StatusForbidden,
		"/any":         fiber.StatusOK,
		"/any-missing": fiber.StatusForbidden,
	}
	for path, want := range tests {
		status, _ := errorBody(t, app, "GET", path, "")
		assert.Equal(t, want, status, path)
	}
}

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	m := metrics.NewHTTP(prometheus.NewRegistry())

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Metrics(m))
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendString(c.Params("id")) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	for _, path := range []string{"/items/1", "/items/2", "/boom"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/boom", "418")))
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.ErrBadRequest })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("db exploded") })

	status, msg := errorBody(t, app, "GET", "/fiber", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Bad Request", msg)

	status, msg = errorBody(t, app, "GET", "/plain", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal Server Error", msg, "internal details stay in the log")

	status, _ = errorBody(t, app, "GET", "/missing", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
