package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medisync/internal/database"
)

func newSessionApp(m *Manager, p Principal) *fiber.App {
	app := fiber.New()
	app.Post("/establish", func(c *fiber.Ctx) error {
		return m.Establish(c, p)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		got, err := m.Authenticate(c)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(got.Username)
	})
	app.Post("/destroy", func(c *fiber.Ctx) error {
		return m.Destroy(c)
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func testPrincipal() Principal {
	return Principal{
		IdentityID:   uuid.New(),
		CredentialID: uuid.New(),
		Username:     "alice",
		Role:         database.RolePatient,
	}
}

func TestEstablishAuthenticateRoundTrip(t *testing.T) {
	m := NewManager(nil)
	app := newSessionApp(m, testPrincipal())

	resp := do(t, app, fiber.MethodPost, "/establish")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	resp = do(t, app, fiber.MethodGet, "/whoami", cookies...)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthenticateWithoutSession(t *testing.T) {
	m := NewManager(nil)
	app := newSessionApp(m, testPrincipal())

	resp := do(t, app, fiber.MethodGet, "/whoami")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestDestroyIdempotent(t *testing.T) {
	m := NewManager(nil)
	app := newSessionApp(m, testPrincipal())

	// Destroying when no session exists is a no-op.
	resp := do(t, app, fiber.MethodPost, "/destroy")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, fiber.MethodPost, "/establish")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()

	// Destroying twice with the same cookie succeeds both times.
	resp = do(t, app, fiber.MethodPost, "/destroy", cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = do(t, app, fiber.MethodPost, "/destroy", cookies...)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = do(t, app, fiber.MethodGet, "/whoami", cookies...)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
