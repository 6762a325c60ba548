package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"medisync/internal/database"
)

var ErrUnauthenticated = errors.New("no authenticated session")

// Principal is the authenticated caller attached to a session. It is
// returned as an explicit value and handed to handlers through request
// locals, never through process-global state.
type Principal struct {
	IdentityID   uuid.UUID
	CredentialID uuid.UUID
	Username     string
	Role         database.Role
}

const (
	sessionTTL = 24 * time.Hour
	cookieName = "medisync_session"
)

type Manager struct {
	store *fibersession.Store
}

// NewManager builds a cookie-carried session store on the given
// backend. A nil storage falls back to fiber's in-process memory store,
// which is what the tests use; production wires the shared postgres
// backend.
func NewManager(storage fiber.Storage) *Manager {
	store := fibersession.New(fibersession.Config{
		Storage:        storage,
		Expiration:     sessionTTL,
		KeyLookup:      "cookie:" + cookieName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	return &Manager{store: store}
}

func (m *Manager) Establish(c *fiber.Ctx, p Principal) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}

	sess.Set("identity_id", p.IdentityID.String())
	sess.Set("credential_id", p.CredentialID.String())
	sess.Set("username", p.Username)
	sess.Set("role", string(p.Role))

	return sess.Save()
}

func (m *Manager) Authenticate(c *fiber.Ctx) (Principal, error) {
	var p Principal

	sess, err := m.store.Get(c)
	if err != nil {
		return p, err
	}

	credRaw, _ := sess.Get("credential_id").(string)
	if credRaw == "" {
		return p, ErrUnauthenticated
	}
	credentialID, err := uuid.Parse(credRaw)
	if err != nil {
		return p, ErrUnauthenticated
	}

	identRaw, _ := sess.Get("identity_id").(string)
	identityID, err := uuid.Parse(identRaw)
	if err != nil {
		return p, ErrUnauthenticated
	}

	username, _ := sess.Get("username").(string)
	role, _ := sess.Get("role").(string)

	p = Principal{
		IdentityID:   identityID,
		CredentialID: credentialID,
		Username:     username,
		Role:         database.Role(role),
	}
	return p, nil
}

// Destroy invalidates the caller's session. Destroying an absent
// session is a no-op, so the call is idempotent.
func (m *Manager) Destroy(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
