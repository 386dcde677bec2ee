package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/spec-kit/helpdesk/internal/config"
)

const (
	sessionUserKey  = "user_id"
	sessionFlashKey = "flashes"
)

// Flash categories used by the HTML surface.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
	FlashInfo    = "info"
)

// Flash is a one-shot message rendered on the next page.
type Flash struct {
	Category string
	Message  string
}

// SessionManager stores the signed-in user and pending flashes in the
// cookie session.
type SessionManager struct {
	store *session.Store
}

// NewSessionManager builds the session store. A nil storage keeps sessions
// in process memory.
func NewSessionManager(cfg config.SessionConfig, storage fiber.Storage) *SessionManager {
	store := session.New(session.Config{
		Storage:        storage,
		Expiration:     cfg.TTL(),
		KeyLookup:      "cookie:" + cfg.CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.SecureCookies,
		CookieSameSite: "Lax",
	})
	store.RegisterType([]Flash{})
	return &SessionManager{store: store}
}

// Store exposes the underlying store for middleware that shares it.
func (m *SessionManager) Store() *session.Store {
	return m.store
}

// Login binds userID to a freshly regenerated session and queues flashes
// on it. Nothing else may touch the session for the rest of the request:
// the store would still resolve the pre-regeneration id from the cookie.
func (m *SessionManager) Login(c *fiber.Ctx, userID string, flashes ...Flash) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserKey, userID)
	if len(flashes) > 0 {
		pending, _ := sess.Get(sessionFlashKey).([]Flash)
		sess.Set(sessionFlashKey, append(pending, flashes...))
	}
	return sess.Save()
}

// Logout destroys the session.
func (m *SessionManager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// UserID returns the signed-in user id, or "" for anonymous sessions.
func (m *SessionManager) UserID(c *fiber.Ctx) (string, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return "", err
	}
	id, _ := sess.Get(sessionUserKey).(string)
	return id, nil
}

// AddFlash queues a message for the next rendered page.
func (m *SessionManager) AddFlash(c *fiber.Ctx, category, message string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	flashes, _ := sess.Get(sessionFlashKey).([]Flash)
	sess.Set(sessionFlashKey, append(flashes, Flash{Category: category, Message: message}))
	return sess.Save()
}

// PopFlashes returns and clears queued messages.
func (m *SessionManager) PopFlashes(c *fiber.Ctx) ([]Flash, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, err
	}
	flashes, _ := sess.Get(sessionFlashKey).([]Flash)
	if len(flashes) == 0 {
		return nil, nil
	}
	sess.Delete(sessionFlashKey)
	return flashes, sess.Save()
}
