package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tenantchat/internal/domain/models"
)

// CookieName is the browser session cookie.
const CookieName = "tenantchat_session"

// Manager binds WebStore sessions to an HTTP cookie.
type Manager struct {
	store  WebStore
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager creates a cookie session manager.
func NewManager(store WebStore, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, ttl: ttl, secure: secure, now: time.Now}
}

// Store exposes the backing store (used for token nonces).
func (m *Manager) Store() WebStore {
	return m.store
}

// Start creates a new session for the identity and sets its cookie.
// Any previous session carried by r is replaced.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *models.WebSession) error {
	if old, err := r.Cookie(CookieName); err == nil && old.Value != "" {
		_ = m.store.Delete(ctx, old.Value)
	}

	sess.ID = uuid.NewString()
	sess.CreatedAt = m.now()
	if err := m.store.Create(ctx, sess); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load returns the session referenced by the request cookie, or nil.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*models.WebSession, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return nil, nil
	}
	return m.store.Get(ctx, c.Value)
}

// Destroy removes the session and expires the cookie. Returns the removed session, if any.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.WebSession, error) {
	sess, err := m.Load(ctx, r)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			return nil, err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}
