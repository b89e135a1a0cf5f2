package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/utils"
)

const (
	DefaultCookieName = "sid"
	DefaultTTL        = 24 * time.Hour

	idLength = 32
)

type Options struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	Secure     bool
}

// Manager issues, loads and destroys sessions and owns the session cookie.
type Manager struct {
	store      Store
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	m := &Manager{
		store:      store,
		secret:     []byte(opts.Secret),
		cookieName: opts.CookieName,
		ttl:        opts.TTL,
		secure:     opts.Secure,
		now:        time.Now,
	}
	if m.cookieName == "" {
		m.cookieName = DefaultCookieName
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	return m
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// Load resolves the request cookie to a live session. Missing, tampered or
// expired cookies yield (nil, nil); only store failures are errors.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	id, err := parseID(c.Value, m.secret)
	if err != nil {
		return nil, nil
	}
	s, err := m.store.Get(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// Establish regenerates the session for user: the previous record is removed
// before a fresh id is written, so the old cookie never resolves again.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, previous *Session, user *domain.User) (*Session, error) {
	if previous != nil {
		if err := m.store.Delete(ctx, previous.ID); err != nil {
			return nil, fmt.Errorf("drop previous session: %w", err)
		}
	}
	id, err := utils.GenerateRandomString(idLength)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        id,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: m.now().Add(m.ttl),
	}
	token, err := signID(s.ID, s.ExpiresAt, m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	http.SetCookie(w, m.cookie(token, int(m.ttl.Seconds())))
	return s, nil
}

// Destroy removes the session record, if any, and always clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	http.SetCookie(w, m.cookie("", -1))
	if s == nil {
		return nil
	}
	return m.store.Delete(ctx, s.ID)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
