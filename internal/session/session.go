// Package session keeps authenticated sessions server-side and hands the
// client only a signed, opaque id.
package session

import (
	"context"
	"time"

	"task_tracker/internal/domain"
)

type Session struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

func (s *Session) IsManager() bool {
	return s.Role == domain.RoleManager
}

// Store persists session records. Get returns (nil, nil) for unknown or
// expired ids.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session loaded for the request, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
