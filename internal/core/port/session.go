package port

import (
	"context"
	"time"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the server-side half of a browser session. UserID zero means
// the visitor is anonymous.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	CSRFToken string    `json:"csrf_token"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Authenticated() bool {
	return s.UserID > 0
}

type SessionStore interface {
	Create(ctx context.Context, userID int) (Session, error)
	// Get returns domain.ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, id string) error
}
