// Package session keeps browser sessions on the server side and signs the
// identifier handed to the browser.
package session

import (
	"time"

	"github.com/google/uuid"

	"todoweb/internal/core/port"
	"todoweb/internal/core/util"
)

const csrfTokenBytes = 32

func newSession(userID int, ttl time.Duration, now time.Time) (port.Session, error) {
	token, err := util.RandomToken(csrfTokenBytes)

	if err != nil {
		return port.Session{}, err
	}

	now = now.UTC()

	return port.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CSRFToken: token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func clone(s port.Session) port.Session {
	if s.Flashes != nil {
		s.Flashes = append([]port.Flash(nil), s.Flashes...)
	}

	return s
}
