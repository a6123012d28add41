package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "todo_session"

var ErrInvalidCookie = errors.New("invalid session cookie")

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs session identifiers into the cookie value so a client
// cannot mint one.
type CookieCodec struct {
	Secret []byte
}

func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{Secret: []byte(secret)}
}

func (c *CookieCodec) Encode(sessionID string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	return token.SignedString(c.Secret)
}

func (c *CookieCodec) Decode(value string) (string, error) {
	var parsed claims

	token, err := jwt.ParseWithClaims(value, &parsed, func(*jwt.Token) (any, error) {
		return c.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}

	if !token.Valid || parsed.SessionID == "" {
		return "", ErrInvalidCookie
	}

	return parsed.SessionID, nil
}
