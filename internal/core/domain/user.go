package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"todoweb/internal/core/security"
)

const (
	UsernameMinLength = security.UsernameMinLength
	UsernameMaxLength = security.UsernameMaxLength
)

type User struct {
	ID           int
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser validates the username and builds a user that is not yet
// persisted. The hash must come from util.GenerateEncrypt.
func NewUser(username, passwordHash string, now time.Time) (User, error) {
	username, err := ValidateUsername(username)

	if err != nil {
		return User{}, err
	}

	if passwordHash == "" {
		return User{}, NewFieldError("password", "Password is required")
	}

	return User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
	}, nil
}

func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return "", NewFieldError("username", "Username is required")
	}

	length := utf8.RuneCountInString(username)

	if length < UsernameMinLength {
		return "", NewFieldError("username", "Username must be at least 3 characters long")
	}

	if length > UsernameMaxLength {
		return "", NewFieldError("username", "Username must be no more than 80 characters long")
	}

	if !security.ValidUsernameFormat(username) {
		return "", NewFieldError("username", "Username can only contain letters, numbers, and underscores")
	}

	return username, nil
}

func (u *User) Owns(ownerID int) bool {
	return u.ID != 0 && u.ID == ownerID
}
