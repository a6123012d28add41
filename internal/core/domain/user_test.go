package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todoweb/internal/core/security"
)

func TestNewUser(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("BRT", -3*3600))

	t.Run("should trim username and store UTC timestamp", func(t *testing.T) {
		user, err := NewUser("  alice_01 ", "hash", now)

		assert.NoError(t, err)
		assert.Equal(t, "alice_01", user.Username)
		assert.Equal(t, time.UTC, user.CreatedAt.Location())
		assert.True(t, user.CreatedAt.Equal(now))
	})

	t.Run("should reject usernames outside 3..80", func(t *testing.T) {
		_, err := NewUser("ab", "hash", now)
		assert.True(t, errors.Is(err, ErrInvalidFormat))

		_, err = NewUser(strings.Repeat("a", 81), "hash", now)
		assert.True(t, errors.Is(err, ErrValidation))

		_, err = NewUser(strings.Repeat("a", 80), "hash", now)
		assert.NoError(t, err)
	})

	t.Run("should reject characters other than letters digits and underscore", func(t *testing.T) {
		for _, name := range []string{"bob smith", "bob-smith", "bób", "<script>"} {
			_, err := NewUser(name, "hash", now)
			assert.Error(t, err, name)
		}
	})

	t.Run("should require a password hash", func(t *testing.T) {
		_, err := NewUser("alice", "", now)

		var fe *FieldError
		assert.True(t, errors.As(err, &fe))
		assert.Equal(t, "password", fe.Field)
	})
}

func TestValidateUsername_MatchesSecurityRule(t *testing.T) {
	names := []string{"", "ab", "abc", "Alice_99", "bob smith", "bob-smith", "ñandú", "a.b.c", "日本語ユーザー", strings.Repeat("z", 80), strings.Repeat("z", 81)}

	for _, name := range names {
		_, err := ValidateUsername(name)
		assert.Equal(t, security.ValidUsernameFormat(name), err == nil, name)
	}
}

func TestUser_Owns(t *testing.T) {
	user := User{ID: 7}

	assert.True(t, user.Owns(7))
	assert.False(t, user.Owns(8))
	assert.False(t, (&User{}).Owns(0))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Username already exists", UserMessage(ErrUsernameTaken))
	assert.Equal(t, "Passwords do not match", UserMessage(ErrPasswordMismatch))
	assert.Equal(t, UserMessage(ErrNotFound), UserMessage(ErrUnauthorized))
	assert.Equal(t, "Username is required", UserMessage(NewFieldError("username", "Username is required")))
	assert.Equal(t, "An error occurred. Please try again.", UserMessage(errors.Join(ErrPersistence, errors.New("disk I/O error"))))
	assert.Empty(t, UserMessage(nil))
}
