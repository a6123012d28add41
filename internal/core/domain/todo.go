package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"todoweb/internal/core/security"
)

const (
	DescriptionMaxLength = 200

	// DescriptionStoredMaxLength bounds the escaped column value. The widest
	// escape ("&#34;") is five characters per rune.
	DescriptionStoredMaxLength = 5 * DescriptionMaxLength
)

type Todo struct {
	ID          int
	Description string
	Completed   bool
	CreatedAt   time.Time
	UserID      int
}

func NewTodo(description string, userID int, now time.Time) (Todo, error) {
	description, err := ValidateDescription(description)

	if err != nil {
		return Todo{}, err
	}

	if userID <= 0 {
		return Todo{}, NewFieldError("user_id", "Todo must belong to a user")
	}

	return Todo{
		Description: description,
		Completed:   false,
		CreatedAt:   now.UTC(),
		UserID:      userID,
	}, nil
}

// ValidateDescription trims the description and checks the bounds on its
// plain text, so raw and escaped forms of the same text are judged alike.
// It never truncates.
func ValidateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	plain := security.PlainText(description)

	if plain == "" {
		return "", NewFieldError("description", "Todo description is required.")
	}

	if utf8.RuneCountInString(plain) > DescriptionMaxLength {
		return "", NewFieldError("description", "Todo description must be no more than 200 characters long")
	}

	return description, nil
}

func (t *Todo) Toggle() {
	t.Completed = !t.Completed
}

func (t *Todo) BelongsTo(userID int) bool {
	return t.UserID == userID
}

func (t *Todo) StatusLabel() string {
	if t.Completed {
		return "completed"
	}

	return "incomplete"
}
