package factory

import (
	"context"
	"time"

	fab "github.com/Goldziher/fabricator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
)

// DefaultPassword is the plaintext behind the hash NewUser assigns.
const DefaultPassword = "secret123"

func merge(defaults map[string]any, customData []map[string]any) map[string]any {
	for _, data := range customData {
		for k, v := range data {
			defaults[k] = v
		}
	}

	return defaults
}

func NewUser(customData ...map[string]any) domain.User {
	instance := fab.New(domain.User{})

	data := merge(map[string]any{
		"ID":        0,
		"Username":  "user_" + uuid.NewString()[:8],
		"CreatedAt": time.Now().UTC().Truncate(time.Second),
	}, customData)

	if _, exists := data["PasswordHash"]; !exists {
		encrypted, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
		data["PasswordHash"] = string(encrypted)
	}

	return instance.Build(data)
}

// CreateUser builds a user and persists it through repo.
func CreateUser(ctx context.Context, repo port.UserRepository, customData ...map[string]any) domain.User {
	user, err := repo.Create(ctx, NewUser(customData...))

	if err != nil {
		panic(err)
	}

	return user
}
