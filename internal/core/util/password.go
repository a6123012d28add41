package util

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

func GenerateEncrypt(password string) (string, error) {
	encrypted, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(encrypted), nil
}

func ComparePassword(password, encrypted string) error {
	return bcrypt.CompareHashAndPassword([]byte(encrypted), []byte(password))
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// CompareDummyPassword spends the same bcrypt work as ComparePassword
// against a throwaway hash. Used when the account does not exist so the
// response time does not reveal it.
func CompareDummyPassword(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)
	})

	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
