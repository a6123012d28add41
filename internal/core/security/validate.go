package security

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 80

	PasswordMinLength = 6
	PasswordMaxLength = 128
)

// ValidUsernameFormat reports whether username is 3 to 80 ASCII letters,
// digits or underscores.
func ValidUsernameFormat(username string) bool {
	length := utf8.RuneCountInString(username)

	if length < UsernameMinLength || length > UsernameMaxLength {
		return false
	}

	for i := 0; i < len(username); i++ {
		c := username[i]

		switch {
		case c == '_':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}

	return true
}

// ValidatePasswordStrength reports whether password is acceptable and, when
// it is not, why.
func ValidatePasswordStrength(password string) (bool, string) {
	if password == "" {
		return false, "Password is required"
	}

	length := utf8.RuneCountInString(password)

	if length < PasswordMinLength {
		return false, "Password must be at least 6 characters long"
	}

	if length > PasswordMaxLength {
		return false, "Password must be no more than 128 characters long"
	}

	return true, ""
}

// IsSafeRedirectTarget accepts only same-origin relative paths such as
// "/" or "/toggle/1". Scheme-relative ("//evil"), backslash tricks and
// absolute URLs are rejected.
func IsSafeRedirectTarget(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") {
		return false
	}

	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}

	for _, r := range target {
		if r < 0x20 || r == 0x7f || r == '\\' {
			return false
		}
	}

	u, err := url.Parse(target)

	if err != nil {
		return false
	}

	return u.Scheme == "" && u.Host == "" && u.User == nil
}
