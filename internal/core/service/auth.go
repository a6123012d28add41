package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
	"todoweb/internal/core/security"
	"todoweb/internal/core/util"
)

type AuthService struct {
	users     port.UserRepository
	sessions  port.SessionStore
	audit     port.AuditLogger
	telemetry port.Telemetry
	now       Clock
}

func NewAuthService(users port.UserRepository, sessions port.SessionStore, audit port.AuditLogger, probe port.Telemetry) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		audit:     audit,
		telemetry: probeOrNoop(probe),
		now:       time.Now,
	}
}

// WithClock replaces the time source used for new accounts.
func (as *AuthService) WithClock(clock Clock) *AuthService {
	as.now = clock
	return as
}

func (as *AuthService) CreateUser(ctx context.Context, username, password, passwordConfirm string) (user domain.User, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "create_user", 0)
	defer func() { done(err) }()

	username = strings.TrimSpace(username)

	if password != passwordConfirm {
		as.rejectRegistration(ctx, username, "password_mismatch")
		return domain.User{}, domain.ErrPasswordMismatch
	}

	_, err = as.users.GetByUsername(ctx, username)

	switch {
	case err == nil:
		as.rejectRegistration(ctx, username, "username_taken")
		return domain.User{}, domain.ErrUsernameTaken
	case !errors.Is(err, domain.ErrNotFound):
		return domain.User{}, err
	}

	if _, err = domain.ValidateUsername(username); err != nil {
		as.rejectRegistration(ctx, username, "invalid_username")
		return domain.User{}, err
	}

	if ok, reason := security.ValidatePasswordStrength(password); !ok {
		as.rejectRegistration(ctx, username, "weak_password")
		return domain.User{}, domain.NewFieldError("password", reason)
	}

	encrypted, err := util.GenerateEncrypt(password)

	if err != nil {
		return domain.User{}, fmt.Errorf("encrypt password: %w", err)
	}

	user, err = domain.NewUser(username, encrypted, as.now())

	if err != nil {
		return domain.User{}, err
	}

	user, err = as.users.Create(ctx, user)

	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			as.rejectRegistration(ctx, username, "username_taken")
		}
		return domain.User{}, err
	}

	as.audit.LogSecurityEvent(ctx, port.EventRegistration, map[string]any{
		"username": user.Username,
	}, &user.ID)

	return user, nil
}

func (as *AuthService) rejectRegistration(ctx context.Context, username, reason string) {
	as.audit.LogSecurityEvent(ctx, port.EventRegistrationRejected, map[string]any{
		"username": security.SanitizeText(username, domain.UsernameMaxLength),
		"reason":   reason,
	}, nil)
}

func (as *AuthService) Authenticate(ctx context.Context, username, password string) (user domain.User, err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "authenticate", 0)
	defer func() { done(err) }()

	username = strings.TrimSpace(username)
	user, err = as.users.GetByUsername(ctx, username)

	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, err
		}

		util.CompareDummyPassword(password)
		as.failLogin(ctx, username)

		return domain.User{}, domain.ErrInvalidCredentials
	}

	if err = util.ComparePassword(password, user.PasswordHash); err != nil {
		as.failLogin(ctx, username)
		return domain.User{}, domain.ErrInvalidCredentials
	}

	as.audit.LogSecurityEvent(ctx, port.EventLoginSuccess, map[string]any{
		"username": user.Username,
	}, &user.ID)

	return user, nil
}

func (as *AuthService) failLogin(ctx context.Context, username string) {
	as.audit.LogSecurityEvent(ctx, port.EventLoginFailure, map[string]any{
		"username": security.SanitizeText(username, domain.UsernameMaxLength),
	}, nil)
}

// ResolveSessionUser returns nil without error when the session does not
// belong to a live user.
func (as *AuthService) ResolveSessionUser(ctx context.Context, sessionID string) (*domain.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := as.sessions.Get(ctx, sessionID)

	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	if !session.Authenticated() {
		return nil, nil
	}

	user, err := as.users.GetByID(ctx, session.UserID)

	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (as *AuthService) RequireOwnership(user domain.User, resourceOwnerID int) bool {
	return user.Owns(resourceOwnerID)
}

// Login authenticates and swaps the caller's session for a new one so an
// identifier planted before login is never promoted.
func (as *AuthService) Login(ctx context.Context, sessionID, username, password string) (port.Session, domain.User, error) {
	user, err := as.Authenticate(ctx, username, password)

	if err != nil {
		return port.Session{}, domain.User{}, err
	}

	if sessionID != "" {
		if err := as.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return port.Session{}, domain.User{}, err
		}
	}

	session, err := as.sessions.Create(ctx, user.ID)

	if err != nil {
		return port.Session{}, domain.User{}, err
	}

	return session, user, nil
}

func (as *AuthService) Logout(ctx context.Context, sessionID string) error {
	session, err := as.sessions.Get(ctx, sessionID)

	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	if err := as.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if session.Authenticated() {
		as.audit.LogSecurityEvent(ctx, port.EventLogout, nil, &session.UserID)
	}

	return nil
}

func (as *AuthService) DeleteAccount(ctx context.Context, userID int) (err error) {
	ctx, done := observe(ctx, as.telemetry, "auth", "delete_account", userID)
	defer func() { done(err) }()

	if err = as.users.DeleteByID(ctx, userID); err != nil {
		return err
	}

	as.audit.LogSecurityEvent(ctx, port.EventAccountDeleted, nil, &userID)

	return nil
}
