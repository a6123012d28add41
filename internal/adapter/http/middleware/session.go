package middleware

import (
	"errors"
	"net/http"
	"time"

	"todoweb/internal/adapter/session"
	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"
	"todoweb/pkg/config"
	ct "todoweb/pkg/context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const stateKey = "session_state"

// State is the request's view of its session. Changes are written back to
// the store once the handler chain has run. A visitor without a session
// gets one only when a flash or a form needs it.
type State struct {
	Session port.Session
	User    *domain.User
	dirty   bool

	start func(*State) error
}

// Ensure starts an anonymous session if the request has none yet.
func (s *State) Ensure() error {
	if s.Session.ID != "" || s.start == nil {
		return nil
	}

	return s.start(s)
}

func (s *State) AddFlash(category, message string) {
	_ = s.Ensure()

	s.Session.Flashes = append(s.Session.Flashes, port.Flash{Category: category, Message: message})
	s.dirty = true
}

// PopFlashes returns and clears the pending flashes.
func (s *State) PopFlashes() []port.Flash {
	flashes := s.Session.Flashes

	if len(flashes) > 0 {
		s.Session.Flashes = nil
		s.dirty = true
	}

	return flashes
}

type SessionManager struct {
	store  port.SessionStore
	codec  *session.CookieCodec
	auth   port.AuthService
	secure bool
	logger *zap.Logger
}

func NewSessionManager(store port.SessionStore, codec *session.CookieCodec, auth port.AuthService, secure bool, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		store:  store,
		codec:  codec,
		auth:   auth,
		secure: secure,
		logger: logger,
	}
}

// Load resolves the session named by the cookie and exposes the
// authenticated user to later handlers. Without a valid cookie nothing is
// stored until State.Ensure is called.
func (m *SessionManager) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		state, err := m.load(c)

		if err != nil {
			m.logger.Error("session unavailable", zap.Error(err))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if state.Session.Authenticated() {
			user, err := m.auth.ResolveSessionUser(ctx, state.Session.ID)

			if err != nil {
				m.logger.Error("resolve session user", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}

			if user == nil {
				// The account is gone; continue anonymously.
				m.Discard(c, state)
			} else {
				m.authenticate(c, state, user)
			}
		}

		state.start = func(st *State) error {
			if err := m.Reset(c, st); err != nil {
				m.logger.Error("start session", zap.Error(err))
				return err
			}
			return nil
		}

		c.Set(stateKey, state)

		c.Next()

		if state.dirty && state.Session.ID != "" {
			if err := m.store.Save(ctx, state.Session); err != nil && !errors.Is(err, domain.ErrNotFound) {
				m.logger.Error("save session", zap.Error(err), zap.String("session_id", state.Session.ID))
			}
		}
	}
}

func (m *SessionManager) load(c *gin.Context) (*State, error) {
	if value, err := c.Cookie(session.CookieName); err == nil {
		if sid, err := m.codec.Decode(value); err == nil {
			s, err := m.store.Get(c.Request.Context(), sid)

			switch {
			case err == nil:
				return &State{Session: s}, nil
			case !errors.Is(err, domain.ErrNotFound):
				return nil, err
			}
		}
	}

	return &State{}, nil
}

// Issue makes s the request's session and sends its cookie.
func (m *SessionManager) Issue(c *gin.Context, state *State, s port.Session) error {
	value, err := m.codec.Encode(s.ID, s.ExpiresAt)

	if err != nil {
		return err
	}

	maxAge := int(time.Until(s.ExpiresAt).Seconds())

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", m.secure, true)

	state.Session = s
	state.User = nil
	state.dirty = false

	return nil
}

// Reset replaces the current session with a fresh anonymous one.
func (m *SessionManager) Reset(c *gin.Context, state *State) error {
	s, err := m.store.Create(c.Request.Context(), 0)

	if err != nil {
		return err
	}

	return m.Issue(c, state, s)
}

// Discard forgets the current session and clears its cookie. The stored
// session is left to expire.
func (m *SessionManager) Discard(c *gin.Context, state *State) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", m.secure, true)

	state.Session = port.Session{}
	state.User = nil
	state.dirty = false
}

// Login issues an authenticated session for user.
func (m *SessionManager) Login(c *gin.Context, state *State, s port.Session, user domain.User) error {
	if err := m.Issue(c, state, s); err != nil {
		return err
	}

	m.authenticate(c, state, &user)

	return nil
}

func (m *SessionManager) authenticate(c *gin.Context, state *State, user *domain.User) {
	state.User = user

	c.Set(config.UserIDKey, user.ID)
	GetCurrent(c).Set(ct.UserIDKey, user.ID)
}

func GetState(c *gin.Context) *State {
	if value, ok := c.Get(stateKey); ok {
		if state, ok := value.(*State); ok {
			return state
		}
	}

	return &State{}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	return GetState(c).User
}

func AddFlash(c *gin.Context, category, message string) {
	GetState(c).AddFlash(category, message)
}
