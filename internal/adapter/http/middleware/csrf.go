package middleware

import (
	"crypto/subtle"
	"net/http"

	"todoweb/internal/core/domain"
	"todoweb/internal/core/port"

	"github.com/gin-gonic/gin"
)

const (
	CSRFFormField = "csrf_token"
	CSRFHeader    = "X-CSRF-Token"
)

// CSRFMiddleware checks every state-changing request against the token
// bound to the session. A mismatch never reaches the handler.
func CSRFMiddleware(audit port.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		state := GetState(c)

		token := c.PostForm(CSRFFormField)
		if token == "" {
			token = c.GetHeader(CSRFHeader)
		}

		if validToken(state.Session.CSRFToken, token) {
			c.Next()
			return
		}

		var userID *int
		if state.User != nil {
			userID = &state.User.ID
		}

		audit.LogSecurityEvent(c.Request.Context(), port.EventCSRFFailure, map[string]any{
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"token_present": token != "",
		}, userID)

		state.AddFlash("error", domain.UserMessage(domain.ErrCSRF))

		c.Redirect(http.StatusFound, csrfRedirectTarget(c.Request.URL.Path))
		c.Abort()
	}
}

func validToken(expected, given string) bool {
	if expected == "" || given == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

func csrfRedirectTarget(path string) string {
	switch path {
	case "/login", "/register":
		return path
	default:
		return "/"
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
