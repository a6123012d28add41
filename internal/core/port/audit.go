package port

import "context"

const (
	EventLoginSuccess         = "login_success"
	EventLoginFailure         = "login_failure"
	EventRegistration         = "registration"
	EventRegistrationRejected = "registration_rejected"
	EventLogout               = "logout"
	EventCSRFFailure          = "csrf_failure"
	EventUnauthorizedAccess   = "unauthorized_access"
	EventRateLimited          = "rate_limited"
	EventAccountDeleted       = "account_deleted"
)

// AuditLogger appends security audit records. Implementations must never
// fail the caller.
type AuditLogger interface {
	LogSecurityEvent(ctx context.Context, eventType string, details map[string]any, userID *int)
}
