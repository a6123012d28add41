package request

// Form payloads accepted by the HTML handlers. Length and format rules for
// usernames, passwords and descriptions live in the core; these tags only
// bound the raw input.

type RegisterRequest struct {
	Username        string `form:"username" validate:"required,max=80"`
	Password        string `form:"password" validate:"required,max=128"`
	PasswordConfirm string `form:"password_confirm" validate:"required"`
}

type LoginRequest struct {
	Username string `form:"username" validate:"required,max=80"`
	Password string `form:"password" validate:"required,max=128"`
}

type TodoRequest struct {
	Description string `form:"description" validate:"required"`
}
