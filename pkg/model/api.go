package model

// Outcome is the structured result of operations whose failures are
// expected and recovered locally (login, password change).
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Succeeded returns a successful Outcome.
func Succeeded(msg string) Outcome {
	return Outcome{Success: true, Message: msg}
}

// Failed returns a failed Outcome.
func Failed(msg string) Outcome {
	return Outcome{Success: false, Message: msg}
}

// StatusUpdate is the payload of PATCH /api/users/{username}/status.
type StatusUpdate struct {
	Status UserStatus `json:"status"`
}

// EmailRequest is the payload of the verification and reset request endpoints.
type EmailRequest struct {
	Email string `json:"email"`
}

// TokenRequest is the payload of POST /verify-email.
type TokenRequest struct {
	Token string `json:"token"`
}

// PasswordReset is the payload of POST /reset-password.
type PasswordReset struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}
