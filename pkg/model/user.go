package model

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleUser is a standard authenticated user.
	RoleUser UserRole = "user"
	// RoleAdmin may approve, disable and delete accounts.
	RoleAdmin UserRole = "admin"
)

// UserStatus is the approval state of an account.
type UserStatus string

const (
	// StatusPending accounts are registered but not yet approved by an admin.
	StatusPending UserStatus = "pending"
	// StatusActive accounts may log in.
	StatusActive UserStatus = "active"
	// StatusDisabled accounts were switched off by an admin.
	StatusDisabled UserStatus = "disabled"
)

// ParseUserStatus validates a status string.
func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case StatusPending, StatusActive, StatusDisabled:
		return UserStatus(s), true
	}
	return "", false
}

// User is the account record returned by GET /users/me and GET /api/users.
// Fields beyond Role and Status are informational only.
type User struct {
	Username      string     `json:"username" yaml:"username"`
	Email         string     `json:"email,omitempty" yaml:"email,omitempty"`
	Role          UserRole   `json:"role" yaml:"role"`
	Status        UserStatus `json:"status" yaml:"status"`
	EmailVerified bool       `json:"email_verified,omitempty" yaml:"email_verified,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	CreatedAt     *Timestamp `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	LastLogin     *Timestamp `json:"last_login,omitempty" yaml:"last_login,omitempty"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsPending reports whether the account still awaits admin approval.
func (u *User) IsPending() bool {
	return u != nil && u.Status == StatusPending
}

// Registration is the payload of POST /api/auth/register.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate is the payload of PATCH /users/me. Empty fields are omitted.
type ProfileUpdate struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// PasswordChange is the payload of POST /api/auth/change-password.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
