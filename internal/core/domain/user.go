package domain

import "time"

// Roles a user account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account.
type User struct {
	ID                  string
	FullName            string
	Email               string
	PasswordHash        string
	Role                string
	BookmarkedQuestions []string
	BookmarkedResources []string
	ResetTokenHash      string
	ResetTokenExpiresAt time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasActiveResetToken reports whether a password reset token is set and has
// not expired as of now.
func (u *User) HasActiveResetToken(now time.Time) bool {
	return u.ResetTokenHash != "" && now.Before(u.ResetTokenExpiresAt)
}
