package domain

// Role defines the caller's permission level, issued by the account service
type Role string

const (
	RoleAdmin   Role = "admin"   // Manage queue and all subjects
	RoleTeacher Role = "teacher" // Upload course material
	RoleStudent Role = "student" // Read extracted content
)

// AuthContext contains authenticated user info for request context
type AuthContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsAdmin checks if the authenticated user is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanUpload reports whether the caller may submit new resources.
func (a *AuthContext) CanUpload() bool {
	return a.Role == RoleAdmin || a.Role == RoleTeacher
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
