// internal/domain/auth/dto.go
package auth

import "time"

// RegisterRequest creates an admin account; vigilante accounts are created with the guard.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	Device    string `json:"device"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserInfo  `json:"user"`
}

type UserInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// UpdateLogoRequest sets the operator logo printed on reports. Accepts a URL or an image data URI.
type UpdateLogoRequest struct {
	LogoURL string `json:"logo_url" binding:"required"`
}
