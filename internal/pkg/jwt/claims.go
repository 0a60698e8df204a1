// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAccess = "access"

	RoleAdmin     = "admin"
	RoleVigilante = "vigilante"
)

// Claims carried by every access token issued by the service.
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Device  string `json:"device,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// HasAudience checks if the expected audience is listed in the claims.
func (c *Claims) HasAudience(audience string) bool {
	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}
	return false
}
