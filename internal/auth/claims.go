package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Role must be one of the closed role set; the authorization layer rejects
// anything else. TeamID is optional (admins carry none).
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	TeamID    string    `json:"team_id,omitempty"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
