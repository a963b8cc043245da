package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims are the claims aegis expects in bearer tokens minted by the
// identity provider. Aegis validates tokens; it never issues them.
type TokenClaims struct {
	UserID string `json:"sub_id"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
