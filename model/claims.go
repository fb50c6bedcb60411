package model

import "github.com/golang-jwt/jwt/v5"

// TokenType discriminates access from refresh tokens inside the claims, so a
// token presented on the wrong channel is rejected even before the signature
// check against the other secret fails.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

type AppClaims struct {
	UserID    string    `json:"user_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}
