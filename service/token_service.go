// file: service/token_service.go

package service

import (
	"errors"
	"fmt"
	"go-user-api/logger"
	"go-user-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrInvalidToken   = errors.New("invalid token")
)

// TokenService issues and verifies the signed access and refresh tokens.
// The two token types are signed with distinct secrets, so a leaked access
// token can never be replayed on the refresh endpoint.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return s.issue(userID, model.TokenTypeAccess, s.accessSecret, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return s.issue(userID, model.TokenTypeRefresh, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) issue(userID string, tokenType model.TokenType, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &model.AppClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps two tokens minted within the same second distinct.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign JWT")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of a token against the secret for
// the expected type and returns the user id it asserts. A token of the wrong
// type fails as invalid regardless of its expiry.
func (s *TokenService) Verify(tokenString string, expected model.TokenType) (string, error) {
	secret := s.accessSecret
	if expected == model.TokenTypeRefresh {
		secret = s.refreshSecret
	}

	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrInvalidToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpiredToken
		default:
			return "", ErrInvalidToken
		}
	}

	if !token.Valid || claims.TokenType != expected || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}
