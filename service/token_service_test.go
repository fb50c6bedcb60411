// file: service/token_service_test.go

package service

import (
	"go-user-api/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestTokenService() *TokenService {
	return NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	tokens := newTestTokenService()

	accessToken, err := tokens.IssueAccessToken("user-1")
	assert.NoError(t, err)
	refreshToken, err := tokens.IssueRefreshToken("user-1")
	assert.NoError(t, err)

	userID, err := tokens.Verify(accessToken, model.TokenTypeAccess)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	userID, err = tokens.Verify(refreshToken, model.TokenTypeRefresh)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenService_DistinctTokensWithinSameSecond(t *testing.T) {
	tokens := newTestTokenService()

	first, err := tokens.IssueRefreshToken("user-1")
	assert.NoError(t, err)
	second, err := tokens.IssueRefreshToken("user-1")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

// A token presented on the wrong channel must fail regardless of its expiry,
// since each type is signed with its own secret.
func TestTokenService_RejectsCrossTypePresentation(t *testing.T) {
	tokens := newTestTokenService()

	accessToken, err := tokens.IssueAccessToken("user-1")
	assert.NoError(t, err)
	refreshToken, err := tokens.IssueRefreshToken("user-1")
	assert.NoError(t, err)

	_, err = tokens.Verify(accessToken, model.TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Verify(refreshToken, model.TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	tokens := newTestTokenService()
	other := NewTokenService("different-access", "different-refresh", 15*time.Minute, 24*time.Hour)

	accessToken, err := tokens.IssueAccessToken("user-1")
	assert.NoError(t, err)

	_, err = other.Verify(accessToken, model.TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	expired := NewTokenService("access-secret", "refresh-secret", -1*time.Minute, -1*time.Minute)

	accessToken, err := expired.IssueAccessToken("user-1")
	assert.NoError(t, err)

	fresh := newTestTokenService()
	_, err = fresh.Verify(accessToken, model.TokenTypeAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenService_RejectsMalformedToken(t *testing.T) {
	tokens := newTestTokenService()

	_, err := tokens.Verify("not-a-jwt", model.TokenTypeAccess)
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = tokens.Verify("", model.TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrMalformedToken)
}
