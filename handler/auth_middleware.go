package handler

import (
	"context"
	"errors"
	"go-user-api/common"
	"go-user-api/model"
	"go-user-api/repository"
	"go-user-api/service"
	"net/http"
	"strings"
)

type contextKey string

const UserKey contextKey = "user"

// AuthMiddleware is the gate in front of every authenticated operation:
// extract the access token, verify it, load the user it asserts, and attach
// the user to the request context. Any failed step rejects with 401.
type AuthMiddleware struct {
	tokens   *service.TokenService
	userRepo repository.IUserRepository
}

func NewAuthMiddleware(tokens *service.TokenService, userRepo repository.IUserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, userRepo: userRepo}
}

// extractToken reads the access token from the accessToken cookie or the
// bearer Authorization header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	headerParts := strings.SplitN(authHeader, " ", 2)
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return ""
	}
	return headerParts[1]
}

func (m *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			common.NewAuthError("unauthorized request", nil).Send(w)
			return
		}

		userID, err := m.tokens.Verify(tokenString, model.TokenTypeAccess)
		if err != nil {
			common.NewAuthError("Invalid or expired access token", err).Send(w)
			return
		}

		user, err := m.userRepo.FindPublicByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				common.NewAuthError("Invalid access token", nil).Send(w)
				return
			}
			common.NewFatalError("Could not load user", err).Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user the auth gate attached to the request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserKey).(*model.User)
	return user, ok
}
