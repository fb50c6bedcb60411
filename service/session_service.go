// file: service/session_service.go

package service

import (
	"context"
	"errors"
	"go-user-api/repository"
)

// SessionService owns the single refresh-token field on the user document.
// A user has at most one live refresh token; Rotate invalidates the previous
// one by overwriting it in a single atomic update, and Clear removes it on
// logout. Nothing else in the codebase touches this field.
type SessionService struct {
	repo repository.IUserRepository
}

func NewSessionService(repo repository.IUserRepository) *SessionService {
	return &SessionService{repo: repo}
}

// Rotate stores a new refresh token for the user, invalidating any prior one.
func (s *SessionService) Rotate(ctx context.Context, userID, refreshToken string) error {
	return s.repo.UpdateFields(ctx, userID, map[string]interface{}{"refreshToken": refreshToken})
}

// Validate reports whether the presented token is exactly the one on record.
// This is the revocation mechanism: a rotated-away or cleared token fails
// here even while its signature is still within its expiry window.
func (s *SessionService) Validate(ctx context.Context, userID, presented string) (bool, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.RefreshToken != "" && user.RefreshToken == presented, nil
}

// Clear removes the stored refresh token. Any previously issued refresh token
// fails validation permanently afterwards.
func (s *SessionService) Clear(ctx context.Context, userID string) error {
	return s.repo.UnsetField(ctx, userID, "refreshToken")
}
