package service

import (
	"context"
	"errors"
	"go-user-api/common"
	"go-user-api/logger"
	"go-user-api/model"
	"go-user-api/repository"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// AuthService composes the token and session services into the login,
// refresh, logout and password change flows.
type AuthService struct {
	userRepo repository.IUserRepository
	tokens   *TokenService
	sessions *SessionService
}

func NewAuthService(userRepo repository.IUserRepository, tokens *TokenService, sessions *SessionService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		sessions: sessions,
	}
}

// LoginResult bundles the sanitized user with the freshly issued token pair.
type LoginResult struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// issueTokenPair mints an access/refresh pair and persists the rotation
// before returning. The rotation must complete before any response carries
// the tokens, otherwise the pair could be handed out without ever becoming
// valid on the refresh path.
func (s *AuthService) issueTokenPair(ctx context.Context, userID string) (*model.TokenPair, *common.AppError) {
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, common.NewFatalError("Something went wrong while generating refresh and access token", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, common.NewFatalError("Something went wrong while generating refresh and access token", err)
	}

	if err := s.sessions.Rotate(ctx, userID, refreshToken); err != nil {
		return nil, common.NewFatalError("Something went wrong while generating refresh and access token", err)
	}

	return &model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Login authenticates by username or email and rotates the session. At least
// one identifier must be supplied.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*LoginResult, *common.AppError) {
	if req.Username == "" && req.Email == "" {
		return nil, common.NewValidationError("Please provide either username or email")
	}

	user, err := s.userRepo.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NewNotFoundError("User does not exist")
		}
		return nil, common.NewFatalError("Could not look up user", err)
	}

	if !CheckPasswordHash(req.Password, user.Password) {
		return nil, common.NewAuthError("Invalid user credentials", nil)
	}

	pair, appErr := s.issueTokenPair(ctx, user.ID.Hex())
	if appErr != nil {
		return nil, appErr
	}

	logger.Log.WithField("user_id", user.ID.Hex()).Info("User logged in")

	user.Password = ""
	user.RefreshToken = ""
	return &LoginResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh validates a presented refresh token against the session state and
// rotates in a new pair. A token that differs from the one on record has been
// superseded by a later login or refresh, or revoked by logout; the caller
// sees that the same way as expiry.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*model.TokenPair, *common.AppError) {
	if presented == "" {
		return nil, common.NewAuthError("unauthorized request", nil)
	}

	userID, err := s.tokens.Verify(presented, model.TokenTypeRefresh)
	if err != nil {
		return nil, common.NewAuthError("Invalid refresh token", err)
	}

	valid, err := s.sessions.Validate(ctx, userID, presented)
	if err != nil {
		return nil, common.NewFatalError("Could not validate refresh token", err)
	}
	if !valid {
		return nil, common.NewAuthError("Refresh token is expired or used", nil)
	}

	pair, appErr := s.issueTokenPair(ctx, userID)
	if appErr != nil {
		return nil, appErr
	}

	logger.Log.WithField("user_id", userID).Info("Access token refreshed")
	return pair, nil
}

// Logout clears the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, userID string) *common.AppError {
	if err := s.sessions.Clear(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return common.NewFatalError("Could not log out user", err)
	}

	logger.Log.WithField("user_id", userID).Info("User logged out")
	return nil
}

// ChangePassword verifies the old password and persists the new hash. The
// stored hash is untouched when the old password does not verify.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) *common.AppError {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return common.NewAuthError("invalid user", nil)
		}
		return common.NewFatalError("Could not look up user", err)
	}

	if !CheckPasswordHash(req.OldPassword, user.Password) {
		return common.NewValidationError("Invalid old password")
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		return common.NewFatalError("Could not hash new password", err)
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"password": hashed}); err != nil {
		return common.NewFatalError("Could not update password", err)
	}

	logger.Log.WithField("user_id", userID).Info("Password changed")
	return nil
}
