package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-user-api/common"
	"go-user-api/logger"
	"go-user-api/model"
	"go-user-api/repository"
	"net/http"
	"os"
	"strings"
	"time"
)

const userCacheTTL = 10 * time.Minute

// UserService handles registration, profile reads and profile updates.
type UserService struct {
	repo     repository.IUserRepository
	uploader IUploader
	cache    ICacheClient
}

func NewUserService(repo repository.IUserRepository, uploader IUploader, cache ICacheClient) *UserService {
	return &UserService{
		repo:     repo,
		uploader: uploader,
		cache:    cache,
	}
}

func userCacheKey(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func uploadError(message string, err error) *common.AppError {
	code := http.StatusBadGateway
	if errors.Is(err, os.ErrNotExist) {
		code = http.StatusBadRequest
	}
	return common.NewUploadError(code, message, err)
}

// Register validates the input, uploads the avatar (required) and cover
// image (optional), hashes the password and persists the user. The store is
// not mutated when the identity is already taken.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest, avatarPath, coverPath string) (*model.User, *common.AppError) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)

	if fullName == "" || email == "" || username == "" || password == "" {
		return nil, common.NewValidationError("All fields are required")
	}

	username = strings.ToLower(username)

	_, err := s.repo.FindByUsernameOrEmail(ctx, username, email)
	if err == nil {
		return nil, common.NewConflictError("User with email or username already exists")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, common.NewFatalError("Could not look up user", err)
	}

	if avatarPath == "" {
		return nil, common.NewValidationError("Avatar file is required")
	}

	avatarURL, err := s.uploader.Upload(ctx, avatarPath)
	if err != nil {
		return nil, uploadError("Avatar upload failed", err)
	}

	// The cover image is optional; a failed upload does not fail registration.
	coverURL := ""
	if coverPath != "" {
		coverURL, err = s.uploader.Upload(ctx, coverPath)
		if err != nil {
			logger.Log.WithError(err).Warn("Cover image upload failed during registration")
			coverURL = ""
		}
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, common.NewFatalError("Something went wrong while registering user", err)
	}

	user := &model.User{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		Password:   hashed,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, common.NewConflictError("User with email or username already exists")
		}
		return nil, common.NewFatalError("Something went wrong while registering user", err)
	}

	logger.Log.WithField("username", username).Info("User registered")

	user.Password = ""
	return user, nil
}

// GetCurrentUser returns the sanitized user, reading through the cache.
func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (*model.User, *common.AppError) {
	cacheKey := userCacheKey(userID)

	if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
		user := &model.User{}
		if err := json.Unmarshal([]byte(cached), user); err == nil {
			return user, nil
		}
	}

	user, err := s.repo.FindPublicByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NewNotFoundError("User does not exist")
		}
		return nil, common.NewFatalError("Could not look up user", err)
	}

	if data, err := json.Marshal(user); err == nil {
		s.cache.Set(ctx, cacheKey, data, userCacheTTL)
	}

	return user, nil
}

// UpdateAccount persists the new full name and email and returns the
// sanitized user.
func (s *UserService) UpdateAccount(ctx context.Context, userID string, req model.UpdateAccountRequest) (*model.User, *common.AppError) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(req.Email)
	if fullName == "" || email == "" {
		return nil, common.NewValidationError("All fields are required")
	}

	fields := map[string]interface{}{
		"fullName": fullName,
		"email":    email,
	}
	if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, common.NewValidationError("Invalid user")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, common.NewConflictError("User with email or username already exists")
		default:
			return nil, common.NewFatalError("Could not update account details", err)
		}
	}

	s.cache.Del(ctx, userCacheKey(userID))

	return s.reloadPublic(ctx, userID)
}

// UpdateAvatar uploads the new avatar and persists its URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (*model.User, *common.AppError) {
	return s.updateImage(ctx, userID, localPath, "avatar", "Avatar file is missing", "Error while uploading avatar")
}

// UpdateCoverImage uploads the new cover image and persists its URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*model.User, *common.AppError) {
	return s.updateImage(ctx, userID, localPath, "coverImage", "Cover image file is missing", "Error while uploading cover image")
}

func (s *UserService) updateImage(ctx context.Context, userID, localPath, field, missingMsg, failedMsg string) (*model.User, *common.AppError) {
	if localPath == "" {
		return nil, common.NewValidationError(missingMsg)
	}

	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return nil, uploadError(failedMsg, err)
	}

	if err := s.repo.UpdateFields(ctx, userID, map[string]interface{}{field: url}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NewValidationError("Invalid user")
		}
		return nil, common.NewFatalError("Could not update "+field, err)
	}

	s.cache.Del(ctx, userCacheKey(userID))

	return s.reloadPublic(ctx, userID)
}

func (s *UserService) reloadPublic(ctx context.Context, userID string) (*model.User, *common.AppError) {
	user, err := s.repo.FindPublicByID(ctx, userID)
	if err != nil {
		return nil, common.NewFatalError("Could not reload user", err)
	}
	return user, nil
}
