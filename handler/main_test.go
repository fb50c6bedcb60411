// handler/main_test.go
package handler

import (
	"context"
	"fmt"
	"go-user-api/model"
	"go-user-api/repository"
	"go-user-api/service"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory collaborators for handler tests. The handler layer is exercised
// against real services wired over these fakes, so requests travel the same
// path they do in production minus the network hops.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	clone := *user
	f.users[user.ID.Hex()] = &clone
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) FindPublicByID(ctx context.Context, id string) (*model.User, error) {
	user, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	user.RefreshToken = ""
	return user, nil
}

func (f *fakeUserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for key, value := range fields {
		str, _ := value.(string)
		switch key {
		case "refreshToken":
			user.RefreshToken = str
		case "password":
			user.Password = str
		case "fullName":
			user.FullName = str
		case "email":
			user.Email = str
		case "avatar":
			user.Avatar = str
		case "coverImage":
			user.CoverImage = str
		}
	}
	return nil
}

func (f *fakeUserRepo) UnsetField(ctx context.Context, id string, field string) error {
	return f.UpdateFields(ctx, id, map[string]interface{}{field: ""})
}

// fakeUploader hands out sequential URLs and removes the local artifact the
// way the real storage service does.
type fakeUploader struct {
	mu      sync.Mutex
	uploads int
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return fmt.Sprintf("https://cdn.example.com/%d.png", f.uploads), nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	if value, ok := f.data[key]; ok {
		cmd.SetVal(value)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntCmd(ctx)
}

type testEnv struct {
	repo    *fakeUserRepo
	tokens  *service.TokenService
	auth    *service.AuthService
	users   *service.UserService
	handler *UserHandler
	authMW  *AuthMiddleware
}

func newTestEnv() *testEnv {
	repo := newFakeUserRepo()
	tokens := service.NewTokenService("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	sessions := service.NewSessionService(repo)
	auth := service.NewAuthService(repo, tokens, sessions)
	users := service.NewUserService(repo, &fakeUploader{}, newFakeCache())

	return &testEnv{
		repo:    repo,
		tokens:  tokens,
		auth:    auth,
		users:   users,
		handler: NewUserHandler(users, auth),
		authMW:  NewAuthMiddleware(tokens, repo),
	}
}

func (e *testEnv) seedUser(t *testing.T, username, email, password string) *model.User {
	t.Helper()
	hashed, err := service.HashPassword(password)
	assert.NoError(t, err)
	user := &model.User{
		Username: username,
		Email:    email,
		FullName: "Test User",
		Avatar:   "https://cdn.example.com/seed.png",
		Password: hashed,
	}
	assert.NoError(t, e.repo.Create(context.Background(), user))
	return user
}
