// file: router/router_test.go

package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go-user-api/handler"
	"go-user-api/model"
	"go-user-api/repository"
	"go-user-api/router"
	"go-user-api/service"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The router test wires the real handler/service stack over in-memory
// collaborators and walks the account lifecycle end to end.

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

// nopCache always misses, so every read goes to the repository.
type nopCache struct{}

func (nopCache) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (nopCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (nopCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return redis.NewIntCmd(ctx)
}

func newTestRouter() http.Handler {
	repo := newFakeUserRepo()
	tokens := service.NewTokenService("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	sessions := service.NewSessionService(repo)
	authService := service.NewAuthService(repo, tokens, sessions)
	userService := service.NewUserService(repo, &fakeUploader{}, nopCache{})

	userHandler := handler.NewUserHandler(userService, authService)
	authMW := handler.NewAuthMiddleware(tokens, repo)

	return router.NewRouter(userHandler, authMW)
}

// --- Test Helper Functions ---

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		assert.NoError(t, writer.WriteField(name, value))
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		assert.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader("fake-image-bytes"))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(t *testing.T, mux http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var envelope map[string]interface{}
	if rec.Body.Len() > 0 {
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	}
	return rec, envelope
}

func TestRouter_AccountLifecycle(t *testing.T) {
	mux := newTestRouter()

	// 1. Register alice with an avatar.
	body, contentType := multipartBody(t, map[string]string{
		"fullName": "Alice Example",
		"username": "alice",
		"email":    "alice@x.com",
		"password": "pw123secret",
	}, map[string]string{"avatar": "avatar.png"})

	req := httptest.NewRequest(http.MethodPost, "/register", body)
	req.Header.Set("Content-Type", contentType)
	rec, envelope := doRequest(t, mux, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	registered := envelope["data"].(map[string]interface{})
	assert.NotContains(t, registered, "password")
	assert.NotContains(t, registered, "refreshToken")

	// 2. Log in with the same credentials.
	req = httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"alice","password":"pw123secret"}`))
	rec, envelope = doRequest(t, mux, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookieNames := make(map[string]bool)
	for _, cookie := range rec.Result().Cookies() {
		cookieNames[cookie.Name] = true
	}
	assert.True(t, cookieNames["accessToken"])
	assert.True(t, cookieNames["refreshToken"])

	loginData := envelope["data"].(map[string]interface{})
	accessToken := loginData["accessToken"].(string)
	firstRefreshToken := loginData["refreshToken"].(string)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, firstRefreshToken)

	// 3. The access token authorizes a current-user read.
	req = httptest.NewRequest(http.MethodGet, "/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec, envelope = doRequest(t, mux, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	current := envelope["data"].(map[string]interface{})
	assert.Equal(t, "alice", current["username"])

	// 4. Refresh rotates in a new, distinct pair.
	req = httptest.NewRequest(http.MethodPost, "/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: firstRefreshToken})
	rec, envelope = doRequest(t, mux, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	refreshed := envelope["data"].(map[string]interface{})
	secondRefreshToken := refreshed["refreshToken"].(string)
	assert.NotEqual(t, firstRefreshToken, secondRefreshToken)

	// 5. The superseded token is rejected.
	req = httptest.NewRequest(http.MethodPost, "/refresh-token",
		strings.NewReader(`{"refreshToken":"`+firstRefreshToken+`"}`))
	rec, _ = doRequest(t, mux, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 6. A wrong old password does not change the stored one.
	req = httptest.NewRequest(http.MethodPost, "/change-password",
		strings.NewReader(`{"oldPassword":"wrongOldPass","newPassword":"newPassword1"}`))
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec, _ = doRequest(t, mux, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 7. Logout clears the session; the latest refresh token dies with it.
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec, _ = doRequest(t, mux, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/refresh-token",
		strings.NewReader(`{"refreshToken":"`+secondRefreshToken+`"}`))
	rec, _ = doRequest(t, mux, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_UnauthenticatedAccessRejected(t *testing.T) {
	mux := newTestRouter()

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/logout"},
		{http.MethodPost, "/change-password"},
		{http.MethodGet, "/current-user"},
		{http.MethodPatch, "/account"},
		{http.MethodPatch, "/avatar"},
		{http.MethodPatch, "/cover-image"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec, _ := doRequest(t, mux, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s must sit behind the auth gate", route.method, route.path)
	}
}

func TestRouter_Health(t *testing.T) {
	mux := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
