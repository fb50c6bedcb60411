package handler

import (
	"encoding/json"
	"errors"
	"go-user-api/common"
	"go-user-api/config"
	"go-user-api/logger"
	"go-user-api/model"
	"go-user-api/service"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

func maxUploadBytes() int64 {
	if config.AppConfig.Upload.MaxBytes > 0 {
		return config.AppConfig.Upload.MaxBytes
	}
	return 10 << 20
}

// saveUploadedFile writes the named multipart file into the temp directory
// and returns its local path, or "" when the field is absent. The caller
// owns the returned path and must remove it once the request is done; the
// uploader also removes the file after a put attempt, so removal has to
// tolerate a path that is already gone.
func saveUploadedFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	tempDir := config.AppConfig.Upload.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", err
	}

	dst, err := os.CreateTemp(tempDir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func decodeOptionalBody(r *http.Request, payload interface{}) error {
	if r.Body == nil {
		return errors.New("no request body")
	}
	return json.NewDecoder(r.Body).Decode(payload)
}

func setAuthCookies(w http.ResponseWriter, pair *model.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			MaxAge:   -1,
		})
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a user from a multipart form with an avatar (required) and cover image (optional)
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName   formData  string  true   "Full name"
// @Param        username   formData  string  true   "Username"
// @Param        email      formData  string  true   "Email"
// @Param        password   formData  string  true   "Password"
// @Param        avatar     formData  file    true   "Avatar image"
// @Param        coverImage formData  file    false  "Cover image"
// @Success      200  {object}  model.ApiResponse
// @Failure      400  {object}  common.AppError
// @Failure      409  {object}  common.AppError
// @Router       /register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	if err := r.ParseMultipartForm(maxUploadBytes()); err != nil {
		return common.NewValidationError("Invalid multipart form")
	}

	req := model.RegisterRequest{
		FullName: r.FormValue("fullName"),
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	if err := common.ValidateStruct(req); err != nil {
		return common.NewValidationError("All fields are required")
	}

	avatarPath, err := saveUploadedFile(r, "avatar")
	if err != nil {
		return common.NewUploadError(http.StatusBadRequest, "Could not read avatar file", err)
	}
	if avatarPath != "" {
		defer os.Remove(avatarPath)
	}

	coverPath, err := saveUploadedFile(r, "coverImage")
	if err != nil {
		logger.Log.WithError(err).Warn("Could not read cover image from form")
		coverPath = ""
	}
	if coverPath != "" {
		defer os.Remove(coverPath)
	}

	user, appErr := h.userService.Register(r.Context(), req, avatarPath, coverPath)
	if appErr != nil {
		return appErr
	}

	logger.Log.WithFields(logrus.Fields{
		"username": user.Username,
		"user_id":  user.ID.Hex(),
	}).Info("Register request completed")

	model.NewApiResponse(http.StatusOK, user, "User registered successfully").Send(w)
	return nil
}

// Login godoc
// @Summary      Log in with username or email
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      model.LoginRequest  true  "Credentials"
// @Success      200  {object}  model.ApiResponse
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	result, appErr := h.authService.Login(r.Context(), req)
	if appErr != nil {
		return appErr
	}

	setAuthCookies(w, &model.TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
	model.NewApiResponse(http.StatusOK, result, "User logged in successfully").Send(w)
	return nil
}

// Logout godoc
// @Summary      Log out the current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.ApiResponse
// @Failure      401  {object}  common.AppError
// @Router       /logout [post]
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, ok := UserFromContext(r.Context())
	if !ok {
		return common.NewAuthError("unauthorized request", nil)
	}

	if appErr := h.authService.Logout(r.Context(), user.ID.Hex()); appErr != nil {
		return appErr
	}

	clearAuthCookies(w)
	model.NewApiResponse(http.StatusOK, struct{}{}, "User logged out").Send(w)
	return nil
}

// RefreshToken godoc
// @Summary      Rotate the access/refresh token pair
// @Description  Accepts the refresh token from the refreshToken cookie or the request body
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body      model.RefreshRequest  false  "Refresh token"
// @Success      200  {object}  model.ApiResponse
// @Failure      401  {object}  common.AppError
// @Router       /refresh-token [post]
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) *common.AppError {
	presented := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req model.RefreshRequest
		// The body is optional when the cookie channel is used.
		if err := decodeOptionalBody(r, &req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, appErr := h.authService.Refresh(r.Context(), presented)
	if appErr != nil {
		return appErr
	}

	setAuthCookies(w, pair)
	model.NewApiResponse(http.StatusOK, pair, "Access token refreshed").Send(w)
	return nil
}

// ChangePassword godoc
// @Summary      Change the current user's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      model.ChangePasswordRequest  true  "Old and new password"
// @Success      200  {object}  model.ApiResponse
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Router       /change-password [post]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, ok := UserFromContext(r.Context())
	if !ok {
		return common.NewAuthError("unauthorized request", nil)
	}

	var req model.ChangePasswordRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	if appErr := h.authService.ChangePassword(r.Context(), user.ID.Hex(), req); appErr != nil {
		return appErr
	}

	model.NewApiResponse(http.StatusOK, struct{}{}, "Password updated successfully").Send(w)
	return nil
}

// GetCurrentUser godoc
// @Summary      Return the authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.ApiResponse
// @Failure      401  {object}  common.AppError
// @Router       /current-user [get]
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, ok := UserFromContext(r.Context())
	if !ok {
		return common.NewAuthError("unauthorized request", nil)
	}

	current, appErr := h.userService.GetCurrentUser(r.Context(), user.ID.Hex())
	if appErr != nil {
		return appErr
	}

	model.NewApiResponse(http.StatusOK, current, "Current user details").Send(w)
	return nil
}

// UpdateAccount godoc
// @Summary      Update full name and email
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      model.UpdateAccountRequest  true  "New account details"
// @Success      200  {object}  model.ApiResponse
// @Failure      400  {object}  common.AppError
// @Router       /account [patch]
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, ok := UserFromContext(r.Context())
	if !ok {
		return common.NewAuthError("unauthorized request", nil)
	}

	var req model.UpdateAccountRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	updated, appErr := h.userService.UpdateAccount(r.Context(), user.ID.Hex(), req)
	if appErr != nil {
		return appErr
	}

	model.NewApiResponse(http.StatusOK, updated, "Account details updated successfully").Send(w)
	return nil
}

// UpdateAvatar godoc
// @Summary      Replace the avatar image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200  {object}  model.ApiResponse
// @Failure      400  {object}  common.AppError
// @Router       /avatar [patch]
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) *common.AppError {
	return h.updateImage(w, r, "avatar")
}

// UpdateCoverImage godoc
// @Summary      Replace the cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        coverImage  formData  file  true  "Cover image"
// @Success      200  {object}  model.ApiResponse
// @Failure      400  {object}  common.AppError
// @Router       /cover-image [patch]
func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) *common.AppError {
	return h.updateImage(w, r, "coverImage")
}

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string) *common.AppError {
	user, ok := UserFromContext(r.Context())
	if !ok {
		return common.NewAuthError("unauthorized request", nil)
	}

	if err := r.ParseMultipartForm(maxUploadBytes()); err != nil {
		return common.NewValidationError("Invalid multipart form")
	}

	localPath, err := saveUploadedFile(r, field)
	if err != nil {
		return common.NewUploadError(http.StatusBadRequest, "Could not read uploaded file", err)
	}
	if localPath != "" {
		defer os.Remove(localPath)
	}

	var updated *model.User
	var appErr *common.AppError
	var message string
	if field == "avatar" {
		updated, appErr = h.userService.UpdateAvatar(r.Context(), user.ID.Hex(), localPath)
		message = "Avatar image updated successfully"
	} else {
		updated, appErr = h.userService.UpdateCoverImage(r.Context(), user.ID.Hex(), localPath)
		message = "Cover image updated successfully"
	}
	if appErr != nil {
		return appErr
	}

	model.NewApiResponse(http.StatusOK, updated, message).Send(w)
	return nil
}
