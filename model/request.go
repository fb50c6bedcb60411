// file: model/request.go

package model

// RegisterRequest defines the payload for creating a new user. It is
// assembled from the multipart form, so validation runs via ValidateStruct
// rather than ValidateAndDecode.
type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication. Either username
// or email may identify the account; "at least one" is enforced in the
// service since it cannot be expressed as a field tag.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token when the client does not use the
// cookie channel.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}
