package common

import (
	"encoding/json"
	"go-user-api/logger"
	"net/http"

	"github.com/sirupsen/logrus"
)

// AppError is the single error type that crosses the handler boundary.
// The status code carries the error kind; business logic never writes
// status codes directly.
type AppError struct {
	Code    int    `json:"statusCode"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Success: false,
		Err:     err,
	}
}

// NewValidationError reports invalid client input.
func NewValidationError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, nil)
}

// NewAuthError reports a bad, missing, expired or mismatched credential.
func NewAuthError(message string, err error) *AppError {
	return NewAppError(http.StatusUnauthorized, message, err)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, nil)
}

// NewConflictError reports a duplicate identity (username or email).
func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, nil)
}

// NewUploadError reports an object storage failure. The code is 400 when
// the local file could not be read and 502 when the remote put failed.
func NewUploadError(code int, message string, err error) *AppError {
	return NewAppError(code, message, err)
}

func NewFatalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		}).Error(e.Message)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e)
}
