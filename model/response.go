// file: model/response.go

package model

import (
	"encoding/json"
	"net/http"
)

// ApiResponse is the success envelope every endpoint returns. Its error
// counterpart is common.AppError, which serializes to the same shape minus
// the data field.
type ApiResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func NewApiResponse(statusCode int, data interface{}, message string) *ApiResponse {
	return &ApiResponse{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	}
}

func (r *ApiResponse) Send(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(r.StatusCode)
	json.NewEncoder(w).Encode(r)
}

// TokenPair is the access/refresh pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
