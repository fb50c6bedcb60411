package common

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidateAndDecode(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		NewValidationError("Invalid request body").Send(w)
		return false
	}

	if err := validate.Struct(payload); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		NewValidationError(validationErrors.Error()).Send(w)
		return false
	}

	return true
}

// ValidateStruct validates a payload that was not decoded from a JSON body,
// e.g. one assembled from a multipart form.
func ValidateStruct(payload interface{}) error {
	return validate.Struct(payload)
}
