package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/aylabs/musicore/pkg/errors"
	"github.com/aylabs/musicore/pkg/store"
)

// errorBody is the JSON error envelope returned by all endpoints.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to an HTTP status and the JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	status := statusFor(err, code)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    string(code),
		Message: apperrors.UserMessage(err),
	}})
}

func statusFor(err error, code apperrors.Code) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidScore,
		apperrors.ErrCodeInvalidConfig, apperrors.ErrCodeInvalidFormat,
		apperrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeScoreNotFound,
		apperrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
