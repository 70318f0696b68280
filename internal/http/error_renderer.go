package httpx

import (
	"net/http"

	apperrors "github.com/pulsenet/sessiond/internal/errors"
)

// StatusClientClosedRequest is the nginx convention for a request the client
// abandoned before a response was written.
const StatusClientClosedRequest = 499

// StatusForError maps an application error to its HTTP status code.
// Authentication failures are 401 regardless of which stage rejected the
// attempt, so a probing client learns nothing from the status alone.
func StatusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidCredentials,
		apperrors.ErrCodeBiometricFailure,
		apperrors.ErrCodeTokenMismatch,
		apperrors.ErrCodeTokenExpired,
		apperrors.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case apperrors.ErrCodeUnauthorized:
		return http.StatusForbidden
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteAppError renders an application error as a JSON response with the
// status from StatusForError. Internal errors are reported without their
// message so backend details never reach the client.
func WriteAppError(w http.ResponseWriter, err error) {
	status := StatusForError(err)

	body := errorBody{
		Error:   string(apperrors.GetCode(err)),
		Message: err.Error(),
		Field:   apperrors.GetField(err),
	}
	if status == http.StatusInternalServerError {
		body.Message = "an internal error occurred"
	}

	WriteJSON(w, status, body)
}
