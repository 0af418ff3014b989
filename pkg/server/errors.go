package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// StatusCode maps an error code to an HTTP status.
func StatusCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidLayout, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidImage, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeMissingCredential, errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeNetwork, errors.ErrCodeEmptyResponse:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusServiceUnavailable
	case errCodeMethod:
		return http.StatusMethodNotAllowed
	case errCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Codes used only at the HTTP boundary.
const (
	errCodeMethod   errors.Code = "METHOD_NOT_ALLOWED"
	errCodeTooLarge errors.Code = "REQUEST_TOO_LARGE"
)

func errNotFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

func errMethod(method, path string) error {
	return errors.New(errCodeMethod, "%s not allowed on %s", method, path)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCodeOr(err, errors.ErrCodeInternal)
	status := StatusCode(code)
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err, "request_id", RequestID(r.Context()))
		if code == errors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg, RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
