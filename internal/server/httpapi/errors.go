package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sealdrop/internal/common"
)

type messageResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden), errors.Is(err, common.ErrAccountRejected):
		return http.StatusForbidden
	case errors.Is(err, common.ErrInvalidTransition),
		errors.Is(err, common.ErrEscrowMissing),
		errors.Is(err, common.ErrEscrowCorrupt),
		errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrorIncorrectMetadata):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrBlobUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"message", "code"}. Only validation errors
// carry their detail; everything else is reduced to its sentinel text.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := common.CodeOf(err)

	msg := "internal error"
	switch {
	case status == http.StatusInternalServerError:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	case status == http.StatusBadRequest:
		msg = err.Error()
	default:
		if sentinel := common.ErrorForCode(code); sentinel != nil {
			msg = sentinel.Error()
		}
		if status == http.StatusConflict || status == http.StatusBadGateway {
			s.logger.Warn(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		}
	}

	writeJSON(w, status, messageResponse{Message: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}
