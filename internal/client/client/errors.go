package client

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sealdrop/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrFileTooLarge = errors.New("file too large")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx response. It unwraps to the common sentinel named by
// the response code, or to one chosen from the status when no code was sent.
type APIError struct {
	Status  int
	Message string
	err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

func (e *APIError) Unwrap() error {
	return e.err
}

func newAPIError(status int, message, code string) *APIError {
	err := common.ErrorForCode(code)
	if err == nil {
		err = errorForStatus(status)
	}
	return &APIError{Status: status, Message: message, err: err}
}

func errorForStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return common.ErrorIncorrectMetadata
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusRequestEntityTooLarge:
		return ErrFileTooLarge
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	}
	return common.ErrorInternal
}
