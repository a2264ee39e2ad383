package api

import (
	"errors"

	"github.com/samcharles93/charrnn/internal/inference"
	"github.com/samcharles93/charrnn/internal/model"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// isClientError reports whether err was caused by the request rather than
// the server.
func isClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, inference.ErrInvalidTemperature) ||
		errors.Is(err, model.ErrEmptyInput) ||
		errors.Is(err, model.ErrStateMismatch)
}
