package qiwi

import (
	"fmt"

	"github.com/pkg/errors"
)

// Validation and domain failures. All of them are returned before any
// request is sent, except ErrBillFinished which is also a possible remote
// rejection when no cached bill is available locally.
var (
	ErrInvalidAmountValue        = errors.New("invalid amount value")
	ErrInvalidThemeCode          = errors.New("invalid theme code")
	ErrInvalidExpirationDate     = errors.New("invalid expiration date")
	ErrInvalidExpirationDateTime = errors.New("invalid expiration date time")
	ErrInvalidComment            = errors.New("invalid comment")
	ErrBillFinished              = errors.New("bill already finished")
)

// APIError is a non-2xx response from the payment API. The body is kept
// raw and unparsed; callers decide whether and how to decode it.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("api responded with status %d", e.StatusCode)
	}
	return string(e.Body)
}
