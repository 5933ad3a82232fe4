package controller

import (
	"errors"
	"fmt"
)

// Sentinel errors for controller calls.
var (
	ErrCallFailed          = errors.New("controller: call failed")
	ErrUnexpectedEnvelope  = errors.New("controller: unexpected response envelope")
	ErrMissingClientToken  = errors.New("controller: client-token method requires a configured client token")
	ErrMissingClientID     = errors.New("controller: client-credentials method requires client id and secret")
)

// StatusError is returned when the controller answers with a non-2xx
// status. It preserves the code so callers can classify rejections
// (e.g. treating a 400 on logout as an already-ended session).
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("controller: remote status %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("controller: remote status %s", e.Status)
}

// IsStatus reports whether err carries a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
