package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonwraymond/authcache/observe"
)

// ActionError wraps a failed action (login, logout, token refresh) with
// the operation name and a correlation id. The id is generated once per
// failure and appears both here and in the error log line, so a caller
// report can be matched to server-side logs.
type ActionError struct {
	// Op is the failed operation, e.g. "logout".
	Op string

	// CorrelationID ties this error to its log entry.
	CorrelationID string

	// Err is the underlying failure.
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("authz: %s failed (correlation %s): %v", e.Op, e.CorrelationID, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// actionError builds an *ActionError for op and logs it at error level
// with the shared correlation id.
func (s *Service) actionError(ctx context.Context, op string, err error) *ActionError {
	aerr := &ActionError{
		Op:            op,
		CorrelationID: uuid.NewString(),
		Err:           err,
	}
	s.logger.Error(ctx, "action failed",
		observe.Field{Key: "op", Value: op},
		observe.Field{Key: "correlation_id", Value: aerr.CorrelationID},
		observe.Field{Key: "error", Value: err.Error()})
	return aerr
}
