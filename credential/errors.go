package credential

import "errors"

// Sentinel errors for strategy resolution.
//
// These indicate a configuration defect (a method was requested without
// the material it needs) and are surfaced to callers rather than
// swallowed.
var (
	ErrMissingBearerToken = errors.New("credential: bearer method requires a bearer token")
	ErrMissingAPIKey      = errors.New("credential: api-key method requires an api key")
	ErrNoMethods          = errors.New("credential: strategy has no methods")
	ErrUnknownMethod      = errors.New("credential: unknown method")
)
