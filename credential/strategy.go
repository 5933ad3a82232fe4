package credential

import "fmt"

// Method identifies an authentication method a client may present to the
// identity controller.
type Method string

const (
	MethodBearer            Method = "bearer"
	MethodClientToken       Method = "client-token"
	MethodClientCredentials Method = "client-credentials"
	MethodAPIKey            Method = "api-key"
)

// knownMethods is the fixed set of valid method identifiers.
var knownMethods = map[Method]bool{
	MethodBearer:            true,
	MethodClientToken:       true,
	MethodClientCredentials: true,
	MethodAPIKey:            true,
}

// Strategy is an ordered set of authentication methods plus the material
// needed by whichever methods are selected. Method order is the priority
// order for the transport layer to attempt; this package only guarantees
// the required material is populated.
type Strategy struct {
	// Methods is the ordered list of methods to present.
	Methods []Method

	// BearerToken is the token presented when MethodBearer is listed.
	BearerToken string

	// APIKey is the key presented when MethodAPIKey is listed.
	APIKey string
}

// Requires reports whether the strategy lists the given method.
func (s Strategy) Requires(m Method) bool {
	for _, sm := range s.Methods {
		if sm == m {
			return true
		}
	}
	return false
}

// Validate checks that every listed method has the material it needs.
// A violation is a configuration defect and is surfaced, never swallowed.
func (s Strategy) Validate() error {
	if len(s.Methods) == 0 {
		return ErrNoMethods
	}
	for _, m := range s.Methods {
		if !knownMethods[m] {
			return fmt.Errorf("%w: %q", ErrUnknownMethod, m)
		}
	}
	if s.Requires(MethodBearer) && s.BearerToken == "" {
		return ErrMissingBearerToken
	}
	if s.Requires(MethodAPIKey) && s.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// clone returns a copy with an independent Methods slice.
func (s Strategy) clone() Strategy {
	out := s
	out.Methods = make([]Method, len(s.Methods))
	copy(out.Methods, s.Methods)
	return out
}

// Resolve produces the effective strategy for a call validating token.
//
// With a nil base the default is a bearer-only strategy carrying the
// token. With a base, the result is a copy whose BearerToken is forcibly
// overwritten to the token under validation: callers choose which methods
// are tried, but may never present a different bearer token than the one
// being validated.
func Resolve(base *Strategy, token string) Strategy {
	if base == nil {
		return Strategy{
			Methods:     []Method{MethodBearer},
			BearerToken: token,
		}
	}

	out := base.clone()
	out.BearerToken = token
	return out
}
