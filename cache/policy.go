package cache

import "time"

// ExpiryBuffer is subtracted from a token's remaining lifetime when
// computing a validation TTL, as a safety margin against clock skew and
// in-flight latency.
const ExpiryBuffer = 30 * time.Second

// Default TTLs.
const (
	DefaultMinValidationTTL = 60 * time.Second
	DefaultMaxValidationTTL = 900 * time.Second
	DefaultUserTTL          = 300 * time.Second
	DefaultPermissionTTL    = 900 * time.Second
)

// TTLPolicy decides how long each record family is cached.
//
// Validation results are expiry-aware: the TTL tracks the token's own exp
// claim when present. User and permission records always use a single
// fixed TTL, because their lifecycle is not tied to any one token.
type TTLPolicy struct {
	// MinValidation is the floor for validation TTLs.
	MinValidation time.Duration

	// MaxValidation is the ceiling for validation TTLs, and the
	// fallback when a token carries no expiry claim.
	MaxValidation time.Duration

	// User is the fixed TTL for user-identity records.
	User time.Duration

	// Permission is the fixed TTL for permission records.
	Permission time.Duration
}

// DefaultTTLPolicy returns the default policy:
// validation 60s-900s, user 300s, permissions 900s.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		MinValidation: DefaultMinValidationTTL,
		MaxValidation: DefaultMaxValidationTTL,
		User:          DefaultUserTTL,
		Permission:    DefaultPermissionTTL,
	}
}

// withDefaults fills zero fields with the default values.
func (p TTLPolicy) withDefaults() TTLPolicy {
	if p.MinValidation <= 0 {
		p.MinValidation = DefaultMinValidationTTL
	}
	if p.MaxValidation <= 0 {
		p.MaxValidation = DefaultMaxValidationTTL
	}
	if p.User <= 0 {
		p.User = DefaultUserTTL
	}
	if p.Permission <= 0 {
		p.Permission = DefaultPermissionTTL
	}
	return p
}

// Normalize returns a copy of the policy with defaults applied to zero
// fields.
func (p TTLPolicy) Normalize() TTLPolicy {
	return p.withDefaults()
}

// ValidationTTL computes the cache lifetime for a validation result.
//
// expiry is the token's exp claim as unix seconds, or 0 when absent.
// Without an expiry claim the result is MaxValidation unconditionally:
// when no better signal exists, cache as long as generally configured.
// With one, remaining lifetime minus ExpiryBuffer is clamped into
// [MinValidation, MaxValidation]. An already-expired token still clamps
// up to MinValidation: a just-validated result is cached briefly even on
// the verge of expiry, trading a small staleness window for avoiding a
// stampede.
func (p TTLPolicy) ValidationTTL(expiry int64, now time.Time) time.Duration {
	p = p.withDefaults()

	if expiry <= 0 {
		return p.MaxValidation
	}

	raw := time.Unix(expiry, 0).Sub(now) - ExpiryBuffer
	if raw < p.MinValidation {
		return p.MinValidation
	}
	if raw > p.MaxValidation {
		return p.MaxValidation
	}
	return raw
}
