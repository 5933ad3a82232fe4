package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/authcache/cache"
	"github.com/jonwraymond/authcache/controller"
	"github.com/jonwraymond/authcache/credential"
	"github.com/jonwraymond/authcache/observe"
)

var (
	opValidate           = observe.Op{Component: "authz", Name: "validate"}
	opGetUser            = observe.Op{Component: "authz", Name: "get_user"}
	opGetUserInfo        = observe.Op{Component: "authz", Name: "get_user_info"}
	opGetPermissions     = observe.Op{Component: "authz", Name: "get_permissions"}
	opRefreshPermissions = observe.Op{Component: "authz", Name: "refresh_permissions"}
	opLogin              = observe.Op{Component: "authz", Name: "login"}
	opLogout             = observe.Op{Component: "authz", Name: "logout"}
	opRefreshToken       = observe.Op{Component: "authz", Name: "refresh_token"}
)

// done closes out an operation's span and metrics in one place.
func (s *Service) done(ctx context.Context, op observe.Op, span trace.Span, start time.Time, outcome observe.Outcome, err error) {
	s.tracer.EndSpan(span, err)
	s.metrics.RecordOp(ctx, op, outcome, time.Since(start))
}

// Validate reports whether token is currently authenticated.
//
// Order: static API key bypass, then cache, then remote. Both positive
// and negative remote verdicts are cached, with a TTL derived from the
// token's own expiry. Any failure degrades to false; in particular a
// cache read failure returns false immediately, without attempting the
// remote call, so a degraded cache backend cannot turn into a thundering
// herd against the controller.
func (s *Service) Validate(ctx context.Context, token string, strat *credential.Strategy) bool {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, opValidate)

	if s.bypass(token) {
		s.done(ctx, opValidate, span, start, observe.OutcomeBypass, nil)
		return true
	}

	key := cache.ValidationKey(token)
	if rec, state := s.readValidation(ctx, key); state == readError {
		s.done(ctx, opValidate, span, start, observe.OutcomeError, nil)
		return false
	} else if state == readHit {
		s.done(ctx, opValidate, span, start, observe.OutcomeHit, nil)
		return rec.Authenticated
	}

	authenticated, err := s.validateRemote(ctx, token, strat, key)
	if err != nil {
		s.logger.Warn(ctx, "token validation failed",
			observe.Field{Key: "error", Value: err.Error()})
		s.done(ctx, opValidate, span, start, observe.OutcomeError, err)
		return false
	}
	s.done(ctx, opValidate, span, start, observe.OutcomeMiss, nil)
	return authenticated
}

// IsAuthenticated is an alias of Validate.
func (s *Service) IsAuthenticated(ctx context.Context, token string, strat *credential.Strategy) bool {
	return s.Validate(ctx, token, strat)
}

// GetUser returns the user behind token, or nil when the token is not
// authenticated or the lookup fails.
//
// The validation cache is consulted first: a cached negative verdict
// answers nil without a remote call, and a cache failure degrades to nil
// the same way Validate degrades to false. On a cache miss (or a cached
// positive) the remote lookup runs and its verdict is re-cached.
func (s *Service) GetUser(ctx context.Context, token string, strat *credential.Strategy) *UserRecord {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, opGetUser)

	if s.bypass(token) {
		// The static key authenticates but has no profile.
		s.done(ctx, opGetUser, span, start, observe.OutcomeBypass, nil)
		return nil
	}

	key := cache.ValidationKey(token)
	if rec, state := s.readValidation(ctx, key); state == readError {
		s.done(ctx, opGetUser, span, start, observe.OutcomeError, nil)
		return nil
	} else if state == readHit && !rec.Authenticated {
		s.done(ctx, opGetUser, span, start, observe.OutcomeHit, nil)
		return nil
	}

	eff := credential.Resolve(s.strategyOr(strat), token)
	if err := eff.Validate(); err != nil {
		s.logger.Warn(ctx, "user lookup strategy invalid",
			observe.Field{Key: "error", Value: err.Error()})
		s.done(ctx, opGetUser, span, start, observe.OutcomeError, err)
		return nil
	}

	res, err := s.ctrl.GetUser(ctx, eff)
	if err != nil {
		s.logger.Warn(ctx, "user lookup failed",
			observe.Field{Key: "error", Value: err.Error()})
		s.done(ctx, opGetUser, span, start, observe.OutcomeError, err)
		return nil
	}

	s.writeValidation(ctx, key, token, res.Authenticated)
	if !res.Authenticated || res.User == nil {
		s.done(ctx, opGetUser, span, start, observe.OutcomeMiss, nil)
		return nil
	}
	s.done(ctx, opGetUser, span, start, observe.OutcomeMiss, nil)
	return userRecordFrom(res.User)
}

// GetUserInfo returns the identity record for token's subject, serving
// from the identity cache when possible.
//
// The cache key is the subject claim extracted (unverified) from the
// token. Tokens with no extractable subject are still answered, via the
// remote lookup, but the result is not cached: there is no stable key to
// file it under. Failures degrade to nil.
func (s *Service) GetUserInfo(ctx context.Context, token string, strat *credential.Strategy) *UserRecord {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, opGetUserInfo)

	if s.bypass(token) {
		s.done(ctx, opGetUserInfo, span, start, observe.OutcomeBypass, nil)
		return nil
	}

	subject := credential.Subject(token)
	if subject != "" {
		raw, ok, err := s.store.Get(ctx, cache.IdentityKey(subject))
		if err != nil {
			s.logger.Warn(ctx, "identity cache read failed",
				observe.Field{Key: "error", Value: err.Error()})
			s.done(ctx, opGetUserInfo, span, start, observe.OutcomeError, nil)
			return nil
		}
		if ok {
			var rec UserRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				s.logger.Warn(ctx, "identity cache entry corrupt",
					observe.Field{Key: "error", Value: err.Error()})
				s.done(ctx, opGetUserInfo, span, start, observe.OutcomeError, nil)
				return nil
			}
			s.done(ctx, opGetUserInfo, span, start, observe.OutcomeHit, nil)
			return &rec
		}
	}

	eff := credential.Resolve(s.strategyOr(strat), token)
	if err := eff.Validate(); err != nil {
		s.logger.Warn(ctx, "identity lookup strategy invalid",
			observe.Field{Key: "error", Value: err.Error()})
		s.done(ctx, opGetUserInfo, span, start, observe.OutcomeError, err)
		return nil
	}

	res, err := s.ctrl.GetUser(ctx, eff)
	if err != nil {
		s.logger.Warn(ctx, "identity lookup failed",
			observe.Field{Key: "error", Value: err.Error()})
		s.done(ctx, opGetUserInfo, span, start, observe.OutcomeError, err)
		return nil
	}
	if !res.Authenticated || res.User == nil {
		s.done(ctx, opGetUserInfo, span, start, observe.OutcomeMiss, nil)
		return nil
	}

	rec := userRecordFrom(res.User)
	if subject != "" {
		s.writeRecord(ctx, cache.IdentityKey(subject), rec, s.ttl.User, "identity")
	}
	s.done(ctx, opGetUserInfo, span, start, observe.OutcomeMiss, nil)
	return rec
}

// GetPermissions returns the permission set for token's subject, serving
// from cache when possible. Failures degrade to nil.
func (s *Service) GetPermissions(ctx context.Context, token string, strat *credential.Strategy) []string {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, opGetPermissions)

	if s.bypass(token) {
		s.done(ctx, opGetPermissions, span, start, observe.OutcomeBypass, nil)
		return nil
	}

	subject := credential.Subject(token)
	if subject != "" {
		raw, ok, err := s.store.Get(ctx, cache.PermissionKey(subject))
		if err != nil {
			s.logger.Warn(ctx, "permission cache read failed",
				observe.Field{Key: "error", Value: err.Error()})
			s.done(ctx, opGetPermissions, span, start, observe.OutcomeError, nil)
			return nil
		}
		if ok {
			var rec PermissionRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				s.logger.Warn(ctx, "permission cache entry corrupt",
					observe.Field{Key: "error", Value: err.Error()})
				s.done(ctx, opGetPermissions, span, start, observe.OutcomeError, nil)
				return nil
			}
			s.done(ctx, opGetPermissions, span, start, observe.OutcomeHit, nil)
			return rec.Permissions
		}
	}

	perms, err := s.fetchPermissions(ctx, token, strat, subject, false)
	if err != nil {
		s.logger.Warn(ctx, "permission lookup failed",
			observe.Field{Key: "error", Value: err.Error()})
		s.done(ctx, opGetPermissions, span, start, observe.OutcomeError, err)
		return nil
	}
	s.done(ctx, opGetPermissions, span, start, observe.OutcomeMiss, nil)
	return perms
}

// HasPermission reports whether token's subject holds perm.
func (s *Service) HasPermission(ctx context.Context, token, perm string) bool {
	return slices.Contains(s.GetPermissions(ctx, token, nil), perm)
}

// HasAnyPermission reports whether token's subject holds at least one of
// perms. An empty perms list is false: there is nothing to satisfy it.
func (s *Service) HasAnyPermission(ctx context.Context, token string, perms []string) bool {
	if len(perms) == 0 {
		return false
	}
	held := s.GetPermissions(ctx, token, nil)
	for _, p := range perms {
		if slices.Contains(held, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether token's subject holds every one of
// perms. An empty perms list is vacuously true, without any lookup.
func (s *Service) HasAllPermissions(ctx context.Context, token string, perms []string) bool {
	if len(perms) == 0 {
		return true
	}
	held := s.GetPermissions(ctx, token, nil)
	for _, p := range perms {
		if !slices.Contains(held, p) {
			return false
		}
	}
	return true
}

// RefreshPermissions forces a recomputation of the subject's permissions
// upstream, bypassing the cache, and re-caches the fresh set. Failures
// degrade to nil like the other permission reads.
func (s *Service) RefreshPermissions(ctx context.Context, token string, strat *credential.Strategy) []string {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, opRefreshPermissions)

	if s.bypass(token) {
		s.done(ctx, opRefreshPermissions, span, start, observe.OutcomeBypass, nil)
		return nil
	}

	perms, err := s.fetchPermissions(ctx, token, strat, credential.Subject(token), true)
	if err != nil {
		s.logger.Warn(ctx, "permission refresh failed",
			observe.Field{Key: "error", Value: err.Error()})
		s.done(ctx, opRefreshPermissions, span, start, observe.OutcomeError, err)
		return nil
	}
	s.done(ctx, opRefreshPermissions, span, start, observe.OutcomeMiss, nil)
	return perms
}

// Login starts an interactive login flow. This is an action, not an
// advisory read: failures come back as an *ActionError.
func (s *Service) Login(ctx context.Context, redirect, state string) (*controller.LoginResult, error) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, opLogin)

	res, err := s.ctrl.Login(ctx, redirect, state)
	if err != nil {
		aerr := s.actionError(ctx, "login", err)
		s.done(ctx, opLogin, span, start, observe.OutcomeError, aerr)
		return nil, aerr
	}
	s.done(ctx, opLogin, span, start, observe.OutcomeMiss, nil)
	return res, nil
}

// Logout terminates token's session upstream and invalidates its cached
// validation and identity records.
//
// A 400 from the controller means there was no active session to
// terminate. The desired end state, "not logged in", already holds, so
// that case is reported as success rather than failure, and the cache is
// still invalidated. Other failures come back as an *ActionError.
func (s *Service) Logout(ctx context.Context, token string) (*controller.LogoutResult, error) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, opLogout)

	res, err := s.ctrl.Logout(ctx, token)
	if err != nil {
		if controller.IsStatus(err, http.StatusBadRequest) {
			s.invalidateSession(ctx, token)
			s.done(ctx, opLogout, span, start, observe.OutcomeMiss, nil)
			return &controller.LogoutResult{
				Success: true,
				Message: "Logout successful (no active session)",
			}, nil
		}
		aerr := s.actionError(ctx, "logout", err)
		s.done(ctx, opLogout, span, start, observe.OutcomeError, aerr)
		return nil, aerr
	}

	s.invalidateSession(ctx, token)
	s.done(ctx, opLogout, span, start, observe.OutcomeMiss, nil)
	return res, nil
}

// RefreshToken exchanges refreshToken for a new token pair. Failures
// come back as an *ActionError.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string, strat *credential.Strategy) (*controller.TokenPair, error) {
	start := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, opRefreshToken)

	eff := credential.Resolve(s.strategyOr(strat), refreshToken)
	if err := eff.Validate(); err != nil {
		aerr := s.actionError(ctx, "refresh_token", err)
		s.done(ctx, opRefreshToken, span, start, observe.OutcomeError, aerr)
		return nil, aerr
	}

	pair, err := s.ctrl.RefreshToken(ctx, refreshToken, eff)
	if err != nil {
		aerr := s.actionError(ctx, "refresh_token", err)
		s.done(ctx, opRefreshToken, span, start, observe.OutcomeError, aerr)
		return nil, aerr
	}
	s.done(ctx, opRefreshToken, span, start, observe.OutcomeMiss, nil)
	return pair, nil
}

// ClearTokenCache drops the cached validation record for token.
// Best-effort: failures are logged, not returned.
func (s *Service) ClearTokenCache(ctx context.Context, token string) {
	if err := s.store.Delete(ctx, cache.ValidationKey(token)); err != nil {
		s.logger.Warn(ctx, "validation cache delete failed",
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// ClearUserCache drops the cached identity record for token's subject.
// No-op when the token carries no extractable subject.
func (s *Service) ClearUserCache(ctx context.Context, token string) {
	subject := credential.Subject(token)
	if subject == "" {
		return
	}
	if err := s.store.Delete(ctx, cache.IdentityKey(subject)); err != nil {
		s.logger.Warn(ctx, "identity cache delete failed",
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// ClearPermissionsCache drops the cached permission record for token's
// subject. No-op when the token carries no extractable subject.
func (s *Service) ClearPermissionsCache(ctx context.Context, token string) {
	subject := credential.Subject(token)
	if subject == "" {
		return
	}
	if err := s.store.Delete(ctx, cache.PermissionKey(subject)); err != nil {
		s.logger.Warn(ctx, "permission cache delete failed",
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// readState classifies a validation-cache read.
type readState int

const (
	readMiss readState = iota
	readHit
	readError
)

// readValidation reads and decodes a validation record. A backend error
// or a corrupt entry both classify as readError, which callers treat as
// a hard negative without falling through to the remote controller.
func (s *Service) readValidation(ctx context.Context, key string) (ValidationRecord, readState) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "validation cache read failed",
			observe.Field{Key: "error", Value: err.Error()})
		return ValidationRecord{}, readError
	}
	if !ok {
		return ValidationRecord{}, readMiss
	}
	var rec ValidationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.Warn(ctx, "validation cache entry corrupt",
			observe.Field{Key: "error", Value: err.Error()})
		return ValidationRecord{}, readError
	}
	return rec, readHit
}

// validateRemote resolves credentials, asks the controller, and caches
// the verdict under key.
func (s *Service) validateRemote(ctx context.Context, token string, strat *credential.Strategy, key string) (bool, error) {
	eff := credential.Resolve(s.strategyOr(strat), token)
	if err := eff.Validate(); err != nil {
		return false, err
	}
	res, err := s.ctrl.ValidateToken(ctx, token, eff)
	if err != nil {
		return false, err
	}
	s.writeValidation(ctx, key, token, res.Authenticated)
	return res.Authenticated, nil
}

// writeValidation caches a validation verdict with an expiry-aware TTL.
func (s *Service) writeValidation(ctx context.Context, key, token string, authenticated bool) {
	rec := ValidationRecord{Authenticated: authenticated, Timestamp: time.Now().UTC()}
	ttl := s.ttl.ValidationTTL(credential.Expiry(token), time.Now())
	s.writeRecord(ctx, key, rec, ttl, "validation")
}

// writeRecord encodes and caches v under key, logging instead of
// returning failures: cache writes are always advisory.
func (s *Service) writeRecord(ctx context.Context, key string, v any, ttl time.Duration, family string) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn(ctx, family+" cache encode failed",
			observe.Field{Key: "error", Value: err.Error()})
		return
	}
	if err := s.store.Set(ctx, key, raw, ttl); err != nil {
		s.logger.Warn(ctx, family+" cache write failed",
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// fetchPermissions performs the remote permission lookup (or refresh)
// and re-caches the result when the token has a cacheable subject.
func (s *Service) fetchPermissions(ctx context.Context, token string, strat *credential.Strategy, subject string, refresh bool) ([]string, error) {
	eff := credential.Resolve(s.strategyOr(strat), token)
	if err := eff.Validate(); err != nil {
		return nil, err
	}

	var (
		perms []string
		err   error
	)
	if refresh {
		perms, err = s.ctrl.RefreshPermissions(ctx, s.query, eff)
	} else {
		perms, err = s.ctrl.GetPermissions(ctx, s.query, eff)
	}
	if err != nil {
		return nil, err
	}

	if subject != "" {
		rec := PermissionRecord{Permissions: perms, Timestamp: time.Now().UTC()}
		s.writeRecord(ctx, cache.PermissionKey(subject), rec, s.ttl.Permission, "permission")
	}
	return perms, nil
}

// invalidateSession drops the validation and identity records tied to
// token, in parallel. Logout must never fail because of the cache, so
// delete errors are logged and swallowed.
func (s *Service) invalidateSession(ctx context.Context, token string) {
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.Go(func() error {
		return s.store.Delete(ctx, cache.ValidationKey(token))
	})
	g.Go(func() error {
		subject := credential.Subject(token)
		if subject == "" {
			return nil
		}
		return s.store.Delete(ctx, cache.IdentityKey(subject))
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn(ctx, "session cache invalidation incomplete",
			observe.Field{Key: "error", Value: err.Error()})
	}
}
