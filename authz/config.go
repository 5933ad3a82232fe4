package authz

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/authcache/cache"
	"github.com/jonwraymond/authcache/controller"
	"github.com/jonwraymond/authcache/credential"
	"github.com/jonwraymond/authcache/observe"
)

var (
	// ErrNilStore is returned by New when no cache store is supplied.
	ErrNilStore = errors.New("authz: store is required")

	// ErrNilController is returned by New when no controller client is
	// supplied.
	ErrNilController = errors.New("authz: controller client is required")
)

// Config assembles a Service.
//
// Store and Controller are required. Everything else has a working
// default: zero TTLs are filled in from cache.DefaultTTLPolicy, a nil
// DefaultStrategy means plain bearer authentication, and nil observers
// become no-ops.
type Config struct {
	// Store holds cached validation, identity, and permission records.
	Store cache.Store

	// Controller is the remote identity controller.
	Controller controller.Client

	// TTL controls record lifetimes. Zero fields take defaults.
	TTL cache.TTLPolicy

	// StaticAPIKey, when non-empty, short-circuits every read for
	// tokens that match it exactly: validation reports true and
	// identity reports no profile, with no cache or remote traffic.
	// Intended for test harnesses only.
	StaticAPIKey string

	// DefaultStrategy applies to calls that do not carry their own
	// strategy. Nil means bearer-token only.
	DefaultStrategy *credential.Strategy

	// PermissionQuery is forwarded on permission lookups, e.g. scope
	// filters. May be nil.
	PermissionQuery map[string]string

	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer
}

// Service is the authorization cache. Safe for concurrent use.
type Service struct {
	store    cache.Store
	ctrl     controller.Client
	ttl      cache.TTLPolicy
	apiKey   string
	strategy *credential.Strategy
	query    map[string]string

	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
}

// New builds a Service from cfg. Misconfiguration is surfaced here, not
// at call time: a DefaultStrategy whose methods cannot be satisfied is
// rejected immediately.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Controller == nil {
		return nil, ErrNilController
	}
	if cfg.DefaultStrategy != nil {
		// Bearer tokens are attached per call, so validate against a
		// resolved copy rather than the bare template.
		probe := credential.Resolve(cfg.DefaultStrategy, "probe")
		if err := probe.Validate(); err != nil {
			return nil, fmt.Errorf("authz: default strategy: %w", err)
		}
	}

	s := &Service{
		store:    cfg.Store,
		ctrl:     cfg.Controller,
		ttl:      cfg.TTL.Normalize(),
		apiKey:   cfg.StaticAPIKey,
		strategy: cfg.DefaultStrategy,
		query:    cfg.PermissionQuery,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
	}
	if s.logger == nil {
		s.logger = observe.NewNoopLogger()
	}
	s.logger = s.logger.WithComponent("authz")
	if s.metrics == nil {
		s.metrics = observe.NewNoopMetrics()
	}
	if s.tracer == nil {
		s.tracer = observe.NewNoopTracer()
	}
	return s, nil
}

// bypass reports whether token is the configured static API key.
func (s *Service) bypass(token string) bool {
	return s.apiKey != "" && token == s.apiKey
}

// strategyOr picks the per-call strategy when present, otherwise the
// configured default.
func (s *Service) strategyOr(strat *credential.Strategy) *credential.Strategy {
	if strat != nil {
		return strat
	}
	return s.strategy
}
