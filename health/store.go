package health

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/authcache/cache"
)

// probeTTL keeps probe entries from accumulating if a delete is lost.
const probeTTL = 30 * time.Second

// ErrProbeMismatch indicates the store returned a different value than
// was written, which usually means a corrupt or misconfigured backend.
var ErrProbeMismatch = errors.New("health: store probe value mismatch")

// StoreChecker probes a cache.Store with a set/get/delete round trip.
//
// Each probe writes under a unique "health:" namespaced key so concurrent
// probes never interfere with each other or with live cache entries.
type StoreChecker struct {
	store cache.Store
}

// NewStoreChecker creates a checker for the given store.
func NewStoreChecker(store cache.Store) *StoreChecker {
	return &StoreChecker{store: store}
}

// Name returns "cache_store".
func (c *StoreChecker) Name() string {
	return "cache_store"
}

// Check performs the round-trip probe.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if c.store == nil {
		return Unhealthy("store is nil", cache.ErrNilStore)
	}

	start := time.Now()
	key := "health:" + uuid.NewString()
	value := []byte(`{"probe":true}`)

	if err := c.store.Set(ctx, key, value, probeTTL); err != nil {
		return Unhealthy("store set failed", err).WithDuration(time.Since(start))
	}

	got, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return Unhealthy("store get failed", err).WithDuration(time.Since(start))
	}
	if !ok || !bytes.Equal(got, value) {
		return Unhealthy("store returned wrong probe value", ErrProbeMismatch).WithDuration(time.Since(start))
	}

	// A failed cleanup still leaves the store usable; the TTL bounds the
	// leak, so report degraded rather than unhealthy.
	if err := c.store.Delete(ctx, key); err != nil {
		return Degraded(fmt.Sprintf("store delete failed: %v", err)).WithDuration(time.Since(start))
	}

	elapsed := time.Since(start)
	return Healthy(fmt.Sprintf("round trip in %v", elapsed)).WithDuration(elapsed)
}

// Ensure StoreChecker implements Checker
var _ Checker = (*StoreChecker)(nil)
