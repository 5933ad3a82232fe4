package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/authcache/cache"
)

func ExampleNewMemoryStore() {
	s := cache.NewMemoryStore()
	ctx := context.Background()

	key := cache.ValidationKey("some-bearer-token")

	// Store a validation result
	_ = s.Set(ctx, key, []byte(`{"authenticated":true}`), 5*time.Minute)

	// Retrieve it
	value, ok, _ := s.Get(ctx, key)
	if ok {
		fmt.Println("Cached:", string(value))
	}
	// Output:
	// Cached: {"authenticated":true}
}

func ExampleTTLPolicy_ValidationTTL() {
	policy := cache.DefaultTTLPolicy()
	now := time.Unix(1_800_000_000, 0)

	// Token expiring in 300s: remaining lifetime minus the 30s buffer.
	fmt.Println(policy.ValidationTTL(now.Unix()+300, now))

	// Token with no expiry claim: the configured maximum.
	fmt.Println(policy.ValidationTTL(0, now))
	// Output:
	// 4m30s
	// 15m0s
}
