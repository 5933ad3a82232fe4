// Package cache defines the key/value store boundary used by the
// authorization cache, plus the pieces that decide what a result is
// stored under and for how long: deterministic key derivation from raw
// token material and user ids, and the expiry-aware TTL policy for
// validation results.
//
// Two Store implementations are provided: an in-process MemoryStore and
// a Redis-backed RedisStore. The store is an optimization, never a
// dependency: callers treat every Get/Set/Delete as fallible and degrade
// locally when it fails.
package cache
