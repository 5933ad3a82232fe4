package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key namespaces. Each record family lives under its own fixed prefix so
// entries can be invalidated independently.
const (
	validationPrefix = "token_validation:"
	identityPrefix   = "user_info:"
	permissionPrefix = "user_permissions:"
)

// ValidationKey derives the cache key for a token-validation result.
//
// The key is a one-way SHA-256 digest of the raw token string, never of
// extracted claims: the key stays computable for undecodable tokens, and
// no user-identifying claim value ends up verbatim in a key that may
// appear in cache-backend logs or metrics.
func ValidationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return validationPrefix + hex.EncodeToString(sum[:])
}

// IdentityKey derives the cache key for a user-identity record. User ids
// are unique by construction upstream and are not secret, so a plain
// namespaced concatenation is sufficient.
func IdentityKey(userID string) string {
	return identityPrefix + userID
}

// PermissionKey derives the cache key for a user's permission record.
func PermissionKey(userID string) string {
	return permissionPrefix + userID
}
