// Package credential provides bearer-token inspection and credential
// strategy resolution.
//
// Inspection extracts claims from a JWT payload without verifying the
// signature. Extracted claims are hints for cache keying and TTL
// computation only; they are never an authorization decision. Strategy
// resolution determines which authentication methods an outgoing request
// to the identity controller should carry.
package credential
