// Package health provides liveness probing for the authorization cache's
// external collaborators.
//
// The cache store is the one dependency whose silent failure degrades
// every hot-path operation to a remote call, so embedding services
// typically wire StoreChecker into their readiness endpoint.
package health
