// Package authz is the authorization cache: it answers "is this token
// valid", "who is this user", and "what can they do" with cache-aside
// semantics against the remote identity controller.
//
// Advisory reads (validation, user lookup, permission checks) never
// return errors; any failure anywhere in their path degrades to a safe
// negative, because "unable to prove valid" must default to "not
// authenticated". Explicit actions (login, logout, token refresh) return
// structured failures carrying a correlation id. The cache is an
// optimization, never a dependency: store failures are always recovered
// locally.
package authz
