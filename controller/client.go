package controller

import (
	"context"

	"github.com/jonwraymond/authcache/credential"
)

// User is the identity payload returned by the controller.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ValidateResult is the controller's answer to a validation or user
// lookup. The controller may report authenticated without attaching a
// user payload.
type ValidateResult struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// LoginResult carries the redirect URL for an interactive login.
type LoginResult struct {
	LoginURL string `json:"loginUrl"`
	State    string `json:"state"`
}

// LogoutResult reports the outcome of a logout.
type LogoutResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TokenPair is the result of a token refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Client is the boundary to the remote identity controller.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines.
// - Errors: any transport or remote failure is returned as an error;
//   HTTP rejections carry a *StatusError in the chain.
type Client interface {
	// ValidateToken asks the controller whether the token is valid.
	ValidateToken(ctx context.Context, token string, strat credential.Strategy) (*ValidateResult, error)

	// GetUser fetches the identity behind the presented credentials.
	GetUser(ctx context.Context, strat credential.Strategy) (*ValidateResult, error)

	// Login starts an interactive login flow.
	Login(ctx context.Context, redirect, state string) (*LoginResult, error)

	// Logout ends the session behind the token.
	Logout(ctx context.Context, token string) (*LogoutResult, error)

	// RefreshToken exchanges a refresh token for a new token pair.
	RefreshToken(ctx context.Context, refreshToken string, strat credential.Strategy) (*TokenPair, error)

	// GetPermissions fetches the permissions of the presented identity.
	GetPermissions(ctx context.Context, query map[string]string, strat credential.Strategy) ([]string, error)

	// RefreshPermissions recomputes permissions server-side and returns
	// the fresh list.
	RefreshPermissions(ctx context.Context, query map[string]string, strat credential.Strategy) ([]string, error)
}
