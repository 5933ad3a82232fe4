package authz

import (
	"time"

	"github.com/jonwraymond/authcache/controller"
)

// ValidationRecord is the cached outcome of a token validation. Negative
// outcomes are cached too, so repeated presentations of a bad token are
// answered without a remote round trip.
type ValidationRecord struct {
	Authenticated bool      `json:"authenticated"`
	Timestamp     time.Time `json:"timestamp"`
}

// UserRecord is the cached identity of an authenticated user, keyed by
// the subject claim of their token.
type UserRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PermissionRecord is the cached permission set of a user.
type PermissionRecord struct {
	Permissions []string  `json:"permissions"`
	Timestamp   time.Time `json:"timestamp"`
}

func userRecordFrom(u *controller.User) *UserRecord {
	return &UserRecord{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Timestamp: time.Now().UTC(),
	}
}
