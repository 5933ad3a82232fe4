package credential

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// subjectClaims are the claim names checked for a subject id, in priority
// order. The first non-empty string value wins.
var subjectClaims = []string{"sub", "user_id", "uid", "id"}

// Claims holds the token claims this package extracts.
//
// A zero-value field means the claim was absent or the token could not be
// decoded; callers cannot (and must not) distinguish the two cases.
type Claims struct {
	// Subject is the user id carried by the token, or "" if none.
	Subject string

	// Expiry is the exp claim as unix seconds, or 0 if none.
	Expiry int64
}

// Inspect extracts claims from a bearer token without verifying its
// signature. It is pure and network-free, and never returns an error:
// a malformed or undecodable token yields zero Claims.
func Inspect(token string) Claims {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Claims{}
	}

	var out Claims

	for _, name := range subjectClaims {
		if s, ok := claims[name].(string); ok && s != "" {
			out.Subject = s
			break
		}
	}

	out.Expiry = numericClaim(claims, "exp")

	return out
}

// Subject returns the subject id carried by the token, or "" if the token
// is undecodable or carries none.
func Subject(token string) string {
	return Inspect(token).Subject
}

// Expiry returns the exp claim as unix seconds, or 0 if the token is
// undecodable or carries none.
func Expiry(token string) int64 {
	return Inspect(token).Expiry
}

// numericClaim reads a claim that JSON decoding may have produced as
// float64 or json.Number depending on parser options.
func numericClaim(claims jwt.MapClaims, name string) int64 {
	switch v := claims[name].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0
			}
			return int64(f)
		}
		return n
	case int64:
		return v
	default:
		return 0
	}
}
