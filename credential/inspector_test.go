package credential

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signToken builds an HS256 token with the given claims. Signature
// validity is irrelevant to inspection, but a properly signed token keeps
// the fixtures realistic.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return signed
}

func TestInspect_Subject(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{
			name:   "sub claim",
			claims: jwt.MapClaims{"sub": "user-1"},
			want:   "user-1",
		},
		{
			name:   "user_id claim",
			claims: jwt.MapClaims{"user_id": "user-2"},
			want:   "user-2",
		},
		{
			name:   "uid claim",
			claims: jwt.MapClaims{"uid": "user-3"},
			want:   "user-3",
		},
		{
			name:   "id claim",
			claims: jwt.MapClaims{"id": "user-4"},
			want:   "user-4",
		},
		{
			name:   "sub wins over user_id",
			claims: jwt.MapClaims{"sub": "primary", "user_id": "secondary"},
			want:   "primary",
		},
		{
			name:   "empty sub falls through to user_id",
			claims: jwt.MapClaims{"sub": "", "user_id": "fallback"},
			want:   "fallback",
		},
		{
			name:   "non-string subject ignored",
			claims: jwt.MapClaims{"sub": 42},
			want:   "",
		},
		{
			name:   "no subject claims",
			claims: jwt.MapClaims{"aud": "someone"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signToken(t, tt.claims)
			if got := Subject(token); got != tt.want {
				t.Errorf("Subject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInspect_Expiry(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Unix()
	token := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": exp})

	if got := Expiry(token); got != exp {
		t.Errorf("Expiry() = %d, want %d", got, exp)
	}
}

func TestInspect_NoExpiry(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "user-1"})

	if got := Expiry(token); got != 0 {
		t.Errorf("Expiry() = %d, want 0", got)
	}
}

func TestInspect_MalformedTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "opaque token", token: "not-a-jwt"},
		{name: "two segments", token: "aaaa.bbbb"},
		{name: "invalid base64 payload", token: "aaaa.!!!!.cccc"},
		{name: "payload not json", token: "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Inspect(tt.token)
			if got.Subject != "" || got.Expiry != 0 {
				t.Errorf("Inspect(%q) = %+v, want zero Claims", tt.token, got)
			}
		})
	}
}

func TestInspect_Deterministic(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": float64(1900000000)})

	first := Inspect(token)
	for i := 0; i < 3; i++ {
		if got := Inspect(token); got != first {
			t.Errorf("Inspect() iteration %d = %+v, want %+v", i, got, first)
		}
	}
}
