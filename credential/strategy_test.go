package credential

import (
	"errors"
	"testing"
)

func TestResolve_NilBaseDefaultsToBearer(t *testing.T) {
	got := Resolve(nil, "token-abc")

	if len(got.Methods) != 1 || got.Methods[0] != MethodBearer {
		t.Errorf("Resolve(nil) methods = %v, want [bearer]", got.Methods)
	}
	if got.BearerToken != "token-abc" {
		t.Errorf("BearerToken = %q, want token-abc", got.BearerToken)
	}
}

func TestResolve_OverwritesBearerToken(t *testing.T) {
	base := &Strategy{
		Methods:     []Method{MethodClientToken, MethodBearer},
		BearerToken: "someone-elses-token",
		APIKey:      "key-1",
	}

	got := Resolve(base, "token-under-validation")

	if got.BearerToken != "token-under-validation" {
		t.Errorf("BearerToken = %q, want token-under-validation", got.BearerToken)
	}
	if got.APIKey != "key-1" {
		t.Errorf("APIKey = %q, want key-1", got.APIKey)
	}
	if len(got.Methods) != 2 || got.Methods[0] != MethodClientToken || got.Methods[1] != MethodBearer {
		t.Errorf("Methods = %v, want [client-token bearer]", got.Methods)
	}
}

func TestResolve_DoesNotMutateBase(t *testing.T) {
	base := &Strategy{
		Methods:     []Method{MethodBearer},
		BearerToken: "original",
	}

	got := Resolve(base, "replacement")

	if base.BearerToken != "original" {
		t.Errorf("base.BearerToken mutated to %q", base.BearerToken)
	}

	// Methods slice must be independent
	got.Methods[0] = MethodAPIKey
	if base.Methods[0] != MethodBearer {
		t.Errorf("base.Methods mutated to %v", base.Methods)
	}
}

func TestStrategy_Validate(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		wantErr  error
	}{
		{
			name:     "bearer with token",
			strategy: Strategy{Methods: []Method{MethodBearer}, BearerToken: "t"},
			wantErr:  nil,
		},
		{
			name:     "bearer without token",
			strategy: Strategy{Methods: []Method{MethodBearer}},
			wantErr:  ErrMissingBearerToken,
		},
		{
			name:     "api-key without key",
			strategy: Strategy{Methods: []Method{MethodAPIKey}},
			wantErr:  ErrMissingAPIKey,
		},
		{
			name:     "api-key with key",
			strategy: Strategy{Methods: []Method{MethodAPIKey}, APIKey: "k"},
			wantErr:  nil,
		},
		{
			name:     "client credentials needs no local material",
			strategy: Strategy{Methods: []Method{MethodClientCredentials}},
			wantErr:  nil,
		},
		{
			name:     "empty strategy",
			strategy: Strategy{},
			wantErr:  ErrNoMethods,
		},
		{
			name:     "unknown method",
			strategy: Strategy{Methods: []Method{Method("password")}},
			wantErr:  ErrUnknownMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.strategy.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStrategy_Requires(t *testing.T) {
	s := Strategy{Methods: []Method{MethodBearer, MethodAPIKey}}

	if !s.Requires(MethodBearer) {
		t.Error("Requires(bearer) = false, want true")
	}
	if s.Requires(MethodClientToken) {
		t.Error("Requires(client-token) = true, want false")
	}
}
