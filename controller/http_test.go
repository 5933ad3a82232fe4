package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/authcache/credential"
)

// newTestClient points an HTTPClient at a httptest server.
func newTestClient(t *testing.T, cfg HTTPConfig, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	client, err := NewHTTPClient(cfg)
	if err != nil {
		t.Fatalf("NewHTTPClient() error = %v", err)
	}
	return client
}

// writeEnvelope writes a success envelope with the given data payload.
func writeEnvelope(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal envelope data: %v", err)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"data":      json.RawMessage(raw),
		"timestamp": "2026-09-01T00:00:00Z",
	})
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPClient(HTTPConfig{}); err == nil {
		t.Error("NewHTTPClient() error = nil, want error for missing base URL")
	}
}

func TestHTTPClient_ValidateToken(t *testing.T) {
	client := newTestClient(t, HTTPConfig{}, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/validate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q, want Bearer token-1", got)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["token"] != "token-1" {
			t.Errorf("body token = %q, want token-1", body["token"])
		}

		writeEnvelope(t, w, ValidateResult{
			Authenticated: true,
			User:          &User{ID: "u1", Username: "alice", Email: "alice@example.com"},
		})
	})

	result, err := client.ValidateToken(context.Background(), "token-1", credential.Resolve(nil, "token-1"))
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if !result.Authenticated {
		t.Error("Authenticated = false, want true")
	}
	if result.User == nil || result.User.ID != "u1" {
		t.Errorf("User = %+v, want id u1", result.User)
	}
}

func TestHTTPClient_ValidateToken_NotAuthenticated(t *testing.T) {
	client := newTestClient(t, HTTPConfig{}, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, ValidateResult{Authenticated: false})
	})

	result, err := client.ValidateToken(context.Background(), "bad", credential.Resolve(nil, "bad"))
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if result.Authenticated {
		t.Error("Authenticated = true, want false")
	}
	if result.User != nil {
		t.Errorf("User = %+v, want nil", result.User)
	}
}

func TestHTTPClient_StatusError(t *testing.T) {
	client := newTestClient(t, HTTPConfig{}, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no active session", http.StatusBadRequest)
	})

	_, err := client.Logout(context.Background(), "token-1")
	if err == nil {
		t.Fatal("Logout() error = nil, want StatusError")
	}
	if !IsStatus(err, http.StatusBadRequest) {
		t.Errorf("IsStatus(err, 400) = false, err = %v", err)
	}
}

func TestHTTPClient_EnvelopeFailure(t *testing.T) {
	client := newTestClient(t, HTTPConfig{}, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	})

	_, err := client.ValidateToken(context.Background(), "t", credential.Resolve(nil, "t"))
	if err == nil {
		t.Fatal("ValidateToken() error = nil, want error for failed envelope")
	}
}

func TestHTTPClient_Login(t *testing.T) {
	client := newTestClient(t, HTTPConfig{}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %s, want /auth/login", r.URL.Path)
		}
		if got := r.URL.Query().Get("redirect"); got != "https://app.example.com/cb" {
			t.Errorf("redirect = %q", got)
		}
		if got := r.URL.Query().Get("state"); got != "xyz" {
			t.Errorf("state = %q, want xyz", got)
		}
		// Login carries no credentials
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		writeEnvelope(t, w, LoginResult{LoginURL: "https://idp.example.com/login", State: "xyz"})
	})

	result, err := client.Login(context.Background(), "https://app.example.com/cb", "xyz")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.LoginURL != "https://idp.example.com/login" {
		t.Errorf("LoginURL = %q", result.LoginURL)
	}
}

func TestHTTPClient_RefreshToken(t *testing.T) {
	client := newTestClient(t, HTTPConfig{}, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "refresh-1" {
			t.Errorf("refreshToken = %q", body["refreshToken"])
		}
		writeEnvelope(t, w, TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 3600})
	})

	pair, err := client.RefreshToken(context.Background(), "refresh-1", credential.Resolve(nil, "refresh-1"))
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if pair.AccessToken != "new-access" || pair.ExpiresIn != 3600 {
		t.Errorf("TokenPair = %+v", pair)
	}
}

func TestHTTPClient_GetPermissions(t *testing.T) {
	client := newTestClient(t, HTTPConfig{}, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("scope"); got != "project-1" {
			t.Errorf("scope = %q, want project-1", got)
		}
		writeEnvelope(t, w, permissionsPayload{Permissions: []string{"read", "write"}})
	})

	perms, err := client.GetPermissions(context.Background(), map[string]string{"scope": "project-1"}, credential.Resolve(nil, "t"))
	if err != nil {
		t.Fatalf("GetPermissions() error = %v", err)
	}
	if len(perms) != 2 || perms[0] != "read" || perms[1] != "write" {
		t.Errorf("permissions = %v, want [read write]", perms)
	}
}

func TestHTTPClient_StrategyHeaders(t *testing.T) {
	tests := []struct {
		name   string
		config HTTPConfig
		strat  credential.Strategy
		check  func(t *testing.T, r *http.Request)
	}{
		{
			name:  "client token header",
			config: HTTPConfig{ClientToken: "ct-1"},
			strat: credential.Strategy{
				Methods:     []credential.Method{credential.MethodBearer, credential.MethodClientToken},
				BearerToken: "bearer-1",
			},
			check: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("X-Client-Token"); got != "ct-1" {
					t.Errorf("X-Client-Token = %q, want ct-1", got)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer bearer-1" {
					t.Errorf("Authorization = %q", got)
				}
			},
		},
		{
			name:   "client credentials basic auth",
			config: HTTPConfig{ClientID: "cid", ClientSecret: "csecret"},
			strat: credential.Strategy{
				Methods: []credential.Method{credential.MethodClientCredentials},
			},
			check: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				if !ok || user != "cid" || pass != "csecret" {
					t.Errorf("BasicAuth = %q/%q ok=%v", user, pass, ok)
				}
			},
		},
		{
			name:   "api key header",
			config: HTTPConfig{},
			strat: credential.Strategy{
				Methods: []credential.Method{credential.MethodAPIKey},
				APIKey:  "key-1",
			},
			check: func(t *testing.T, r *http.Request) {
				if got := r.Header.Get("X-API-Key"); got != "key-1" {
					t.Errorf("X-API-Key = %q, want key-1", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.config, func(w http.ResponseWriter, r *http.Request) {
				tt.check(t, r)
				writeEnvelope(t, w, ValidateResult{Authenticated: true})
			})

			if _, err := client.GetUser(context.Background(), tt.strat); err != nil {
				t.Fatalf("GetUser() error = %v", err)
			}
		})
	}
}

func TestHTTPClient_StrategyConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config HTTPConfig
		strat  credential.Strategy
	}{
		{
			name:   "client token method without configured token",
			config: HTTPConfig{},
			strat:  credential.Strategy{Methods: []credential.Method{credential.MethodClientToken}},
		},
		{
			name:   "client credentials without id",
			config: HTTPConfig{ClientSecret: "s"},
			strat:  credential.Strategy{Methods: []credential.Method{credential.MethodClientCredentials}},
		},
		{
			name:   "bearer without token",
			config: HTTPConfig{},
			strat:  credential.Strategy{Methods: []credential.Method{credential.MethodBearer}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			client := newTestClient(t, tt.config, func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			if _, err := client.GetUser(context.Background(), tt.strat); err == nil {
				t.Error("GetUser() error = nil, want configuration error")
			}
			if called {
				t.Error("request reached the server despite invalid strategy")
			}
		})
	}
}

func TestHTTPConfig_ResolveSecrets(t *testing.T) {
	t.Setenv("AC_CTRL_TOKEN", "client-tok")
	t.Setenv("AC_CTRL_SECRET", "client-sec")

	cfg := HTTPConfig{
		BaseURL:      "https://controller.internal",
		ClientToken:  "${AC_CTRL_TOKEN}",
		ClientID:     "gateway",
		ClientSecret: "${AC_CTRL_SECRET}",
	}
	if err := cfg.ResolveSecrets(); err != nil {
		t.Fatalf("ResolveSecrets() error = %v", err)
	}
	if cfg.ClientToken != "client-tok" || cfg.ClientSecret != "client-sec" {
		t.Fatalf("credentials not expanded: %+v", cfg)
	}
	if cfg.ClientID != "gateway" {
		t.Fatalf("literal ClientID changed: %q", cfg.ClientID)
	}
}

func TestHTTPConfig_ResolveSecretsMissingVar(t *testing.T) {
	cfg := HTTPConfig{ClientToken: "${AC_CTRL_UNSET_TOKEN}"}
	err := cfg.ResolveSecrets()
	if err == nil {
		t.Fatal("ResolveSecrets() error = nil, want missing-variable error")
	}
	if !strings.Contains(err.Error(), "client_token") {
		t.Fatalf("error %q does not name the failing field", err)
	}
}
