package auth

import (
	"net/http/httptest"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	authenticator := NewAuthenticator([]string{
		HashAPIKey("key-one"),
		HashAPIKey("key-two"),
	})

	tests := []struct {
		name    string
		apiKey  string
		wantErr bool
	}{
		{name: "first key", apiKey: "key-one", wantErr: false},
		{name: "second key", apiKey: "key-two", wantErr: false},
		{name: "unknown key", apiKey: "key-three", wantErr: true},
		{name: "empty key", apiKey: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authenticator.ValidateAPIKey(tt.apiKey)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIKey(%q) error = %v, wantErr %v", tt.apiKey, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAPIKey_NoConfiguredHashes(t *testing.T) {
	authenticator := NewAuthenticator(nil)

	if err := authenticator.ValidateAPIKey("anything"); err == nil {
		t.Error("ValidateAPIKey() error = nil, want rejection with no hashes configured")
	}
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
		wantKey    string
		wantErr    bool
	}{
		{name: "bearer token", authHeader: "Bearer my-key", wantKey: "my-key"},
		{name: "lowercase scheme", authHeader: "bearer my-key", wantKey: "my-key"},
		{name: "missing header", authHeader: "", wantErr: true},
		{name: "no scheme", authHeader: "my-key", wantErr: true},
		{name: "wrong scheme", authHeader: "Basic dXNlcjpwYXNz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			key, err := ExtractAPIKey(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if key != tt.wantKey {
				t.Errorf("ExtractAPIKey() = %q, want %q", key, tt.wantKey)
			}
		})
	}
}

func TestHashAPIKey(t *testing.T) {
	// SHA-256 of "test"
	want := "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"
	if got := HashAPIKey("test"); got != want {
		t.Errorf("HashAPIKey(test) = %s, want %s", got, want)
	}

	if HashAPIKey("a") == HashAPIKey("b") {
		t.Error("different keys hashed identically")
	}
}
