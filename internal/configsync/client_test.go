package configsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchConfigParsesPayload(t *testing.T) {
	t.Helper()

	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/nuki_bridge/config" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		authHeader = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"configured":   true,
			"version":      7,
			"api_token":    "secret",
			"smartlock_id": "123",
			"opener_id":    "456",
			"language":     "de",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "supervisor-token")
	got, err := client.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig returned error: %v", err)
	}
	if authHeader != "Bearer supervisor-token" {
		t.Fatalf("auth header = %q", authHeader)
	}
	if !got.Configured {
		t.Fatalf("Configured = false, want true")
	}
	if got.Config.APIToken != "secret" || got.Config.SmartlockID != "123" || got.Config.OpenerID != "456" {
		t.Fatalf("unexpected config: %+v", got.Config)
	}
	if got.Config.Language != "de" {
		t.Fatalf("Language = %q, want de", got.Config.Language)
	}
	if got.Config.Version != 7 {
		t.Fatalf("Version = %d, want 7", got.Config.Version)
	}
}

func TestFetchConfigMissingTokenIsNotConfigured(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		_ = json.NewEncoder(w).Encode(map[string]any{
			"configured":   true,
			"api_token":    "",
			"smartlock_id": "123",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	got, err := client.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig returned error: %v", err)
	}
	if got.Configured {
		t.Fatalf("Configured = true, want false without api token")
	}
}

func TestFetchConfigNotFoundIsNotConfigured(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	got, err := client.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig returned error: %v", err)
	}
	if got.Configured {
		t.Fatalf("Configured = true, want false for 404")
	}
}

func TestFetchConfigServerErrorIsAnError(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	if _, err := client.FetchConfig(context.Background()); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestLanguageDefaultsToEnglish(t *testing.T) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		_ = json.NewEncoder(w).Encode(map[string]any{
			"configured": true,
			"api_token":  "secret",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "t")
	got, err := client.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig returned error: %v", err)
	}
	if got.Config.Language != "en" {
		t.Fatalf("Language = %q, want en", got.Config.Language)
	}
}
