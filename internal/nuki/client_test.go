package nuki

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/micro-ha/nuki-bridge/addon/internal/model"
	"github.com/micro-ha/nuki-bridge/addon/internal/retry"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return &Client{
		httpClient: &http.Client{Timeout: time.Second},
		policy:     retry.DefaultPolicy(),
		maxRetries: retry.DefaultMaxRetries,
		sleep:      noSleep,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func noSleep(ctx context.Context, d time.Duration) error {
	_ = ctx
	_ = d
	return nil
}

func TestSendActionPostsCommand(t *testing.T) {
	var (
		requestPath string
		authHeader  string
		requestBody map[string]int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestPath = r.URL.Path
		authHeader = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t)
	cfg := model.BridgeConfig{Host: server.URL, APIToken: "token-1"}
	if err := client.SendAction(context.Background(), cfg, FamilyLock, "123", LockActionLock); err != nil {
		t.Fatalf("SendAction returned error: %v", err)
	}
	if requestPath != "/smartlock/123/action" {
		t.Fatalf("unexpected request path %q", requestPath)
	}
	if authHeader != "Bearer token-1" {
		t.Fatalf("unexpected auth header %q", authHeader)
	}
	if requestBody["action"] != LockActionLock {
		t.Fatalf("unexpected payload: %+v", requestBody)
	}
}

func TestSendActionRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		calls++
		if calls == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t)
	cfg := model.BridgeConfig{Host: server.URL, APIToken: "t"}
	if err := client.SendAction(context.Background(), cfg, FamilyOpener, "9", OpenerActionRTOActivate); err != nil {
		t.Fatalf("SendAction returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestSendActionRetriesRateLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		calls++
		if calls == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t)
	cfg := model.BridgeConfig{Host: server.URL, APIToken: "t"}
	if err := client.SendAction(context.Background(), cfg, FamilyLock, "1", LockActionUnlock); err != nil {
		t.Fatalf("SendAction returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestSendActionDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		calls++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t)
	cfg := model.BridgeConfig{Host: server.URL, APIToken: "t"}
	err := client.SendAction(context.Background(), cfg, FamilyLock, "1", LockActionLock)
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestFetchSnapshotReadsNestedState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/opener/42" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name": "Front Door",
			"type": 2,
			// state/mode live inside the nested object; top-level decoys
			// must be ignored.
			"state": map[string]any{"state": 3, "mode": 3, "batteryCritical": true},
		})
	}))
	defer server.Close()

	client := newTestClient(t)
	cfg := model.BridgeConfig{Host: server.URL, APIToken: "t"}
	snap, err := client.FetchSnapshot(context.Background(), cfg, FamilyOpener, "42")
	if err != nil {
		t.Fatalf("FetchSnapshot returned error: %v", err)
	}
	if !snap.Online {
		t.Fatalf("Online = false, want true")
	}
	if snap.Name != "Front Door" || snap.DeviceType != DeviceTypeOpener {
		t.Fatalf("unexpected identity: %+v", snap)
	}
	if snap.State != OpenerStateRTOActive || snap.Mode != OpenerModeContinuous || !snap.BatteryCritical {
		t.Fatalf("unexpected state fields: %+v", snap)
	}
}

func TestFetchSnapshotMalformedBodyIsOffline(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		calls++
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(t)
	cfg := model.BridgeConfig{Host: server.URL, APIToken: "t"}
	snap, err := client.FetchSnapshot(context.Background(), cfg, FamilyLock, "1")
	if err != nil {
		t.Fatalf("FetchSnapshot returned error: %v", err)
	}
	if snap.Online {
		t.Fatalf("Online = true, want false for malformed body")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (malformed body is not a transport retry)", calls)
	}
}

func TestFetchSnapshotMissingStateCodeIsOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "Door", "type": 0})
	}))
	defer server.Close()

	client := newTestClient(t)
	cfg := model.BridgeConfig{Host: server.URL, APIToken: "t"}
	snap, err := client.FetchSnapshot(context.Background(), cfg, FamilyLock, "1")
	if err != nil {
		t.Fatalf("FetchSnapshot returned error: %v", err)
	}
	if snap.Online {
		t.Fatalf("Online = true, want false for missing state code")
	}
	if snap.Name != "Door" {
		t.Fatalf("Name = %q, want %q", snap.Name, "Door")
	}
}

func TestFetchSnapshotExhaustsRetryBudget(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		calls++
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t)
	cfg := model.BridgeConfig{Host: server.URL, APIToken: "t"}
	_, err := client.FetchSnapshot(context.Background(), cfg, FamilyLock, "1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != retry.DefaultMaxRetries+1 {
		t.Fatalf("calls = %d, want %d", calls, retry.DefaultMaxRetries+1)
	}
}
