package configsync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/micro-ha/nuki-bridge/addon/internal/model"
)

type FetchResult struct {
	Configured bool
	Config     model.BridgeConfig
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://supervisor/core"
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type configResponse struct {
	Configured  bool      `json:"configured"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
	Host        string    `json:"host"`
	APIToken    string    `json:"api_token"`
	SmartlockID string    `json:"smartlock_id"`
	OpenerID    string    `json:"opener_id"`
	Language    string    `json:"language"`
}

// FetchConfig pulls the integration configuration from the HA config
// endpoint. A payload without an API token counts as not configured, since no
// device call can be made without it.
func (c *Client) FetchConfig(ctx context.Context) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/nuki_bridge/config", nil)
	if err != nil {
		return FetchResult{}, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return FetchResult{Configured: false}, nil
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return FetchResult{}, fmt.Errorf("config fetch status %d: %s", resp.StatusCode, string(body))
	}

	var payload configResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return FetchResult{}, err
	}
	if !payload.Configured || strings.TrimSpace(payload.APIToken) == "" {
		return FetchResult{Configured: false}, nil
	}

	cfg := model.BridgeConfig{
		Version:     payload.Version,
		UpdatedAt:   payload.UpdatedAt.UTC(),
		Host:        payload.Host,
		APIToken:    strings.TrimSpace(payload.APIToken),
		SmartlockID: strings.TrimSpace(payload.SmartlockID),
		OpenerID:    strings.TrimSpace(payload.OpenerID),
		Language:    strings.TrimSpace(payload.Language),
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return FetchResult{Configured: true, Config: cfg}, nil
}
