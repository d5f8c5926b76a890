package model

import (
	"net/url"
	"strings"
	"time"
)

// BridgeConfig represents a normalized integration configuration payload.
//
// APIToken is the Nuki Web API bearer token. SmartlockID and OpenerID are the
// device identifiers for the lock family and the opener family; an empty value
// means the corresponding device is not configured.
type BridgeConfig struct {
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
	Host        string    `json:"host"`
	APIToken    string    `json:"api_token"`
	SmartlockID string    `json:"smartlock_id"`
	OpenerID    string    `json:"opener_id"`
	Language    string    `json:"language"`
}

// BaseURL normalizes Host into a usable API base URL. An empty host falls back
// to the public Nuki Web API endpoint; a host without a scheme gets https
// prepended.
func (c BridgeConfig) BaseURL() string {
	raw := strings.TrimSpace(c.Host)
	if raw == "" {
		return "https://api.nuki.io"
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		host := strings.TrimSpace(c.Host)
		host = strings.TrimPrefix(strings.TrimPrefix(host, "http://"), "https://")
		host = strings.Trim(host, "/")
		return "https://" + host
	}

	scheme := strings.TrimSpace(parsed.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	path := strings.TrimSuffix(strings.TrimSpace(parsed.Path), "/")
	return scheme + "://" + parsed.Host + path
}
