package nuki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/micro-ha/nuki-bridge/addon/internal/model"
	"github.com/micro-ha/nuki-bridge/addon/internal/retry"
)

const defaultTimeout = 15 * time.Second

// Client talks to the Nuki Web API. It sends single commands and single state
// queries; the only retry policy here is bounded transport-level retry, the
// verification logic lives in the verify package.
//
// A 2xx response to SendAction acknowledges receipt only. It carries no
// guarantee the device executed the action.
type Client struct {
	httpClient *http.Client
	policy     retry.Policy
	maxRetries int
	sleep      retry.Sleeper
	logger     *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: defaultTimeout}, logger)
}

func NewClientWithHTTPClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: httpClient,
		policy:     retry.DefaultPolicy(),
		maxRetries: retry.DefaultMaxRetries,
		sleep:      retry.Sleep,
		logger:     logger,
	}
}

// SendAction posts one action command for the device. A nil return means the
// API accepted the command, nothing more.
func (c *Client) SendAction(ctx context.Context, cfg model.BridgeConfig, family Family, deviceID string, action int) error {
	endpoint := fmt.Sprintf("%s/%s/%s/action", cfg.BaseURL(), family, deviceID)
	op := fmt.Sprintf("%s action %d", family, action)

	return retry.Do(ctx, c.policy, c.maxRetries, c.sleep, func(ctx context.Context) (bool, error) {
		err := c.doSendAction(ctx, cfg, endpoint, action)
		c.logAttempt(op, err)
		if err == nil {
			return false, nil
		}
		return isRetryableError(err), err
	})
}

func (c *Client) doSendAction(ctx context.Context, cfg model.BridgeConfig, endpoint string, action int) error {
	body, err := json.Marshal(map[string]int{"action": action})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError("action", resp)
	}
	return nil
}

// FetchSnapshot queries current device state. A 2xx response whose body does
// not carry a valid numeric state code yields an offline Snapshot, not an
// error; only transport and HTTP failures are returned as errors.
func (c *Client) FetchSnapshot(ctx context.Context, cfg model.BridgeConfig, family Family, deviceID string) (*Snapshot, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", cfg.BaseURL(), family, deviceID)
	op := string(family) + " state"

	var snapshot *Snapshot
	err := retry.Do(ctx, c.policy, c.maxRetries, c.sleep, func(ctx context.Context) (bool, error) {
		snap, err := c.doFetchSnapshot(ctx, cfg, endpoint)
		c.logAttempt(op, err)
		if err != nil {
			return isRetryableError(err), err
		}
		snapshot = snap
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *Client) doFetchSnapshot(ctx context.Context, cfg model.BridgeConfig, endpoint string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apiError("state", resp)
	}

	// The state and mode codes live inside the nested "state" object, not at
	// the top level.
	var payload struct {
		Name  string `json:"name"`
		Type  int    `json:"type"`
		State *struct {
			State           *int `json:"state"`
			Mode            int  `json:"mode"`
			BatteryCritical bool `json:"batteryCritical"`
		} `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return &Snapshot{Online: false}, nil
	}
	if payload.State == nil || payload.State.State == nil {
		return &Snapshot{Name: payload.Name, DeviceType: payload.Type, Online: false}, nil
	}
	return &Snapshot{
		Name:            payload.Name,
		DeviceType:      payload.Type,
		State:           *payload.State.State,
		Mode:            payload.State.Mode,
		BatteryCritical: payload.State.BatteryCritical,
		Online:          true,
	}, nil
}

func apiError(operation string, resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return &APIError{Operation: operation, Status: resp.StatusCode, Body: string(body)}
}

func (c *Client) logAttempt(op string, err error) {
	if c.logger == nil {
		return
	}
	if err != nil {
		c.logger.Warn("nuki api call failed", "op", op, "err", err)
		return
	}
	c.logger.Debug("nuki api call ok", "op", op)
}
