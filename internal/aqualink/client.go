// Package aqualink is a minimal client for the iAqualink cloud API: login,
// list the systems registered to an account, and read a system's device
// states. It covers only what the logger needs.
package aqualink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultLoginURL   = "https://prod.zodiac-io.com/users/v1/login"
	defaultDevicesURL = "https://r-api.iaqualink.net/devices.json"
	defaultSessionURL = "https://p-api.iaqualink.net/v1/mobile/session.json"

	// Shared mobile-app key; the cloud rejects logins without it.
	apiKey = "EOOEMOW4YR6QNB07"

	requestTimeout = 30 * time.Second
)

type Config struct {
	Username string
	Password string

	// Endpoint overrides, used by tests. Empty means production.
	LoginURL   string
	DevicesURL string
	SessionURL string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Session holds the tokens returned by Login. It is purely client-side
// state; there is nothing to release on the server.
type Session struct {
	AuthToken string
	UserID    string
	SessionID string
}

type System struct {
	SerialNumber string `json:"serial_number"`
	Name         string `json:"name"`
	DeviceType   string `json:"device_type"`
}

func NewClient(cfg Config) *Client {
	if cfg.LoginURL == "" {
		cfg.LoginURL = defaultLoginURL
	}
	if cfg.DevicesURL == "" {
		cfg.DevicesURL = defaultDevicesURL
	}
	if cfg.SessionURL == "" {
		cfg.SessionURL = defaultSessionURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type loginRequest struct {
	APIKey   string `json:"api_key"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken string      `json:"authentication_token"`
	SessionID string      `json:"session_id"`
	UserID    json.Number `json:"id"`
}

// Login authenticates against the vendor cloud and returns the session
// tokens used by the other calls.
func (c *Client) Login(ctx context.Context) (Session, error) {
	body, err := json.Marshal(loginRequest{
		APIKey:   apiKey,
		Email:    c.cfg.Username,
		Password: c.cfg.Password,
	})
	if err != nil {
		return Session{}, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LoginURL, bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Session{}, fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return Session{}, fmt.Errorf("decode login response: %w", err)
	}
	if lr.AuthToken == "" {
		return Session{}, fmt.Errorf("login: empty authentication token")
	}

	return Session{
		AuthToken: lr.AuthToken,
		UserID:    lr.UserID.String(),
		SessionID: lr.SessionID,
	}, nil
}

// Systems lists every pool controller registered to the account.
func (c *Client) Systems(ctx context.Context, s Session) ([]System, error) {
	u, err := url.Parse(c.cfg.DevicesURL)
	if err != nil {
		return nil, fmt.Errorf("devices url: %w", err)
	}
	q := u.Query()
	q.Set("api_key", apiKey)
	q.Set("authentication_token", s.AuthToken)
	q.Set("user_id", s.UserID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build devices request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list systems: unexpected status %d", resp.StatusCode)
	}

	var systems []System
	if err := json.NewDecoder(resp.Body).Decode(&systems); err != nil {
		return nil, fmt.Errorf("decode systems response: %w", err)
	}
	return systems, nil
}

type sessionResponse struct {
	// The home screen arrives as an array of single-key objects, e.g.
	// [{"status":"Online"},{"pool_temp":"84.5"},{"air_temp":"70"}].
	HomeScreen []map[string]string `json:"home_screen"`
}

// DeviceStates fetches the home screen of one system and flattens it into a
// state map keyed by device name (pool_temp, air_temp, ...).
func (c *Client) DeviceStates(ctx context.Context, s Session, serial string) (map[string]string, error) {
	u, err := url.Parse(c.cfg.SessionURL)
	if err != nil {
		return nil, fmt.Errorf("session url: %w", err)
	}
	q := u.Query()
	q.Set("actionID", "command")
	q.Set("command", "get_home")
	q.Set("serial", serial)
	q.Set("sessionID", s.SessionID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device states for %s: %w", serial, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device states for %s: unexpected status %d", serial, resp.StatusCode)
	}

	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode session response for %s: %w", serial, err)
	}

	states := make(map[string]string, len(sr.HomeScreen))
	for _, entry := range sr.HomeScreen {
		for k, v := range entry {
			states[k] = v
		}
	}
	return states, nil
}
