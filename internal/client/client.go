// Package client talks to a running preferences daemon over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recprefs/internal/api"
	apperrors "recprefs/internal/errors"
	"recprefs/internal/settings"
)

// Client handles communication with the daemon API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the daemon listening at baseURL, e.g. "http://127.0.0.1:7878"
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FeedURL returns the WebSocket URL of the change feed
func (c *Client) FeedURL() string {
	u := c.baseURL + "/api/ws"
	if rest, ok := strings.CutPrefix(u, "https://"); ok {
		return "wss://" + rest
	}
	return "ws://" + strings.TrimPrefix(u, "http://")
}

// Health checks that the daemon is up
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}

// List returns every user-visible setting
func (c *Client) List(ctx context.Context) ([]api.SettingResponse, error) {
	var resp api.SettingListResponse
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Settings, nil
}

// Get returns one setting
func (c *Client) Get(ctx context.Context, name string) (api.SettingResponse, error) {
	var resp api.SettingResponse
	err := c.do(ctx, http.MethodGet, "/api/settings/"+url.PathEscape(name), nil, &resp)
	return resp, err
}

// SetText parses text on the daemon side and applies it.
// A persistence warning is returned together with the applied setting.
func (c *Client) SetText(ctx context.Context, name, text string) (api.SettingResponse, error) {
	var resp api.SettingResponse
	req := api.UpdateSettingRequest{Text: &text}
	if err := c.do(ctx, http.MethodPut, "/api/settings/"+url.PathEscape(name), req, &resp); err != nil {
		return resp, err
	}
	return resp, warning(resp.Warning)
}

// Reset restores a setting to its default
func (c *Client) Reset(ctx context.Context, name string) (api.SettingResponse, error) {
	var resp api.SettingResponse
	if err := c.do(ctx, http.MethodDelete, "/api/settings/"+url.PathEscape(name), nil, &resp); err != nil {
		return resp, err
	}
	return resp, warning(resp.Warning)
}

// Hotkeys returns the binding of every action
func (c *Client) Hotkeys(ctx context.Context) (map[string]string, error) {
	var resp api.HotkeysResponse
	if err := c.do(ctx, http.MethodGet, "/api/hotkeys", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Hotkeys, nil
}

// Bind binds combo to action
func (c *Client) Bind(ctx context.Context, action, combo string) (map[string]string, error) {
	var resp api.HotkeysResponse
	req := api.BindHotkeyRequest{Combo: combo}
	if err := c.do(ctx, http.MethodPut, "/api/hotkeys/"+url.PathEscape(action), req, &resp); err != nil {
		return nil, err
	}
	return resp.Hotkeys, warning(resp.Warning)
}

// Unbind clears the binding of action
func (c *Client) Unbind(ctx context.Context, action string) (map[string]string, error) {
	var resp api.HotkeysResponse
	if err := c.do(ctx, http.MethodDelete, "/api/hotkeys/"+url.PathEscape(action), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Hotkeys, warning(resp.Warning)
}

// Blocklist returns the excluded applications
func (c *Client) Blocklist(ctx context.Context) ([]string, error) {
	var resp api.BlocklistResponse
	if err := c.do(ctx, http.MethodGet, "/api/blocklist", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Apps, nil
}

// Block excludes bundleID from capture
func (c *Client) Block(ctx context.Context, bundleID string) ([]string, error) {
	return c.blocklist(ctx, http.MethodPut, bundleID)
}

// Unblock removes bundleID from the excluded applications
func (c *Client) Unblock(ctx context.Context, bundleID string) ([]string, error) {
	return c.blocklist(ctx, http.MethodDelete, bundleID)
}

func (c *Client) blocklist(ctx context.Context, method, bundleID string) ([]string, error) {
	var resp api.BlocklistResponse
	if err := c.do(ctx, method, "/api/blocklist/"+url.PathEscape(bundleID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Apps, warning(resp.Warning)
}

// PickSaveDirectory opens the folder dialog on the daemon's desktop and waits for
// the user. The client timeout does not apply; bound the wait with ctx instead.
func (c *Client) PickSaveDirectory(ctx context.Context) (string, error) {
	var resp api.PickResponse
	if err := c.doWith(ctx, &http.Client{}, http.MethodPost, "/api/save-directory/pick", nil, &resp); err != nil {
		return "", err
	}
	if resp.Cancelled {
		return "", apperrors.ErrCancelled
	}
	return resp.Path, warning(resp.Warning)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.doWith(ctx, c.httpClient, method, path, in, out)
}

func (c *Client) doWith(ctx context.Context, httpClient *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("api response", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// decodeError maps an API error body back onto the shared error values
func decodeError(status int, body []byte) error {
	var e api.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		return fmt.Errorf("server returned %d: %s", status, string(body))
	}

	switch e.Error {
	case "unknown_setting":
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownSetting, e.Message)
	case "invalid_value", "invalid_request":
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidValue, e.Message)
	default:
		err := fmt.Errorf("server returned %d: %s", status, e.Message)
		if e.Retryable {
			return apperrors.Wrap(err, e.Message, true)
		}
		return err
	}
}

func warning(msg string) error {
	if msg == "" {
		return nil
	}
	return fmt.Errorf("%w: %s", apperrors.ErrPersistenceWriteFailed, msg)
}

// Value renders a setting value the way the command line accepts it back
func Value(s api.SettingResponse) string {
	switch v := s.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "on"
		}
		return "off"
	case float64:
		return fmt.Sprintf("%g", v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if raw, err := json.Marshal(v); err == nil {
			if val, err := settings.DecodeJSON(s.Name, raw); err == nil {
				return settings.FormatValue(val)
			}
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
