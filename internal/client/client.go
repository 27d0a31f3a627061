// Package client is a Go client for the lobby's HTTP API. The CLI and the
// end-to-end tests drive the server through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/chess-lobby/internal/model"
)

// ResponseError is returned for any non-2xx response.
type ResponseError struct {
	StatusCode int
	Kind       string // machine-readable error field, may be empty
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Client talks to one server. The token set with SetToken is sent on every
// request that needs one.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient swaps the underlying http.Client, e.g. for an httptest server.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, username, password, email string) (*model.AuthToken, error) {
	var out model.AuthToken
	err := c.do(ctx, http.MethodPost, "/user", map[string]string{
		"username": username,
		"password": password,
		"email":    email,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Login keeps the returned token.
func (c *Client) Login(ctx context.Context, username, password string) (*model.AuthToken, error) {
	var out model.AuthToken
	err := c.do(ctx, http.MethodPost, "/session", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Logout revokes the current token and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/session", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

func (c *Client) ListGames(ctx context.Context) ([]model.GameSummary, error) {
	var out struct {
		Games []model.GameSummary `json:"games"`
	}
	if err := c.do(ctx, http.MethodGet, "/game", nil, &out); err != nil {
		return nil, err
	}
	return out.Games, nil
}

func (c *Client) CreateGame(ctx context.Context, name string) (int64, error) {
	var out struct {
		GameID int64 `json:"gameID"`
	}
	if err := c.do(ctx, http.MethodPost, "/game", map[string]string{"gameName": name}, &out); err != nil {
		return 0, err
	}
	return out.GameID, nil
}

func (c *Client) JoinGame(ctx context.Context, gameID int64, color string) error {
	return c.do(ctx, http.MethodPut, "/game", map[string]any{
		"playerColor": color,
		"gameID":      gameID,
	}, nil)
}

// Clear wipes the server's data.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/db", nil, nil)
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("client: creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: reading response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("client: parsing response: %w", err)
		}
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &ResponseError{StatusCode: status, Message: msg}
	}
	return &ResponseError{StatusCode: status, Kind: payload.Error, Message: payload.Message}
}
