// Package remote is the HTTP transport to a habitual sync server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

var (
	ErrUnauthorized = errors.New("sync server rejected the API token")
	ErrNoToken      = errors.New("no API token configured; run 'habitual token set'")
)

// Client talks to the /api/v1 endpoints of a sync server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type habitsPayload struct {
	Habits []models.Habit `json:"habits"`
}

type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// NewClient returns a client for baseURL. A zero timeout uses the default.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("remote URL must start with http:// or https://, got %q", baseURL)
	}
	if token == "" {
		return nil, ErrNoToken
	}
	if timeout <= 0 {
		timeout = constants.DefaultRemoteTimeout
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Ping checks the server's health endpoint. It does not need a token.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// FetchRemoteHabits downloads the server's full habit set.
func (c *Client) FetchRemoteHabits(ctx context.Context) ([]models.Habit, error) {
	resp, err := c.do(ctx, http.MethodGet, "/habits", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}
	var payload habitsPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode remote habits: %w", err)
	}
	if payload.Habits == nil {
		payload.Habits = []models.Habit{}
	}
	return payload.Habits, nil
}

// PushHabits replaces the server's habit set. A validation rejection or
// conflict reports false with no error.
func (c *Client) PushHabits(ctx context.Context, habits []models.Habit) (bool, error) {
	if habits == nil {
		habits = []models.Habit{}
	}
	body, err := json.Marshal(habitsPayload{Habits: habits})
	if err != nil {
		return false, fmt.Errorf("failed to encode habits: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, "/habits", body)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusUnprocessableEntity:
		return false, nil
	default:
		return false, responseError(resp)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+constants.APIPrefix+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func responseError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var p problem
	if err := json.Unmarshal(data, &p); err == nil && p.Detail != "" {
		return fmt.Errorf("sync server returned %d: %s", resp.StatusCode, p.Detail)
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return fmt.Errorf("sync server returned %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("sync server returned %d", resp.StatusCode)
}
