package ordertools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harunnryd/strum/pkg/resilience"
)

// Client is a thin REST client for the fulfillment service. Tool handlers
// pass its responses through verbatim, so reads return raw JSON.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Retry   resilience.RetryPolicy
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Retry:   resilience.NewRetryPolicy(2, 300*time.Millisecond),
	}
}

type remoteError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, path string) (string, error) {
	var out string
	err := c.Retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
		if err != nil {
			return err
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return decodeRemoteError(resp.StatusCode, body)
		}
		out = string(body)
		return nil
	})
	return out, err
}

// Products returns the catalog as served by fulfillment.
func (c *Client) Products(ctx context.Context) (string, error) {
	return c.get(ctx, "/products")
}

// Inventory returns current stock joined with guitar details.
func (c *Client) Inventory(ctx context.Context) (string, error) {
	return c.get(ctx, "/inventory")
}

// Orders returns the order book, newest first.
func (c *Client) Orders(ctx context.Context) (string, error) {
	return c.get(ctx, "/orders")
}

// Purchase submits a purchase. Rejections arrive as errors carrying the
// fulfillment message; they are business outcomes, not transport failures,
// so there is no retry.
func (c *Client) Purchase(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/purchase", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeRemoteError(resp.StatusCode, respBody)
	}
	return string(respBody), nil
}

func decodeRemoteError(status int, body []byte) error {
	var envelope remoteError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return fmt.Errorf("%s", envelope.Error.Message)
	}
	return fmt.Errorf("fulfillment returned %d", status)
}
