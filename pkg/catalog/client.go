package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/resilience"
)

// Client fetches the product list from an upstream catalog service. When
// BaseURL is empty the embedded catalog is served instead.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Retry   resilience.RetryPolicy
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Retry:   resilience.NewRetryPolicy(2, 300*time.Millisecond),
	}
}

// Products returns the ordered product list. Transient upstream failures are
// retried; a persistent failure is reported so callers can decide whether to
// fall back or abort startup.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	if c.BaseURL == "" {
		return Default(), nil
	}
	var products []Product
	err := c.Retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/products", nil)
		if err != nil {
			return err
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("catalog returned %d: %s", resp.StatusCode, string(body))
		}
		return json.NewDecoder(resp.Body).Decode(&products)
	})
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonCatalogFetch)
	}
	return products, nil
}
