package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/reelrank/reelrank/pkg/logger"
)

// defaultTimeout bounds every catalog call; a slow catalog fails the
// request rather than hanging a session start.
const defaultTimeout = 5 * time.Second

// HTTPClient implements Client against the catalog's REST API.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	log     logger.Logger
}

// HTTPOption applies a configuration option to the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpc.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http client, e.g. for tests.
func WithHTTPClient(httpc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithClientLogger sets a custom logger for the client.
func WithClientLogger(log logger.Logger) HTTPOption {
	return func(c *HTTPClient) {
		if log != nil {
			c.log = log
		}
	}
}

// NewHTTPClient creates a catalog client for the given base URL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		log:     logger.Get().Named("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupByExternalID fetches item metadata by numeric catalog id.
func (c *HTTPClient) LookupByExternalID(ctx context.Context, externalID int64) (Item, error) {
	url := c.baseURL + "/items/" + strconv.FormatInt(externalID, 10)
	return c.fetchItem(ctx, http.MethodGet, url)
}

// EnsureCached resolves an external id to a cached item, creating the
// cache record on first sight.
func (c *HTTPClient) EnsureCached(ctx context.Context, externalID int64) (Item, error) {
	url := c.baseURL + "/items/" + strconv.FormatInt(externalID, 10) + "/cache"
	return c.fetchItem(ctx, http.MethodPost, url)
}

// RefreshAggregateStats asks the catalog to recompute aggregates.
func (c *HTTPClient) RefreshAggregateStats(ctx context.Context, itemID string) error {
	url := c.baseURL + "/items/" + itemID + "/stats/refresh"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build refresh request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: item %s", ErrItemNotFound, itemID)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: refresh returned %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) fetchItem(ctx context.Context, method, url string) (Item, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return Item{}, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Item{}, ErrItemNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return Item{}, fmt.Errorf("%w: catalog returned %d", ErrUnavailable, resp.StatusCode)
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return Item{}, fmt.Errorf("decode catalog response: %w", err)
	}
	return item, nil
}
