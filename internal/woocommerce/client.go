package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
)

// Client looks orders up on the remote WooCommerce store.
type Client interface {
	LookupOrder(ctx context.Context, orderNumber string) (*RemoteOrder, error)
}

type httpClient struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	http           *http.Client
}

// NewClient builds a REST v3 client authenticated with consumer credentials.
func NewClient(cfg config.WooCommerceConfig) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("woocommerce base url is required")
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("woocommerce consumer credentials are required")
	}
	return &httpClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		http:           &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// LookupOrder resolves an order by its number. The store's search endpoint
// matches loosely, so results are re-checked against the normalized number
// and the numeric id before one is returned.
func (c *httpClient) LookupOrder(ctx context.Context, orderNumber string) (*RemoteOrder, error) {
	normalized := NormalizeOrderNumber(orderNumber)
	if normalized == "" {
		return nil, errors.New(errors.CodeValidation, "order number must contain digits")
	}

	endpoint := fmt.Sprintf("%s/wp-json/wc/v3/orders?search=%s", c.baseURL, url.QueryEscape(normalized))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "building woocommerce request")
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "calling woocommerce")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.CodeNotFound, "order not found on woocommerce")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.New(errors.CodeDependency, "woocommerce rejected the store credentials")
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.CodeDependency, fmt.Sprintf("woocommerce returned %s", resp.Status))
	}

	var wires []wireOrder
	if err := json.NewDecoder(resp.Body).Decode(&wires); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "decoding woocommerce response")
	}
	if len(wires) == 0 {
		return nil, errors.New(errors.CodeNotFound, "order not found on woocommerce")
	}

	for _, wire := range wires {
		if NormalizeOrderNumber(wire.Number) == normalized || fmt.Sprintf("%d", wire.ID) == normalized {
			return wire.toRemoteOrder()
		}
	}

	// The search matched something, just not the requested order. Surface
	// the first hit so the caller can raise a mismatch instead of not-found.
	return wires[0].toRemoteOrder()
}
