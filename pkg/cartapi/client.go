package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hifideliveryeats/cartsync/pkg/config"
	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/types"
)

const (
	DefaultCartPath    = "/api/cart"
	DefaultCatalogPath = "/api/menu_items"

	// CustomerHeader identifies whose cart a request targets.
	CustomerHeader  = "X-Customer-Id"
	RequestIDHeader = "X-Request-Id"

	defaultTimeout           = 10 * time.Second
	errorBodyReadLimit int64 = 4096
)

var (
	errBaseURLRequired = errors.New("cart backend base url is required")
	validate           = validator.New()
)

// Client talks to the cart and catalog endpoints of the ordering backend.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	cartPath    string
	catalogPath string
	customerID  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithCartPath(path string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.cartPath = trimmed
		}
	}
}

func WithCatalogPath(path string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.catalogPath = trimmed
		}
	}
}

// WithCustomerID sends the customer id header on every request.
func WithCustomerID(id string) Option {
	return func(c *Client) {
		c.customerID = strings.TrimSpace(id)
	}
}

// WithTimeout replaces the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid cart backend base url %q", baseURL)
	}

	client := &Client{
		baseURL:     trimmed,
		cartPath:    DefaultCartPath,
		catalogPath: DefaultCatalogPath,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client, nil
}

// NewFromConfig builds a client from the backend section of the config.
func NewFromConfig(cfg config.BackendConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithTimeout(cfg.Timeout),
		WithCartPath(cfg.CartPath),
		WithCatalogPath(cfg.CatalogPath),
		WithCustomerID(cfg.CustomerID),
	}
	return NewClient(cfg.BaseURL, append(base, opts...)...)
}

// FetchCart returns the cart held by the backend.
func (c *Client) FetchCart(ctx context.Context) ([]types.CartLine, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, "cart client not configured")
	}
	env, err := do[[]types.CartLine](ctx, c, http.MethodGet, c.cartPath, nil)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []types.CartLine{}, nil
	}
	return env.Data, nil
}

// SaveCart replaces the backend cart with lines and returns the backend's
// canonical copy. A nil result with a nil error means the backend accepted
// the write without echoing the list.
func (c *Client) SaveCart(ctx context.Context, lines []types.CartLine) ([]types.CartLine, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, "cart client not configured")
	}
	if lines == nil {
		lines = []types.CartLine{}
	}
	payload := types.CartWriteRequest{Items: lines}
	if err := validate.Struct(payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart lines")
	}
	env, err := do[[]types.CartLine](ctx, c, http.MethodPost, c.cartPath, payload)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// FetchCatalog returns the menu items the backend currently offers.
func (c *Client) FetchCatalog(ctx context.Context) ([]types.CatalogItem, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, "cart client not configured")
	}
	env, err := do[[]types.CatalogItem](ctx, c, http.MethodGet, c.catalogPath, nil)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []types.CatalogItem{}, nil
	}
	return env.Data, nil
}

// CatalogSource names the catalog endpoint, used as a cache key.
func (c *Client) CatalogSource() string {
	return c.buildURL(c.catalogPath)
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (types.Envelope[T], error) {
	var env types.Envelope[T]
	target := c.buildURL(path)
	op := strings.ToLower(method) + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return env, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "marshal "+op+" request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return env, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "build "+op+" request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.customerID != "" {
		req.Header.Set(CustomerHeader, c.customerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return env, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return env, statusError(op, resp.StatusCode, raw)
	}

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return env, nil
		}
		return env, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "decode "+op+" response")
	}
	if env.Failed() {
		return env, envelopeError(op, resp.StatusCode, env.Error, env.Message)
	}
	return env, nil
}

func statusError(op string, status int, raw []byte) error {
	var env types.Envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err == nil && env.Failed() {
		return envelopeError(op, status, env.Error, env.Message)
	}
	cause := fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(raw)))
	return pkgerrors.Wrap(pkgerrors.CodeNetwork, cause, op+" request failed")
}

// envelopeError keeps the backend's stock rejection and reports every other
// failure as a network failure.
func envelopeError(op string, status int, apiErr *types.APIError, message string) error {
	if apiErr == nil {
		cause := fmt.Errorf("status %d: %s", status, strings.TrimSpace(message))
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, cause, op+" rejected")
	}
	if pkgerrors.Code(apiErr.Code) == pkgerrors.CodeStockExceeded {
		return pkgerrors.New(pkgerrors.CodeStockExceeded, apiErr.Message).WithDetails(apiErr.Details)
	}
	cause := fmt.Errorf("status %d: %s: %s", status, apiErr.Code, apiErr.Message)
	return pkgerrors.Wrap(pkgerrors.CodeNetwork, cause, op+" rejected").WithDetails(apiErr.Details)
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}
