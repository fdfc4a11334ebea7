// Package client reads module records from a remote back-office API. A
// Client satisfies the search package's Fetcher contract, so a Searcher can
// drive a remote module exactly as it drives a local one.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/baseplate/backoffice/internal/core/query"
	"github.com/baseplate/backoffice/internal/core/validation"
)

const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	// Details holds field violations for 400 answers.
	Details *validation.ValidationErrors `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

type Option func(*http.Client)

// WithHTTPClient replaces the underlying transport client. The response
// decompression wrapper is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *http.Client) {
		*c = *hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *http.Client) {
		c.Timeout = d
	}
}

// Client talks to one module's endpoints under baseURL.
type Client[T any] struct {
	base   *url.URL
	module string
	http   *http.Client
}

func New[T any](baseURL, module string, opts ...Option) (*Client[T], error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if module == "" {
		return nil, fmt.Errorf("module name required")
	}

	hc := &http.Client{Timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(hc)
	}
	parent := hc.Transport
	if parent == nil {
		parent = http.DefaultTransport
	}
	hc.Transport = gzhttp.Transport(parent)

	return &Client[T]{base: u, module: module, http: hc}, nil
}

func (c *Client[T]) Module() string {
	return c.module
}

func (c *Client[T]) endpoint(parts ...string) string {
	u := *c.base
	u.Path = strings.Join(append([]string{u.Path, "api", "modules", url.PathEscape(c.module)}, parts...), "/")
	return u.String()
}

// FetchPage asks the server for one page of records matching d.
func (c *Client[T]) FetchPage(ctx context.Context, d query.Descriptor) (*query.PageResult[T], error) {
	u := c.endpoint("records")
	if q := d.Values().Encode(); q != "" {
		u += "?" + q
	}
	var page query.PageResult[T]
	if err := c.do(ctx, http.MethodGet, u, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Query runs d on the server and returns the page with facets and
// suggestions.
func (c *Client[T]) Query(ctx context.Context, d query.Descriptor) (*query.Result[T], error) {
	d.Module = c.module
	var res query.Result[T]
	if err := c.do(ctx, http.MethodPost, c.endpoint("query"), d, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Config fetches the module's query configuration.
func (c *Client[T]) Config(ctx context.Context) (*query.Config, error) {
	var cfg query.Config
	if err := c.do(ctx, http.MethodGet, c.endpoint(), nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client[T]) do(ctx context.Context, method, u string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if json.Unmarshal(data, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
