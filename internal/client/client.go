// Package client provides an HTTP client for the HomeNest REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"

	"github.com/evcraddock/homenest/internal/logging"
	"github.com/evcraddock/homenest/internal/property"
	"github.com/evcraddock/homenest/internal/rating"
)

// DefaultBaseURL is used when no API base URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

const defaultTimeout = 30 * time.Second

// CredentialSource supplies the bearer credential for each request.
// An empty string means the request goes out unauthenticated.
type CredentialSource interface {
	Credential() string
}

// ContextCredentialSource is a CredentialSource that can renew its
// credential before a request goes out.
type ContextCredentialSource interface {
	CredentialSource
	CredentialContext(ctx context.Context) string
}

// StaticCredential is a fixed credential.
type StaticCredential string

// Credential returns s.
func (s StaticCredential) Credential() string { return string(s) }

// Client is an HTTP client for the HomeNest API.
type Client struct {
	baseURL    string
	creds      CredentialSource
	httpClient *http.Client
	timeout    time.Duration
	notifier   Notifier
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. hc is never
// modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithNotifier sets where request failures are reported.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a new API client. creds may be nil for anonymous use.
func New(baseURL string, creds CredentialSource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if creds == nil {
		creds = StaticCredential("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: logging.NewTransport(nil),
		},
		notifier: discardNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// ListOptions controls search, ordering and paging for ListProperties.
type ListOptions struct {
	Search string           `url:"search,omitempty"`
	Sort   property.SortKey `url:"sortBy,omitempty"`
	Page   int              `url:"page,omitempty"`
	Limit  int              `url:"limit,omitempty"`
}

// RatingFilter selects ratings by property or by reviewer.
type RatingFilter struct {
	PropertyID    string `url:"propertyId,omitempty"`
	ReviewerEmail string `url:"reviewerEmail,omitempty"`
}

// PropertyList is one page of listings.
type PropertyList struct {
	Items []*property.Property
	Total int
}

// listEnvelope is the response shape of every list endpoint.
type listEnvelope[T any] struct {
	Data  *[]T `json:"data"`
	Total *int `json:"total"`
}

// ListProperties returns listings matching opts.
func (c *Client) ListProperties(ctx context.Context, opts ListOptions) (*PropertyList, error) {
	path, err := withQuery("/properties", opts)
	if err != nil {
		return nil, err
	}
	items, total, err := getList[*property.Property](ctx, c, path)
	if err != nil {
		return nil, err
	}
	return &PropertyList{Items: items, Total: total}, nil
}

// FeaturedProperties returns the server's newest-first featured subset.
func (c *Client) FeaturedProperties(ctx context.Context) ([]*property.Property, error) {
	items, _, err := getList[*property.Property](ctx, c, "/properties/featured")
	return items, err
}

// PropertiesByOwner returns every listing owned by email.
func (c *Client) PropertiesByOwner(ctx context.Context, email string) ([]*property.Property, error) {
	items, _, err := getList[*property.Property](ctx, c, "/properties/by-user/"+url.PathEscape(email))
	return items, err
}

// GetProperty returns a single listing.
func (c *Client) GetProperty(ctx context.Context, id string) (*property.Property, error) {
	var p property.Property
	if err := c.get(ctx, propertyPath(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProperty submits a new listing and returns it as stored.
func (c *Client) CreateProperty(ctx context.Context, d property.Draft) (*property.Property, error) {
	var p property.Property
	if err := c.send(ctx, http.MethodPost, "/properties", d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProperty replaces the editable fields of listing id.
func (c *Client) UpdateProperty(ctx context.Context, id string, d property.Draft) error {
	return c.send(ctx, http.MethodPut, propertyPath(id), d, nil)
}

// DeleteProperty removes a listing.
func (c *Client) DeleteProperty(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, propertyPath(id), nil, nil)
}

// ListRatings returns ratings matching f.
func (c *Client) ListRatings(ctx context.Context, f RatingFilter) ([]*rating.Rating, error) {
	path, err := withQuery("/ratings", f)
	if err != nil {
		return nil, err
	}
	items, _, err := getList[*rating.Rating](ctx, c, path)
	return items, err
}

// CreateRating submits a rating.
func (c *Client) CreateRating(ctx context.Context, d rating.Draft) (*rating.Rating, error) {
	var r rating.Rating
	if err := c.send(ctx, http.MethodPost, "/ratings", d, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRating removes a rating.
func (c *Client) DeleteRating(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/ratings/"+url.PathEscape(id), nil, nil)
}

func propertyPath(id string) string {
	return "/properties/" + url.PathEscape(id)
}

func withQuery(path string, opts interface{}) (string, error) {
	v, err := query.Values(opts)
	if err != nil {
		return "", fmt.Errorf("encoding query: %w", err)
	}
	if len(v) == 0 {
		return path, nil
	}
	return path + "?" + v.Encode(), nil
}

// getList fetches a list endpoint and validates the envelope.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, int, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, 0, err
	}

	var env listEnvelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, 0, &DecodeError{Path: path, Err: err}
	}
	if env.Data == nil {
		return nil, 0, &DecodeError{Path: path, Err: errors.New(`missing "data" array`)}
	}
	total := len(*env.Data)
	if env.Total != nil {
		total = *env.Total
	}
	return *env.Data, total, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.send(ctx, http.MethodGet, path, nil, result)
}

// send performs a request with an optional JSON body and decodes the
// response.
func (c *Client) send(ctx context.Context, method, path string, body, result interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path, result)
}

// do executes an HTTP request with the credential attached. It is the one
// place failures are turned into notifications.
func (c *Client) do(req *http.Request, path string, result interface{}) error {
	var tok string
	if cs, ok := c.creds.(ContextCredentialSource); ok {
		tok = cs.CredentialContext(req.Context())
	} else {
		tok = c.creds.Credential()
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set(logging.RequestIDHeader, uuid.NewString())

	respBody, err := c.roundTrip(req, path)
	if err != nil {
		c.notifier.Notify(notificationFor(err))
		return err
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &DecodeError{Path: path, Err: err}
		}
	}
	return nil
}

func (c *Client) roundTrip(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: path, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "err", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: path, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Body: respBody}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			apiErr.Message = errResp.Error
		}
		return nil, apiErr
	}
	return respBody, nil
}
