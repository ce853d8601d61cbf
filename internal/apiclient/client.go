// Package apiclient talks to the CivicSpot REST backend through a
// credential Binding.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicspot/internal/domain"
	"github.com/civicspot/internal/logger"
)

const tracerName = "github.com/civicspot/internal/apiclient"

// RequestObserver is called once per request. status is 0 when no
// response was received.
type RequestObserver func(method string, status int, elapsed time.Duration)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the client whose transport requests go through.
// Its Transport is wrapped with the binding; Timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.base = hc
	}
}

// WithLogger sets the logger used for request debugging
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithObserver sets a hook called after every request
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observe = o
	}
}

// WithTracerProvider sets where request spans are recorded. The default is
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// Client issues backend requests carrying the credential of its Binding.
type Client struct {
	baseURL    string
	binding    *Binding
	base       *http.Client
	httpClient *http.Client
	logger     *slog.Logger
	observe    RequestObserver
	tracer     trace.Tracer
}

// NewClient creates a client for the backend at baseURL.
// No request timeout is applied unless the supplied http.Client has one.
func NewClient(baseURL string, binding *Binding, opts ...Option) (*Client, error) {
	if binding == nil {
		return nil, domain.WrapMissingDependency("credential binding")
	}
	origin, err := domain.NewOrigin(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		binding: binding,
		base:    &http.Client{},
		logger:  logger.Discard(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.base
	hc.Transport = binding.ScopedTransport(origin, c.base.Transport)
	c.httpClient = &hc

	return c, nil
}

// BaseURL returns the backend base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Binding returns the credential binding shared by every request
func (c *Client) Binding() *Binding {
	return c.binding
}

// Transport returns the bound transport, for reuse by proxies.
func (c *Client) Transport() http.RoundTripper {
	return c.httpClient.Transport
}

// SetCredential binds token to every subsequent request
func (c *Client) SetCredential(token string) {
	c.binding.SetCredential(token)
}

// ClearCredential removes the credential from subsequent requests
func (c *Client) ClearCredential() {
	c.binding.ClearCredential()
}

// do sends a request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(req.Header))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.finish(method, 0, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return domain.WrapNetworkOperation(method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.finish(method, resp.StatusCode, start)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return domain.WrapNetworkOperation(method, path, err)
	}

	c.logger.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, data)
		span.SetStatus(codes.Error, apiErr.Message)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) finish(method string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(method, status, time.Since(start))
	}
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// SendJSON issues a request with in encoded as JSON (nil sends no body).
func (c *Client) SendJSON(ctx context.Context, method, path string, in, out any) error {
	if in == nil {
		return c.do(ctx, method, path, nil, "", out)
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), "application/json", out)
}
