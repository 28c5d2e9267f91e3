// Package client sends HTTP requests through interchangeable transport
// adapters, with mergeable per-request configuration, request and response
// interceptors, middleware around each dispatch and cooperative cancellation.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/adamwoolhether/relay/client/internal/deep"
	"github.com/adamwoolhether/relay/client/throttle"
	"github.com/adamwoolhether/relay/client/urls"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Interceptors holds the request and response interceptor chains.
type Interceptors struct {
	Request  *InterceptorManager[*Config]
	Response *InterceptorManager[*Response]
}

// Client sends requests merged over its defaults.
type Client struct {
	// Interceptors run around every request, in registration order.
	Interceptors Interceptors

	defaults *Config
	logger   *slog.Logger
	tracer   trace.Tracer

	mu sync.RWMutex
	mw []Middleware
}

// Build creates a Client. A no-op tracer and the default slog logger are used
// unless overridden via options.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
		mw:     opts.middleware,
	}
	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	client.Interceptors = newInterceptors()

	defaults := DefaultConfig()
	if opts.defaults != nil {
		defaults = Merge(defaults, opts.defaults)
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	case defaults.Transport != nil:
		transport = defaults.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	defaults.Transport = propagate{base: transport}

	if opts.client != nil {
		if opts.client.Jar != nil {
			defaults.Jar = opts.client.Jar
		}
		if opts.client.Timeout > 0 {
			defaults.Timeout = opts.client.Timeout
		}
	}
	if opts.jar != nil {
		defaults.Jar = opts.jar
	}
	if opts.timeout != nil {
		defaults.Timeout = *opts.timeout
	}
	if opts.noFollowRedirects {
		defaults.MaxRedirects = -1
	}
	if opts.baseURL != "" {
		defaults.BaseURL = opts.baseURL
	}
	if len(opts.adapters) > 0 {
		defaults.Adapter = opts.adapters
	}
	if len(opts.headers) > 0 {
		extra := make(map[string]any, len(opts.headers))
		for k, v := range opts.headers {
			extra[k] = v
		}
		defaults.Headers = Headers(deep.Merge(defaults.Headers, map[string]any{"common": extra}))
	}

	defaults.Method = strings.ToUpper(defaults.Method)
	if err := validateConfig(defaults); err != nil {
		return nil, fmt.Errorf("validating defaults: %w", err)
	}

	client.defaults = defaults

	return client, nil
}

func newInterceptors() Interceptors {
	return Interceptors{
		Request:  &InterceptorManager[*Config]{},
		Response: &InterceptorManager[*Response]{},
	}
}

// Defaults returns a copy of the client's defaults.
func (c *Client) Defaults() *Config {
	return Merge(c.defaults, nil)
}

// Create returns a new Client whose defaults are cfg merged over c's. The
// new client shares c's logger and tracer but starts without interceptors
// or middleware.
func (c *Client) Create(cfg *Config) *Client {
	return &Client{
		Interceptors: newInterceptors(),
		defaults:     Merge(c.defaults, cfg),
		logger:       c.logger,
		tracer:       c.tracer,
	}
}

// Use appends the given middleware to the underlying mw stack.
func (c *Client) Use(mw ...Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mw = append(c.mw, mw...)
}

// GetURI returns the full URL, query included, that cfg would be sent to.
func (c *Client) GetURI(cfg *Config) string {
	merged := Merge(c.defaults, cfg)
	return urls.Build(urls.FullPath(merged.BaseURL, merged.URL), merged.Params, merged.ParamsSerializer)
}

// Request sends cfg merged over the client's defaults. Request interceptors
// see the merged config, then the middleware chain wraps the dispatch, then
// response interceptors see the outcome.
func (c *Client) Request(ctx context.Context, cfg *Config) (*Response, error) {
	merged := Merge(c.defaults, cfg)

	method, target := merged.Method, urls.FullPath(merged.BaseURL, merged.URL)

	ctx, span := c.tracer.Start(ctx, "relay.request")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", target),
	)

	reqChain := c.Interceptors.Request.snapshot()
	respChain := c.Interceptors.Response.snapshot()

	merged, err := runInterceptors(ctx, reqChain, merged, nil)
	if err == nil && merged == nil {
		err = newError("request interceptor returned no config", ErrCodeBadOption, nil, nil, nil)
	}

	var resp *Response
	if err == nil {
		resp, err = c.dispatch(ctx, merged)
	}

	dispatched := resp
	resp, err = runInterceptors(ctx, respChain, resp, err)
	if err != nil {
		if dispatched != nil {
			dispatched.Close()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		c.logger.Debug("request failed", "method", method, "url", target, "canceled", IsCancel(err), "error", err)
		return nil, err
	}

	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	}

	return resp, nil
}

// dispatch runs the middleware chain around a single dispatch.
func (c *Client) dispatch(ctx context.Context, cfg *Config) (*Response, error) {
	c.mu.RLock()
	mw := slices.Clone(c.mw)
	c.mu.RUnlock()

	call := &Call{Config: cfg, Defaults: c.defaults}

	if err := wrap(mw, dispatch)(ctx, call); err != nil {
		// Streamed bodies keep the flight open until closed.
		if call.Response != nil && call.Err == nil {
			call.Response.Close()
		}
		return nil, err
	}

	if call.Response == nil {
		if call.Err != nil {
			return nil, call.Err
		}
		return nil, errors.New("middleware completed without a response")
	}

	return call.Response, nil
}

// =============================================================================

// Get sends a GET request to url.
func (c *Client) Get(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Request(ctx, withCall(cfg, http.MethodGet, url))
}

// Delete sends a DELETE request to url.
func (c *Client) Delete(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Request(ctx, withCall(cfg, http.MethodDelete, url))
}

// Head sends a HEAD request to url.
func (c *Client) Head(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Request(ctx, withCall(cfg, http.MethodHead, url))
}

// Options sends an OPTIONS request to url.
func (c *Client) Options(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Request(ctx, withCall(cfg, http.MethodOptions, url))
}

// Post sends data to url with a POST request.
func (c *Client) Post(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, withData(cfg, http.MethodPost, url, data, false))
}

// Put sends data to url with a PUT request.
func (c *Client) Put(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, withData(cfg, http.MethodPut, url, data, false))
}

// Patch sends data to url with a PATCH request.
func (c *Client) Patch(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, withData(cfg, http.MethodPatch, url, data, false))
}

// PostForm sends data to url as multipart/form-data with a POST request.
func (c *Client) PostForm(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, withData(cfg, http.MethodPost, url, data, true))
}

// PutForm sends data to url as multipart/form-data with a PUT request.
func (c *Client) PutForm(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, withData(cfg, http.MethodPut, url, data, true))
}

// PatchForm sends data to url as multipart/form-data with a PATCH request.
func (c *Client) PatchForm(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, withData(cfg, http.MethodPatch, url, data, true))
}

func withCall(cfg *Config, method, url string) *Config {
	out := cfg.clone()
	out.Method = method
	out.URL = url

	return out
}

func withData(cfg *Config, method, url string, data any, form bool) *Config {
	out := withCall(cfg, method, url)
	out.Data = data

	if form {
		h := deep.Clone(out.Headers)
		if h == nil {
			h = make(map[string]any)
		}
		for k := range h {
			if strings.EqualFold(k, "Content-Type") {
				delete(h, k)
			}
		}
		h["Content-Type"] = ContentTypeMultipart
		out.Headers = Headers(h)
	}

	return out
}
