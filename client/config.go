package client

import (
	"io"
	"net/http"
	"time"
)

// Adapter names understood by the selection logic.
const (
	AdapterXHR   = "xhr"
	AdapterFetch = "fetch"
	AdapterHTTP  = "http"
)

// Default header values.
const (
	DefaultAccept        = "application/json, text/plain, */*"
	ContentTypeJSON      = "application/json;charset=utf-8"
	ContentTypeForm      = "application/x-www-form-urlencoded;charset=utf-8"
	ContentTypeMultipart = "multipart/form-data"
)

// ResponseType selects how a response body is handed back in [Response.Data].
type ResponseType string

const (
	// ResponseTypeJSON reads the body as text and lets the response transform
	// decode it. This is the default.
	ResponseTypeJSON ResponseType = "json"
	// ResponseTypeText reads the body as a string.
	ResponseTypeText ResponseType = "text"
	// ResponseTypeBytes reads the body as a []byte.
	ResponseTypeBytes ResponseType = "bytes"
	// ResponseTypeStream leaves the body unread as an io.ReadCloser. The caller
	// must close it.
	ResponseTypeStream ResponseType = "stream"
)

// Headers holds header values keyed by name, alongside optional
// method-scoped blocks ("common", "get", "post", ...) that are flattened onto
// the top level when a request is dispatched.
type Headers map[string]any

// BasicAuth credentials are sent as an Authorization header.
type BasicAuth struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Transformer rewrites request or response data. headers may be modified in
// place. status is zero for request transforms.
type Transformer func(data any, headers Headers, status int) (any, error)

// ProgressEvent reports upload or download progress. Total is -1 when the
// size is unknown, in which case Progress stays at zero.
type ProgressEvent struct {
	Loaded   int64
	Total    int64
	Progress float64
	Bytes    []byte
	Config   *Config
}

// Config describes a single request, or the defaults of a [Client]. Zero
// values mean "not set" for merge purposes, so a request that must override
// a set default with "none" uses a negative value: a negative Timeout
// disables the timeout and a negative MaxRedirects disables redirects.
type Config struct {
	Method           string                      `json:"method,omitempty" validate:"omitempty,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	URL              string                      `json:"url,omitempty"`
	BaseURL          string                      `json:"baseURL,omitempty"`
	Params           map[string]any              `json:"params,omitempty" validate:"-"`
	ParamsSerializer func(map[string]any) string `json:"-"`
	Headers          Headers                     `json:"headers,omitempty" validate:"-"`
	Data             any                         `json:"data,omitempty" validate:"-"`
	// Timeout bounds the whole request. Negative means no timeout.
	Timeout          time.Duration               `json:"timeout,omitempty"`
	Adapter          []AdapterRef                `json:"-" validate:"-"`

	TransformRequest  []Transformer `json:"-"`
	TransformResponse []Transformer `json:"-"`

	CancelToken      *Token         `json:"-" validate:"-"`
	Auth             *BasicAuth     `json:"auth,omitempty" validate:"-"`
	ValidateStatus   func(int) bool `json:"-"`
	ResponseType     ResponseType   `json:"responseType,omitempty" validate:"omitempty,oneof=json text bytes stream"`
	MaxRedirects     int            `json:"maxRedirects,omitempty" validate:"gte=-1"`
	MaxContentLength int64          `json:"maxContentLength,omitempty" validate:"gte=0"`

	Transport http.RoundTripper `json:"-" validate:"-"`
	Jar       http.CookieJar    `json:"-" validate:"-"`

	OnUploadProgress   func(ProgressEvent) `json:"-"`
	OnDownloadProgress func(ProgressEvent) `json:"-"`

	Extra map[string]any `json:"extra,omitempty" validate:"-"`
}

// DefaultConfig returns a fresh copy of the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Method:  http.MethodGet,
		Adapter: []AdapterRef{Named(AdapterXHR), Named(AdapterFetch), Named(AdapterHTTP)},
		Headers: Headers{
			"common": map[string]any{"Accept": DefaultAccept},
		},
		TransformRequest:  []Transformer{DefaultTransformRequest},
		TransformResponse: []Transformer{DefaultTransformResponse},
		ValidateStatus:    DefaultValidateStatus,
	}
}

// DefaultValidateStatus accepts every 2xx status.
func DefaultValidateStatus(status int) bool {
	return status >= 200 && status < 300
}

// Response is the settled outcome of a request.
type Response struct {
	Data       any
	Status     int
	StatusText string
	Headers    http.Header
	Config     *Config
	// Request is the transport handle that produced the response, an
	// *http.Request for the network adapters.
	Request any
}

// Close releases a streamed body. It is a no-op for any other data.
func (r *Response) Close() error {
	if c, ok := r.Data.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// clone returns a shallow copy of c that can be modified without touching
// the original's top-level fields.
func (c *Config) clone() *Config {
	if c == nil {
		return &Config{}
	}

	cpy := *c
	return &cpy
}
