package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adamwoolhether/relay/client/headers"
	"github.com/adamwoolhether/relay/client/urls"
)

// AdapterFunc performs a request and settles its response.
type AdapterFunc func(ctx context.Context, cfg *Config) (*Response, error)

// AdapterRef names a built-in adapter or carries a custom one.
type AdapterRef struct {
	name string
	fn   AdapterFunc
}

// Named refers to a built-in adapter by name, case-insensitively.
func Named(name string) AdapterRef {
	return AdapterRef{name: name}
}

// Custom wraps fn as an adapter reference.
func Custom(fn AdapterFunc) AdapterRef {
	return AdapterRef{fn: fn}
}

func (r AdapterRef) String() string {
	switch {
	case r.fn != nil:
		return "custom"
	case r.name != "":
		return r.name
	}

	return "<nil>"
}

// knownAdapters maps every built-in name to its implementation. A nil
// entry marks an adapter the current platform cannot run.
var knownAdapters = map[string]AdapterFunc{
	AdapterHTTP:  httpAdapter,
	AdapterXHR:   xhrAdapter,
	AdapterFetch: fetchAdapter,
}

var knownOrder = []string{AdapterHTTP, AdapterXHR, AdapterFetch}

// resolveAdapter walks refs in order and returns the first one that resolves
// to a runnable adapter.
func resolveAdapter(refs []AdapterRef) (AdapterFunc, error) {
	if len(refs) == 0 {
		refs = DefaultConfig().Adapter
	}

	var (
		last  string
		known bool
	)
	for _, ref := range refs {
		if ref.fn != nil {
			return ref.fn, nil
		}
		if ref.name == "" {
			return nil, ErrAdapterNotCallable
		}

		last = ref.name
		var fn AdapterFunc
		fn, known = knownAdapters[strings.ToLower(ref.name)]
		if fn != nil {
			return fn, nil
		}
	}

	if known {
		return nil, fmt.Errorf("adapter %s: %w", last, ErrAdapterNotSupported)
	}

	return nil, fmt.Errorf("%w '%s' is specified\nWe know these adapters inside the environment: %s",
		ErrUnknownAdapter, last, strings.Join(knownOrder, ", "))
}

// =============================================================================

// flight ties one transport call to its cancel token, the caller's context
// and the configured timeout. The first of them to fire becomes the cause of
// ctx.
type flight struct {
	ctx   context.Context
	abort context.CancelCauseFunc

	once  sync.Once
	stops []func()
}

func beginFlight(ctx context.Context, cfg *Config, handle any) *flight {
	fctx, abort := context.WithCancelCause(context.WithoutCancel(ctx))
	f := &flight{ctx: fctx, abort: abort}

	if cfg.Timeout > 0 {
		msg := fmt.Sprintf("Timeout of %d ms exceeded", cfg.Timeout.Milliseconds())
		t := time.AfterFunc(cfg.Timeout, func() {
			abort(newError(msg, ErrCodeTimeout, cfg, handle, nil))
		})
		f.stops = append(f.stops, func() { t.Stop() })
	}

	if tok := cfg.CancelToken; tok != nil {
		sub := tok.Subscribe(func(reason *Error) { abort(reason) })
		f.stops = append(f.stops, func() { tok.Unsubscribe(sub) })
	}

	if ctx.Err() != nil {
		abort(newCancelError("", cfg, handle).wrap(context.Cause(ctx)))
	} else {
		stop := context.AfterFunc(ctx, func() {
			abort(newCancelError("", cfg, handle).wrap(context.Cause(ctx)))
		})
		f.stops = append(f.stops, func() { stop() })
	}

	return f
}

// onEnd registers fn to run when the flight ends.
func (f *flight) onEnd(fn func()) {
	f.stops = append(f.stops, fn)
}

// end deregisters every listener. It is safe to call more than once.
func (f *flight) end() {
	f.once.Do(func() {
		for _, stop := range f.stops {
			stop()
		}
		f.abort(nil)
	})
}

// fail classifies a transport error. Cancellations and timeouts surface as
// the error that triggered them.
func (f *flight) fail(cfg *Config, handle any, err error) error {
	if cause := context.Cause(f.ctx); cause != nil {
		if e, ok := errors.AsType[*Error](cause); ok {
			return e
		}
	}

	switch {
	case errors.Is(err, ErrTooManyRedirects):
		return newError(ErrTooManyRedirects.Error(), ErrCodeTooManyRedirects, cfg, handle, nil).wrap(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newError("Request aborted", ErrCodeAborted, cfg, handle, nil).wrap(err)
	}

	return newError("Network Error", "", cfg, handle, nil).wrap(err)
}

// =============================================================================

// target resolves the full request URL and rejects schemes no network
// adapter can serve.
func target(cfg *Config) (*url.URL, error) {
	full := urls.Build(urls.FullPath(cfg.BaseURL, cfg.URL), cfg.Params, cfg.ParamsSerializer)

	u, err := url.Parse(full)
	if err != nil {
		return nil, newError("Invalid URL", ErrCodeInvalidURL, cfg, nil, nil).wrap(err)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return nil, newError(fmt.Sprintf("Unsupported protocol %s:", u.Scheme), ErrCodeNotSupported, cfg, nil, nil)
	}

	if u.Host == "" {
		return nil, newError("Invalid URL", ErrCodeInvalidURL, cfg, nil, nil)
	}

	return u, nil
}

// requestBody turns transformed data into a body reader and reports its
// length when known.
func requestBody(cfg *Config) (io.Reader, int64, error) {
	switch v := cfg.Data.(type) {
	case nil:
		return nil, 0, nil
	case string:
		return strings.NewReader(v), int64(len(v)), nil
	case []byte:
		return bytes.NewReader(v), int64(len(v)), nil
	case *bytes.Buffer:
		return v, int64(v.Len()), nil
	case io.Reader:
		return v, -1, nil
	}

	msg := fmt.Sprintf("Data after transformation must be a string, []byte or io.Reader, got %T", cfg.Data)
	return nil, 0, newError(msg, ErrCodeBadOptionValue, cfg, nil, nil)
}

// newRequest builds the *http.Request shared by the network adapters.
func newRequest(ctx context.Context, cfg *Config) (*http.Request, error) {
	u, err := target(cfg)
	if err != nil {
		return nil, err
	}

	body, size, err := requestBody(cfg)
	if err != nil {
		return nil, err
	}

	if body != nil && cfg.OnUploadProgress != nil {
		body = &progressReader{r: body, total: size, cfg: cfg, fn: cfg.OnUploadProgress}
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), u.String(), body)
	if err != nil {
		return nil, newError("Invalid URL", ErrCodeInvalidURL, cfg, nil, nil).wrap(err)
	}
	if size >= 0 && body != nil {
		req.ContentLength = size
	}

	req.Header = headers.ToHTTP(cfg.Headers)
	if body == nil {
		req.Header.Del("Content-Type")
	}
	if cfg.Auth != nil {
		req.SetBasicAuth(cfg.Auth.Username, cfg.Auth.Password)
	}

	return req, nil
}

// readResponse builds a Response from resp according to the configured
// response type. Streamed bodies keep the flight open until closed, every
// other body is read in full before the flight ends.
func readResponse(f *flight, cfg *Config, req *http.Request, resp *http.Response) (*Response, error) {
	var body io.ReadCloser = resp.Body
	if cfg.OnDownloadProgress != nil {
		body = readCloser{
			Reader: &progressReader{r: body, total: resp.ContentLength, cfg: cfg, fn: cfg.OnDownloadProgress},
			Closer: body,
		}
	}
	if cfg.MaxContentLength > 0 {
		body = readCloser{
			Reader: &limitReader{r: body, limit: cfg.MaxContentLength},
			Closer: body,
		}
	}

	out := &Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    resp.Header,
		Config:     cfg,
		Request:    req,
	}

	if cfg.ResponseType == ResponseTypeStream {
		out.Data = &flightBody{ReadCloser: body, end: f.end}
		return out, nil
	}

	defer f.end()
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		if errors.Is(err, errContentTooLarge) {
			msg := fmt.Sprintf("maxContentLength size of %d exceeded", cfg.MaxContentLength)
			return nil, newError(msg, ErrCodeBadResponse, cfg, req, nil).wrap(err)
		}
		return nil, f.fail(cfg, req, err)
	}

	switch cfg.ResponseType {
	case ResponseTypeBytes:
		out.Data = b
	default:
		out.Data = string(b)
	}

	return out, nil
}

func statusText(resp *http.Response) string {
	if s, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok {
		return s
	}

	return http.StatusText(resp.StatusCode)
}

// =============================================================================

type readCloser struct {
	io.Reader
	io.Closer
}

// flightBody ends its flight when the caller closes the stream.
type flightBody struct {
	io.ReadCloser
	end func()
}

func (b *flightBody) Close() error {
	err := b.ReadCloser.Close()
	b.end()
	return err
}

var errContentTooLarge = errors.New("response body exceeds max content length")

type limitReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.read > l.limit {
		return n, errContentTooLarge
	}

	return n, err
}

// progressReader reports every read to fn.
type progressReader struct {
	r      io.Reader
	loaded int64
	total  int64
	cfg    *Config
	fn     func(ProgressEvent)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)

		var pct float64
		if p.total > 0 {
			pct = float64(p.loaded) / float64(p.total) * 100
		}

		p.fn(ProgressEvent{
			Loaded:   p.loaded,
			Total:    p.total,
			Progress: pct,
			Bytes:    bytes.Clone(b[:n]),
			Config:   p.cfg,
		})
	}

	return n, err
}
