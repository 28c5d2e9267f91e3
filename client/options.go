package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/relay/client/throttle"
	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	defaults          *Config
	client            *http.Client
	rt                http.RoundTripper
	jar               http.CookieJar
	timeout           *time.Duration
	baseURL           string
	headers           map[string]string
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	adapters          []AdapterRef
	middleware        []Middleware
	logger            *slog.Logger
	tracer            trace.Tracer
}

// WithDefaults merges cfg over the built-in defaults. url, params and data
// are request scoped and ignored here.
func WithDefaults(cfg *Config) Option {
	return func(c *options) error {
		if cfg == nil {
			return errors.New("defaults must not be nil")
		}
		c.defaults = cfg
		return nil
	}
}

// WithBaseURL prefixes every relative request URL.
func WithBaseURL(u string) Option {
	return func(c *options) error {
		if u == "" {
			return errors.New("base url must not be empty")
		}
		c.baseURL = u
		return nil
	}
}

// WithHeader adds a header to the common block sent with every request.
func WithHeader(key, value string) Option {
	return func(c *options) error {
		if key == "" {
			return errors.New("header key must not be empty")
		}
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
		return nil
	}
}

// WithClient takes the transport, cookie jar and timeout of hc.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithCookieJar stores and replays cookies across requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *options) error {
		if jar == nil {
			return errors.New("cookie jar must not be nil")
		}
		c.jar = jar
		return nil
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithHostThrottle is like [WithThrottle] but keeps a separate bucket for
// every target host.
func WithHostThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst, PerHost: true}
		return nil
	}
}

// WithNoFollowRedirects returns redirect responses instead of following them.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithAdapter replaces the default adapter preference list.
func WithAdapter(refs ...AdapterRef) Option {
	return func(c *options) error {
		if len(refs) == 0 {
			return errors.New("at least one adapter is required")
		}
		c.adapters = refs
		return nil
	}
}

// WithMiddleware installs middleware around every dispatch. The first one
// given is the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *options) error {
		c.middleware = append(c.middleware, mw...)
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer starts a span per request on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}
