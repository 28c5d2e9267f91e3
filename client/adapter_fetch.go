package client

import (
	"context"
	"fmt"
	"net/http"
)

// defaultMaxRedirects matches net/http's own cap.
const defaultMaxRedirects = 10

// fetchAdapter sends requests through a net/http client over the configured
// transport.
func fetchAdapter(ctx context.Context, cfg *Config) (*Response, error) {
	req, err := newRequest(ctx, cfg)
	if err != nil {
		return nil, err
	}

	f := beginFlight(ctx, cfg, req)
	if err := f.ctx.Err(); err != nil {
		defer f.end()
		return nil, f.fail(cfg, req, err)
	}

	hc := &http.Client{
		Transport:     cfg.Transport,
		Jar:           cfg.Jar,
		CheckRedirect: checkRedirect(cfg.MaxRedirects),
	}

	resp, err := hc.Do(req.WithContext(f.ctx))
	if err != nil {
		defer f.end()
		return nil, f.fail(cfg, req, err)
	}

	out, err := readResponse(f, cfg, req, resp)
	if err != nil {
		return nil, err
	}

	settled, err := settle(out)
	if err != nil {
		out.Close()
		return nil, err
	}

	return settled, nil
}

// checkRedirect enforces limit: zero keeps the default cap and a negative value
// returns the redirect response itself.
func checkRedirect(limit int) func(*http.Request, []*http.Request) error {
	if limit < 0 {
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	if limit == 0 {
		limit = defaultMaxRedirects
	}

	return func(_ *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return fmt.Errorf("after %d redirects: %w", limit, ErrTooManyRedirects)
		}
		return nil
	}
}
