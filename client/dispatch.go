package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/adamwoolhether/relay/client/headers"
)

// dispatchRequest validates cfg, flattens its headers, transforms the request
// data, runs the selected adapter and transforms whatever data comes back.
// It works on a copy of cfg, the copy ends up in the returned response.
func dispatchRequest(ctx context.Context, cfg *Config) (*Response, error) {
	cfg = cfg.clone()

	if err := throwIfCanceled(ctx, cfg); err != nil {
		return nil, err
	}

	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	cfg.Headers = Headers(headers.Flatten(cfg.Headers, cfg.Method))

	data, err := transformData(cfg.TransformRequest, cfg.Data, cfg.Headers, 0)
	if err != nil {
		return nil, err
	}
	cfg.Data = data

	adapter, err := resolveAdapter(cfg.Adapter)
	if err != nil {
		return nil, err
	}

	resp, err := adapter(ctx, cfg)
	if err != nil {
		if IsCancel(err) {
			return nil, err
		}
		if cerr := throwIfCanceled(ctx, cfg); cerr != nil {
			return nil, cerr
		}

		if e, ok := errors.AsType[*Error](err); ok && e.Response != nil {
			d, terr := transformData(cfg.TransformResponse, e.Response.Data, cfg.Headers, e.Response.Status)
			if terr != nil {
				return nil, terr
			}
			e.Response.Data = d
		}

		return nil, err
	}

	if err := throwIfCanceled(ctx, cfg); err != nil {
		resp.Close()
		return nil, err
	}

	resp.Data, err = transformData(cfg.TransformResponse, resp.Data, cfg.Headers, resp.Status)
	if err != nil {
		resp.Close()
		return nil, err
	}

	return resp, nil
}

// throwIfCanceled returns the token's reason, or a cancellation when ctx is
// already done.
func throwIfCanceled(ctx context.Context, cfg *Config) error {
	if cfg.CancelToken != nil {
		if err := cfg.CancelToken.ThrowIfRequested(); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return newCancelError("", cfg, nil).wrap(context.Cause(ctx))
	}

	return nil
}
