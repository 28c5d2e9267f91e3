package client

import (
	"context"
	"errors"
	"slices"
)

// Call is the state shared by every middleware around a single dispatch.
type Call struct {
	// Config is the request about to be dispatched. Middleware may replace it
	// before calling the next handler.
	Config *Config
	// Defaults are the client's defaults. They must not be modified.
	Defaults *Config
	// Response is set once the dispatch produced one, including the
	// response attached to a failed status.
	Response *Response
	// Err is the dispatch error, if any.
	Err error
}

// Handler runs a dispatch for call.
type Handler func(ctx context.Context, call *Call) error

// Middleware defines a signature to chain Handlers together. Code before the
// call to next runs on the way in, code after it on the way out.
type Middleware func(next Handler) Handler

// wrap creates a new handler by wrapping middleware around a final handler.
// The first middleware given is the outermost.
func wrap(mw []Middleware, handler Handler) Handler {
	for _, mwFunc := range slices.Backward(mw) {
		if mwFunc != nil {
			handler = mwFunc(handler)
		}
	}

	return handler
}

// dispatch is the innermost handler of every chain.
func dispatch(ctx context.Context, call *Call) error {
	resp, err := dispatchRequest(ctx, call.Config)
	if err != nil {
		call.Err = err
		if e, ok := errors.AsType[*Error](err); ok && e.Response != nil {
			call.Response = e.Response
		}
		return err
	}

	call.Response = resp
	call.Err = nil

	return nil
}
