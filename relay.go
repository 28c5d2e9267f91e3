// Package relay exposes the client builder and helpers for running requests
// together.
package relay

import (
	"context"
	"sync"

	"github.com/adamwoolhether/relay/client"
	"golang.org/x/sync/errgroup"
)

// New instantiates a new *client.Client with the provided options.
// If not specified, http.DefaultTransport and the built-in defaults are used.
func New(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// Default returns a shared client built with no options.
var Default = sync.OnceValue(func() *client.Client {
	c, err := client.Build()
	if err != nil {
		panic(err)
	}
	return c
})

// Call is a single request run by [All].
type Call func(ctx context.Context) (*client.Response, error)

// All runs calls concurrently and returns their responses in the order given.
// The first failure cancels the context handed to the remaining calls and is
// returned.
func All(ctx context.Context, calls ...Call) ([]*client.Response, error) {
	out := make([]*client.Response, len(calls))

	g, ctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			resp, err := call(ctx)
			if err != nil {
				return err
			}
			out[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// Spread calls fn with the responses returned by [All].
func Spread[T any](fn func(resps ...*client.Response) T) func([]*client.Response) T {
	return func(resps []*client.Response) T {
		return fn(resps...)
	}
}

// IsCancel reports whether err is a cancellation.
func IsCancel(err error) bool { return client.IsCancel(err) }

// IsError reports whether err is a *client.Error.
func IsError(err error) bool { return client.IsError(err) }
