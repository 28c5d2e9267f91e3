package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/adamwoolhether/relay/client"
)

// Panics recovers from panics if they occur further down the chain.
func Panics() client.Middleware {
	m := func(handler client.Handler) client.Handler {
		h := func(ctx context.Context, call *client.Call) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(trace))
					call.Err = err
				}
			}()

			return handler(ctx, call)
		}
		return h
	}
	return m
}
