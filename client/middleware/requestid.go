package middleware

import (
	"context"
	"maps"

	"github.com/adamwoolhether/relay/client"
	"github.com/adamwoolhether/relay/client/headers"
	"github.com/google/uuid"
)

// RequestIDHeader carries the id of every request.
const RequestIDHeader = "X-Request-ID"

// RequestID tags each request with an X-Request-ID header. An id already set
// on the request, directly or through a method-scoped block, is kept. The id is available to inner middleware through
// [GetRequestID].
func RequestID() client.Middleware {
	m := func(handler client.Handler) client.Handler {
		h := func(ctx context.Context, call *client.Call) error {
			id, ok := headers.Get(headers.Flatten(call.Config.Headers, call.Config.Method), RequestIDHeader)
			if !ok || id == "" {
				id = uuid.NewString()

				cfg := *call.Config
				cfg.Headers = maps.Clone(cfg.Headers)
				if cfg.Headers == nil {
					cfg.Headers = client.Headers{}
				}
				cfg.Headers[RequestIDHeader] = id
				call.Config = &cfg
			}

			return handler(setRequestID(ctx, id), call)
		}

		return h
	}

	return m
}
