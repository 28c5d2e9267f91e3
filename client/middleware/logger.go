package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/adamwoolhether/relay/client"
	"github.com/adamwoolhether/relay/client/urls"
)

// Logger logs the start and completion of every request.
func Logger(log *slog.Logger) client.Middleware {
	m := func(handler client.Handler) client.Handler {
		h := func(ctx context.Context, call *client.Call) error {
			now := time.Now()

			method := call.Config.Method
			target := urls.FullPath(call.Config.BaseURL, call.Config.URL)
			id := GetRequestID(ctx)

			log.Info("request started", "method", method, "url", target, "request_id", id)

			err := handler(ctx, call)

			var status int
			if call.Response != nil {
				status = call.Response.Status
			}

			log.Info("request completed", "method", method, "url", target, "request_id", id, "statusCode", status, "since", time.Since(now).String())

			return err
		}

		return h
	}

	return m
}
