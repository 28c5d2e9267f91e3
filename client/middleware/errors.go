package middleware

import (
	"context"
	"errors"
	"log/slog"
	"path"

	"github.com/adamwoolhether/relay/client"
)

// Errors logs errors coming out of the call chain and passes them on.
// Cancellations are logged at info level.
func Errors(log *slog.Logger) client.Middleware {
	m := func(handler client.Handler) client.Handler {
		h := func(ctx context.Context, call *client.Call) error {
			err := handler(ctx, call)
			if err == nil {
				return nil
			}

			reqLog := log.With("request_id", GetRequestID(ctx))

			if client.IsCancel(err) {
				reqLog.Info("request canceled", "reason", err.Error())
				return err
			}

			relayErr, ok := errors.AsType[*client.Error](err)
			if !ok {
				reqLog.Error(err.Error())
				return err
			}

			funcName, fileName := relayErr.Source()
			reqLog.Error(err.Error(), "code", relayErr.Code, "status", relayErr.Status(), "source_err_file", path.Base(fileName), "source_err_func", path.Base(funcName))

			return err
		}

		return h
	}

	return m
}
