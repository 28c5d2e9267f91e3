// Package middleware provides onion middleware for a client.Client:
// request logging, request ids, error logging, Prometheus metrics, a circuit
// breaker and panic recovery.
//
// Middleware is installed with client.WithMiddleware or Client.Use. The first
// middleware given is the outermost, so a typical stack recovers panics first
// and meters last:
//
//	c.Use(
//		middleware.Panics(),
//		middleware.RequestID(),
//		middleware.Logger(log),
//		middleware.Errors(log),
//		metrics.Middleware(),
//	)
package middleware
