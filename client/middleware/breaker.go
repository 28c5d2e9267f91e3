package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adamwoolhether/relay/client"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = gobreaker.ErrOpenState

// ErrTooManyProbes is returned when the half-open breaker already has its
// maximum number of trial requests in flight.
var ErrTooManyProbes = gobreaker.ErrTooManyRequests

// BreakerConfig tunes [Breaker].
type BreakerConfig struct {
	Name string
	// HalfOpenMaxRequests trial requests are let through once Timeout has
	// passed.
	HalfOpenMaxRequests uint32
	// Interval is the cyclic period in the closed state after which failure
	// counts are cleared. Zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// MinRequests must be seen before the breaker can trip.
	MinRequests uint32
	// FailureThreshold failures trip the breaker.
	FailureThreshold uint32
	// OnStateChange is called on every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// Breaker stops dispatching once the chain keeps failing. Network errors,
// timeouts and 5xx responses count as failures. Cancellations and other
// statuses do not.
func Breaker(cfg BreakerConfig) client.Middleware {
	name := cfg.Name
	if name == "" {
		name = "relay"
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return counts.TotalFailures >= max(cfg.FailureThreshold, 1)
		},
		OnStateChange: cfg.OnStateChange,
		IsSuccessful:  isSuccessful,
	})

	m := func(handler client.Handler) client.Handler {
		h := func(ctx context.Context, call *client.Call) error {
			_, err := cb.Execute(func() (any, error) {
				return nil, handler(ctx, call)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				err = fmt.Errorf("circuit %s: %w", name, err)
				call.Err = err
			}

			return err
		}

		return h
	}

	return m
}

func isSuccessful(err error) bool {
	if err == nil || client.IsCancel(err) {
		return true
	}

	e, ok := errors.AsType[*client.Error](err)
	if !ok {
		return false
	}

	return e.Response != nil && e.Status() < 500
}
