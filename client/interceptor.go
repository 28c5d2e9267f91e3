package client

import (
	"context"
	"sync"
)

// Fulfilled handles a value coming through an interceptor chain.
type Fulfilled[T any] func(ctx context.Context, v T) (T, error)

// Rejected handles an error coming through an interceptor chain. Returning a
// nil error recovers the chain with the returned value.
type Rejected[T any] func(ctx context.Context, err error) (T, error)

// Interceptor is a registered pair of handlers. Either may be nil.
type Interceptor[T any] struct {
	Fulfilled Fulfilled[T]
	Rejected  Rejected[T]
}

// InterceptorManager keeps interceptors at stable ids. Ejecting an id leaves
// a hole, so ids handed out earlier stay valid.
type InterceptorManager[T any] struct {
	mu      sync.RWMutex
	entries []*Interceptor[T]
}

// Use registers a pair of handlers and returns its id.
func (m *InterceptorManager[T]) Use(fulfilled Fulfilled[T], rejected Rejected[T]) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, &Interceptor[T]{Fulfilled: fulfilled, Rejected: rejected})

	return len(m.entries) - 1
}

// Eject removes the interceptor at id. Unknown ids are ignored.
func (m *InterceptorManager[T]) Eject(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id >= 0 && id < len(m.entries) {
		m.entries[id] = nil
	}
}

// ForEach calls fn for every live interceptor in registration order.
func (m *InterceptorManager[T]) ForEach(fn func(Interceptor[T])) {
	for _, ic := range m.snapshot() {
		fn(ic)
	}
}

func (m *InterceptorManager[T]) snapshot() []Interceptor[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Interceptor[T], 0, len(m.entries))
	for _, ic := range m.entries {
		if ic != nil {
			out = append(out, *ic)
		}
	}

	return out
}

// runInterceptors threads v and err through chain. A fulfilled handler only
// runs while there is no error, a rejected handler only while there is one.
func runInterceptors[T any](ctx context.Context, chain []Interceptor[T], v T, err error) (T, error) {
	for _, ic := range chain {
		switch {
		case err == nil && ic.Fulfilled != nil:
			v, err = ic.Fulfilled(ctx, v)
		case err != nil && ic.Rejected != nil:
			v, err = ic.Rejected(ctx, err)
		}
	}

	return v, err
}
