package client

import (
	"slices"
	"sync"
)

// Canceler triggers a [Token]. Only the first call has an effect. An empty
// message defaults to "canceled".
type Canceler func(message string, cfg *Config, request any)

// Listener is notified with the cancellation reason.
type Listener func(reason *Error)

// Subscription identifies a registered [Listener].
type Subscription uint64

type subscriber struct {
	id Subscription
	fn Listener
}

// Token is a one-shot cancellation signal that can be shared between
// requests. Once triggered its reason never changes.
type Token struct {
	mu        sync.Mutex
	reason    *Error
	done      chan struct{}
	listeners []subscriber
	nextID    Subscription
}

// NewToken creates a pending Token and hands its trigger to executor.
func NewToken(executor func(cancel Canceler)) *Token {
	t := &Token{done: make(chan struct{})}
	if executor != nil {
		executor(t.cancel)
	}

	return t
}

// Source pairs a Token with the function that triggers it.
type Source struct {
	Token  *Token
	Cancel Canceler
}

// NewSource returns a fresh Token and its trigger.
func NewSource() Source {
	var cancel Canceler
	t := NewToken(func(c Canceler) { cancel = c })

	return Source{Token: t, Cancel: cancel}
}

func (t *Token) cancel(message string, cfg *Config, request any) {
	t.mu.Lock()
	if t.reason != nil {
		t.mu.Unlock()
		return
	}

	reason := newCancelError(message, cfg, request)
	t.reason = reason
	close(t.doneLocked())
	pending := len(t.listeners) > 0
	t.mu.Unlock()

	if !pending {
		return
	}

	go t.notify(reason)
}

// notify pops listeners one at a time, so an Unsubscribe that lands before a
// listener's turn keeps it from being called.
func (t *Token) notify(reason *Error) {
	for {
		t.mu.Lock()
		if len(t.listeners) == 0 {
			t.listeners = nil
			t.mu.Unlock()
			return
		}
		l := t.listeners[0]
		t.listeners = t.listeners[1:]
		t.mu.Unlock()

		l.fn(reason)
	}
}

// Subscribe registers fn to be called once the token is triggered. A token
// that is already triggered calls fn immediately.
func (t *Token) Subscribe(fn Listener) Subscription {
	t.mu.Lock()
	if reason := t.reason; reason != nil {
		t.mu.Unlock()
		fn(reason)
		return 0
	}
	defer t.mu.Unlock()

	t.nextID++
	t.listeners = append(t.listeners, subscriber{id: t.nextID, fn: fn})

	return t.nextID
}

// Unsubscribe removes a registered listener. Unknown subscriptions are
// ignored. Listeners are notified asynchronously after a trigger; one removed
// before its notification runs is not called.
func (t *Token) Unsubscribe(s Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.listeners = slices.DeleteFunc(t.listeners, func(sub subscriber) bool {
		return sub.id == s
	})
}

// Reason returns the cancellation error, or nil while the token is pending.
func (t *Token) Reason() *Error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.reason
}

// Done is closed once the token has been triggered.
func (t *Token) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.doneLocked()
}

func (t *Token) doneLocked() chan struct{} {
	if t.done == nil {
		t.done = make(chan struct{})
	}

	return t.done
}

// ThrowIfRequested returns the cancellation error once the token has been
// triggered.
func (t *Token) ThrowIfRequested() error {
	if reason := t.Reason(); reason != nil {
		return reason
	}

	return nil
}
