package client_test

import (
	"sync"
	"testing"
	"time"

	"github.com/adamwoolhether/relay/client"
	"github.com/google/go-cmp/cmp"
)

func TestToken_CancelOnce(t *testing.T) {
	src := client.NewSource()

	if src.Token.Reason() != nil {
		t.Fatal("exp pending token")
	}
	if err := src.Token.ThrowIfRequested(); err != nil {
		t.Fatalf("exp nil err, got %v", err)
	}

	src.Cancel("first", nil, nil)
	src.Cancel("second", nil, nil)

	reason := src.Token.Reason()
	if reason == nil || reason.Message != "first" {
		t.Fatalf("exp first reason to stick, got %v", reason)
	}
	if !client.IsCancel(reason) {
		t.Errorf("exp reason to be a cancellation")
	}
	if reason.Name() != "CanceledError" {
		t.Errorf("exp CanceledError, got %q", reason.Name())
	}
	if reason.Code != client.ErrCodeCanceled {
		t.Errorf("exp code %q, got %q", client.ErrCodeCanceled, reason.Code)
	}
	if err := src.Token.ThrowIfRequested(); err != reason {
		t.Errorf("exp ThrowIfRequested to return the reason, got %v", err)
	}

	select {
	case <-src.Token.Done():
	default:
		t.Error("exp Done to be closed")
	}
}

func TestToken_Listeners(t *testing.T) {
	src := client.NewSource()

	var (
		mu    sync.Mutex
		calls []string
		done  = make(chan struct{})
	)
	record := func(name string) client.Listener {
		return func(*client.Error) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, name)
			if len(calls) == 2 {
				close(done)
			}
		}
	}

	src.Token.Subscribe(record("a"))
	removed := src.Token.Subscribe(record("removed"))
	src.Token.Subscribe(record("b"))
	src.Token.Unsubscribe(removed)
	src.Token.Unsubscribe(client.Subscription(999))

	src.Cancel("", nil, nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listeners were not notified")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("exp [a b], got %v", calls)
	}
}

func TestToken_TriggerTwiceNotifiesOnce(t *testing.T) {
	src := client.NewSource()

	var (
		mu     sync.Mutex
		counts = make(map[string]int)
		wg     sync.WaitGroup
	)
	for _, name := range []string{"a", "b", "c"} {
		wg.Add(1)
		src.Token.Subscribe(func(*client.Error) {
			mu.Lock()
			defer mu.Unlock()
			counts[name]++
			if counts[name] == 1 {
				wg.Done()
			}
		})
	}

	src.Cancel("first", nil, nil)
	src.Cancel("second", nil, nil)

	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(map[string]int{"a": 1, "b": 1, "c": 1}, counts); diff != "" {
		t.Errorf("notification counts mismatch (-want +got):\n%s", diff)
	}
}

func TestToken_UnsubscribeBeforeNotification(t *testing.T) {
	src := client.NewSource()

	var (
		calls []string
		late  client.Subscription
		done  = make(chan struct{})
	)
	src.Token.Subscribe(func(*client.Error) {
		calls = append(calls, "first")
		src.Token.Unsubscribe(late)
	})
	late = src.Token.Subscribe(func(*client.Error) {
		calls = append(calls, "late")
	})
	src.Token.Subscribe(func(*client.Error) {
		calls = append(calls, "last")
		close(done)
	})

	src.Cancel("", nil, nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listeners were not notified")
	}

	if diff := cmp.Diff([]string{"first", "last"}, calls); diff != "" {
		t.Errorf("notified listeners mismatch (-want +got):\n%s", diff)
	}
}

func TestToken_SubscribeAfterCancel(t *testing.T) {
	src := client.NewSource()
	src.Cancel("gone", nil, nil)

	var got *client.Error
	if sub := src.Token.Subscribe(func(reason *client.Error) { got = reason }); sub != 0 {
		t.Errorf("exp zero subscription, got %d", sub)
	}
	if got == nil || got.Message != "gone" {
		t.Errorf("exp listener to run immediately with the reason, got %v", got)
	}
}

func TestToken_ZeroValue(t *testing.T) {
	var tok client.Token

	select {
	case <-tok.Done():
		t.Error("zero token must be pending")
	default:
	}
}
