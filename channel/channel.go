package channel

import (
	"context"
)

// A Channel carries named request/response calls and named broadcast
// subscriptions between this process and the process that owns the remote
// store.
//
// Implementations are expected to deliver calls issued by a single caller in
// the order they were made. No ordering is guaranteed across callers.
type Channel interface {
	// Call sends a single named request and suspends until the response (or
	// failure) arrives.
	//
	// Once issued, a call runs to completion or failure; there is no mid-flight
	// cancellation. Failures are returned to the caller as-is.
	Call(ctx context.Context, method string, req []byte) ([]byte, error)

	// Subscribe registers fn to receive broadcast messages published under the
	// given event name.
	Subscribe(event string, fn func(payload []byte)) (Subscription, error)
}

// A Subscription is a handle to a broadcast listener registered via
// [Channel.Subscribe].
type Subscription interface {
	// Close releases the subscription. No further payloads are delivered to
	// the listener after Close returns.
	//
	// Closing an already-closed subscription is not an error.
	Close() error
}
