package scope_test

import (
	"context"

	"github.com/dogmatiq/scopekit/channel"
)

// recordingChannel is a [channel.Channel] that records the traffic it carries
// and serves scripted responses.
type recordingChannel struct {
	// CallFunc, if non-nil, produces the response to each call. Otherwise
	// every call succeeds with an empty item list.
	CallFunc func(method string, req []byte) ([]byte, error)

	// SubscribeErr, if non-nil, causes Subscribe to fail.
	SubscribeErr error

	Calls         []recordedCall
	Subscriptions int
	Closures      int

	handler func([]byte)
}

type recordedCall struct {
	Method  string
	Request string
}

func (c *recordingChannel) Call(_ context.Context, method string, req []byte) ([]byte, error) {
	c.Calls = append(c.Calls, recordedCall{method, string(req)})

	if c.CallFunc != nil {
		return c.CallFunc(method, req)
	}

	return []byte(`[]`), nil
}

func (c *recordingChannel) Subscribe(_ string, fn func([]byte)) (channel.Subscription, error) {
	if c.SubscribeErr != nil {
		return nil, c.SubscribeErr
	}

	c.Subscriptions++
	c.handler = fn

	return subscriptionFunc(func() error {
		c.Closures++
		return nil
	}), nil
}

// Deliver simulates the arrival of a broadcast payload. Releasing the
// subscription is deliberately not honored, so tests can verify that a closed
// client stays silent even if the transport keeps delivering.
func (c *recordingChannel) Deliver(payload []byte) {
	c.handler(payload)
}

type subscriptionFunc func() error

func (f subscriptionFunc) Close() error { return f() }
