package scope

import (
	"encoding/json"

	"github.com/dogmatiq/scopekit/channel"
	"github.com/dogmatiq/scopekit/internal/syncx"
)

// A SharedClient accesses the single store instance shared by all consumers
// process-wide. Its scope identity is always absent.
//
// Writers to the shared scope may interleave arbitrarily. The remote side
// broadcasts a notification for each change applied by another writer, and the
// client re-publishes each meaningful notification as a local [Change] event;
// use [SharedClient.OnChange] to observe them.
type SharedClient struct {
	client
	events emitter
	sub    channel.Subscription
	closed syncx.SucceedOnce
}

// NewShared returns a client for the shared scope of the store reachable via
// ch.
//
// It subscribes to the shared-scope change broadcast; the subscription is held
// until [SharedClient.Close] is called.
func NewShared(ch channel.Channel) (*SharedClient, error) {
	c := &SharedClient{
		client: client{channel: ch},
	}

	sub, err := ch.Subscribe(EventSharedScopeChanged, c.deliver)
	if err != nil {
		return nil, err
	}
	c.sub = sub

	return c, nil
}

// OnChange registers fn to be invoked for each change applied to the shared
// scope by another writer.
//
// fn is invoked synchronously, after any subscribers registered before it, and
// is never invoked again once remove (or [SharedClient.Close]) has been
// called.
func (c *SharedClient) OnChange(fn func(Change)) (remove func()) {
	return c.events.subscribe(fn)
}

// Close releases the broadcast subscription. No further change events fire
// after it returns.
//
// The remote store is left untouched; its lifecycle is owned by the remote
// side. Closing an already-closed client has no effect.
func (c *SharedClient) Close() error {
	return c.closed.Do(func() error {
		// Even if releasing the subscription fails, local subscribers must not
		// observe any further events.
		defer c.events.clear()

		return c.sub.Close()
	})
}

// deliver handles one raw broadcast payload.
//
// Notifications are advisory; a payload that cannot be decoded, or that
// carries neither changed nor deleted keys, is dropped without error.
func (c *SharedClient) deliver(payload []byte) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return
	}

	change := Change{Deleted: n.Deleted}

	if len(n.Changed) != 0 {
		change.Changed = make(map[string]string, len(n.Changed))
		for _, item := range n.Changed {
			change.Changed[item.Key] = item.Value
		}
	}

	if change.IsEmpty() {
		return
	}

	c.events.emit(change)
}
