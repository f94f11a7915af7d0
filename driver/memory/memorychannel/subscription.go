package memorychannel

import (
	"fmt"
	"slices"

	"github.com/dogmatiq/scopekit/channel"
	"github.com/dogmatiq/scopekit/scope"
)

type subscriber struct {
	id uint64
	fn func(payload []byte)
}

// Subscribe registers fn to receive shared-scope change broadcasts.
//
// [scope.EventSharedScopeChanged] is the only event the emulated remote side
// publishes.
func (c *Channel) Subscribe(event string, fn func(payload []byte)) (channel.Subscription, error) {
	if event != scope.EventSharedScopeChanged {
		return nil, fmt.Errorf("unrecognized event %q", event)
	}

	c.m.Lock()
	defer c.m.Unlock()

	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id, fn})

	return &subscription{
		channel: c,
		id:      id,
	}, nil
}

// Broadcast publishes a raw payload to every shared-scope subscriber, as if
// the remote side had sent it. The store contents are not modified.
func (c *Channel) Broadcast(payload []byte) {
	c.m.Lock()
	subs := slices.Clone(c.subs)
	c.m.Unlock()

	for _, s := range subs {
		s.fn(payload)
	}
}

// subscription is a handle to a listener registered via [Channel.Subscribe].
type subscription struct {
	channel *Channel
	id      uint64
}

func (s *subscription) Close() error {
	s.channel.m.Lock()
	defer s.channel.m.Unlock()

	s.channel.subs = slices.DeleteFunc(
		s.channel.subs,
		func(sub subscriber) bool {
			return sub.id == s.id
		},
	)

	return nil
}
