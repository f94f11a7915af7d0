package scope

import (
	"slices"
	"sync"

	"github.com/dogmatiq/dyad"
)

// emitter fans change events out to registered subscribers.
//
// Delivery is synchronous and in registration order, with no buffering: a
// subscriber registered after an event fired never sees it. Each subscriber
// receives its own copy of the change, so one subscriber cannot mutate what
// another observes.
type emitter struct {
	m    sync.Mutex
	next uint64
	subs []subscriber
}

type subscriber struct {
	id uint64
	fn func(Change)
}

func (e *emitter) subscribe(fn func(Change)) (remove func()) {
	e.m.Lock()
	defer e.m.Unlock()

	e.next++
	id := e.next
	e.subs = append(e.subs, subscriber{id, fn})

	return func() {
		e.m.Lock()
		defer e.m.Unlock()

		e.subs = slices.DeleteFunc(
			e.subs,
			func(s subscriber) bool {
				return s.id == id
			},
		)
	}
}

func (e *emitter) emit(c Change) {
	e.m.Lock()
	subs := slices.Clone(e.subs)
	e.m.Unlock()

	for _, s := range subs {
		s.fn(dyad.Clone(c))
	}
}

// clear removes all subscribers. Subsequent calls to emit fan out to nobody.
func (e *emitter) clear() {
	e.m.Lock()
	defer e.m.Unlock()

	e.subs = nil
}
