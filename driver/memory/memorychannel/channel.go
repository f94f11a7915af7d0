package memorychannel

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dogmatiq/scopekit/scope"
)

// A Channel is an in-process implementation of [channel.Channel] that
// emulates the process that owns the remote store.
//
// It services fetch-all and update calls against in-memory state, one map per
// scope identity, and broadcasts a change notification to every shared-scope
// subscriber for each update batch applied to the shared scope. The zero
// value is an empty store, ready for use.
type Channel struct {
	// BeforeCall, if non-nil, is called before a call is serviced. If it
	// returns an error the call fails without touching the store.
	BeforeCall func(method string, req []byte) error

	m      sync.Mutex
	scopes map[string]map[string]string // keyed by workspace identity, "" = shared
	subs   []subscriber
	nextID uint64
}

// pair is the wire form of a key/value item.
type pair [2]string

// request is the remote side's view of an inbound call payload.
type request struct {
	Workspace string   `json:"workspace,omitempty"`
	Insert    []pair   `json:"insert,omitempty"`
	Delete    []string `json:"delete,omitempty"`
}

// notification is the wire form of a shared-scope change broadcast.
type notification struct {
	Changed []pair   `json:"changed,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
}

// Call services a single named request against the in-memory store.
func (c *Channel) Call(ctx context.Context, method string, req []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.BeforeCall != nil {
		if err := c.BeforeCall(method, req); err != nil {
			return nil, err
		}
	}

	var r request
	if err := json.Unmarshal(req, &r); err != nil {
		return nil, fmt.Errorf("unable to decode %q request: %w", method, err)
	}

	switch method {
	case scope.MethodFetchAll:
		return c.fetchAll(r)
	case scope.MethodSubmitUpdate:
		return c.submitUpdate(r)
	default:
		return nil, fmt.Errorf("unrecognized method %q", method)
	}
}

func (c *Channel) fetchAll(r request) ([]byte, error) {
	c.m.Lock()
	contents := maps.Clone(c.scopes[r.Workspace])
	c.m.Unlock()

	items := make([]pair, 0, len(contents))
	for k, v := range contents {
		items = append(items, pair{k, v})
	}

	return json.Marshal(items)
}

func (c *Channel) submitUpdate(r request) ([]byte, error) {
	c.m.Lock()

	contents := c.scopes[r.Workspace]
	if contents == nil {
		if c.scopes == nil {
			c.scopes = map[string]map[string]string{}
		}

		contents = map[string]string{}
		c.scopes[r.Workspace] = contents
	}

	for _, p := range r.Insert {
		contents[p[0]] = p[1]
	}

	for _, k := range r.Delete {
		delete(contents, k)
	}

	subs := slices.Clone(c.subs)
	c.m.Unlock()

	// A shared-scope update is echoed to every shared-scope subscriber. An
	// empty batch is a legal no-op and produces no notification.
	if r.Workspace == "" && (len(r.Insert) != 0 || len(r.Delete) != 0) {
		payload, err := json.Marshal(
			notification{
				Changed: r.Insert,
				Deleted: r.Delete,
			},
		)
		if err != nil {
			return nil, err
		}

		for _, s := range subs {
			s.fn(payload)
		}
	}

	return nil, nil
}
