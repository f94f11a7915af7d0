package scope

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dogmatiq/scopekit/channel"
)

// A Client provides access to one scope of the remote key/value store.
//
// A client is bound to a single scope identity for its entire lifetime. Every
// outbound request carries that identity so the remote side routes it to the
// correct physical store.
type Client interface {
	// FetchAll returns the full contents of the scope.
	//
	// It issues a single call on the channel. Channel failures are returned to
	// the caller unchanged; there is no local retry.
	FetchAll(ctx context.Context) (Snapshot, error)

	// SubmitUpdate applies a batch of inserts and deletes to the scope as one
	// logical operation.
	//
	// It issues exactly one call on the channel; the batch is never queued,
	// merged with other in-flight updates, or retried. The interleaving of
	// concurrent calls is undefined; consumers converge via snapshot reads and
	// change notifications, not locking.
	SubmitUpdate(ctx context.Context, b Batch) error

	// OnChange registers fn to be invoked for each change applied to the scope
	// by activity elsewhere. It returns a function that removes the
	// registration.
	//
	// Whether fn is ever invoked depends on the scope; see [SharedClient] and
	// [WorkspaceClient].
	OnChange(fn func(Change)) (remove func())

	// Close releases the client's local subscriptions and resources.
	//
	// It never closes or mutates the remote store; the store's lifecycle is
	// owned by the remote side. Closing an already-closed client has no
	// effect.
	Close() error
}

// client implements the request/response protocol shared by both scopes.
type client struct {
	channel   channel.Channel
	workspace string // empty for the shared scope
}

func (c *client) FetchAll(ctx context.Context) (Snapshot, error) {
	req, err := json.Marshal(request{Workspace: c.workspace})
	if err != nil {
		return nil, fmt.Errorf("unable to encode fetch-all request: %w", err)
	}

	res, err := c.channel.Call(ctx, MethodFetchAll, req)
	if err != nil {
		return nil, err
	}

	var items []Item
	if err := json.Unmarshal(res, &items); err != nil {
		return nil, fmt.Errorf("unable to decode fetch-all response: %w", err)
	}

	// Duplicate keys in the response are last-write-wins.
	snapshot := make(Snapshot, len(items))
	for _, item := range items {
		snapshot[item.Key] = item.Value
	}

	return snapshot, nil
}

func (c *client) SubmitUpdate(ctx context.Context, b Batch) error {
	req, err := json.Marshal(request{
		Workspace: c.workspace,
		Insert:    b.Insert,
		Delete:    b.Delete,
	})
	if err != nil {
		return fmt.Errorf("unable to encode update request: %w", err)
	}

	_, err = c.channel.Call(ctx, MethodSubmitUpdate, req)
	return err
}
