package scope

import (
	"errors"

	"github.com/dogmatiq/scopekit/channel"
)

// ErrNoWorkspace is returned when constructing a workspace-scoped client
// without a workspace identity.
var ErrNoWorkspace = errors.New("workspace identity must not be empty")

// A WorkspaceClient accesses the store instance bound to a single workspace
// identity.
//
// A workspace store is assumed to have a single writer: exactly one process
// instance writes to it at a time. The remote side broadcasts no change
// notifications for it, and the client's change-event stream is permanently
// empty.
type WorkspaceClient struct {
	client
}

// NewWorkspace returns a client for the scope bound to the workspace with the
// given identity.
//
// It returns [ErrNoWorkspace] if workspace is empty.
func NewWorkspace(ch channel.Channel, workspace string) (*WorkspaceClient, error) {
	if workspace == "" {
		return nil, ErrNoWorkspace
	}

	return &WorkspaceClient{
		client{
			channel:   ch,
			workspace: workspace,
		},
	}, nil
}

// OnChange returns a remove function without registering fn. A workspace
// scope has a single writer, so there are no external changes to observe, and
// fn is never invoked.
func (c *WorkspaceClient) OnChange(func(Change)) (remove func()) {
	return func() {}
}

// Close releases the client's local resources. The client holds no
// subscriptions, so it never fails; the remote store is left untouched.
func (c *WorkspaceClient) Close() error {
	return nil
}
