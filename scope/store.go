package scope

import (
	"github.com/dogmatiq/scopekit/channel"
)

// A Store presents the two scopes of the remote key/value store as a single
// unit with one lifetime.
//
// It owns no protocol logic of its own; each scoped client translates its own
// calls onto the channel independently.
type Store struct {
	global    *SharedClient
	workspace *WorkspaceClient
}

// NewStore returns a store backed by the remote side of ch.
//
// The shared scope is always available. If workspace is non-empty a client for
// the scope bound to that workspace identity is constructed alongside it;
// otherwise [Store.Workspace] reports that no workspace scope is available.
func NewStore(ch channel.Channel, workspace string) (*Store, error) {
	global, err := NewShared(ch)
	if err != nil {
		return nil, err
	}

	s := &Store{global: global}

	if workspace != "" {
		s.workspace, err = NewWorkspace(ch, workspace)
		if err != nil {
			global.Close()
			return nil, err
		}
	}

	return s, nil
}

// Global returns the client for the shared scope.
func (s *Store) Global() *SharedClient {
	return s.global
}

// Workspace returns the client for the workspace scope, or false if the store
// was constructed without a workspace identity.
func (s *Store) Workspace() (*WorkspaceClient, bool) {
	return s.workspace, s.workspace != nil
}

// Close tears down both scoped clients.
//
// Teardown is local only: subscriptions are released, but no request is sent
// to the remote side, which owns the store's lifecycle. Closing an
// already-closed store has no effect.
func (s *Store) Close() error {
	err := s.global.Close()

	if s.workspace != nil {
		if cerr := s.workspace.Close(); err == nil {
			err = cerr
		}
	}

	return err
}
