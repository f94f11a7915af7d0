package memorychannel_test

import (
	"errors"
	"testing"

	. "github.com/dogmatiq/scopekit/driver/memory/memorychannel"
	"github.com/dogmatiq/scopekit/scope"
)

func TestChannel(t *testing.T) {
	scope.RunTests(
		t,
		func(t *testing.T) scope.TestChannel {
			return &Channel{}
		},
	)
}

func TestChannel_hooks(t *testing.T) {
	t.Parallel()

	t.Run("it fails the call when the before-call hook returns an error", func(t *testing.T) {
		t.Parallel()

		failure := errors.New("<hook failure>")

		ch := &Channel{
			BeforeCall: func(string, []byte) error {
				return failure
			},
		}

		c, err := scope.NewShared(ch)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()

		if _, err := c.FetchAll(t.Context()); !errors.Is(err, failure) {
			t.Fatalf("unexpected error: got %v, want %v", err, failure)
		}

		if err := c.SubmitUpdate(
			t.Context(),
			scope.Batch{
				Insert: []scope.Item{{Key: "<key>", Value: "<value>"}},
			},
		); !errors.Is(err, failure) {
			t.Fatalf("unexpected error: got %v, want %v", err, failure)
		}

		// The store must be untouched after a vetoed update.
		ch.BeforeCall = nil

		snapshot, err := c.FetchAll(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if len(snapshot) != 0 {
			t.Fatalf("expected an empty snapshot, got %v", snapshot)
		}
	})

	t.Run("it rejects subscriptions to unrecognized events", func(t *testing.T) {
		t.Parallel()

		ch := &Channel{}

		if _, err := ch.Subscribe("onWorkspaceScopeChanged", func([]byte) {}); err == nil {
			t.Fatal("expected an error")
		}
	})
}
