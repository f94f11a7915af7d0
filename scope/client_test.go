package scope_test

import (
	"errors"
	"strings"
	"testing"

	. "github.com/dogmatiq/scopekit/scope"
	"github.com/google/go-cmp/cmp"
)

func TestClient_wireProtocol(t *testing.T) {
	t.Parallel()

	t.Run("it sends the workspace identity with every request", func(t *testing.T) {
		t.Parallel()

		ch := &recordingChannel{}

		c, err := NewWorkspace(ch, "<workspace>")
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()

		if _, err := c.FetchAll(t.Context()); err != nil {
			t.Fatal(err)
		}

		if err := c.SubmitUpdate(
			t.Context(),
			Batch{
				Insert: []Item{{"<key>", "<value>"}},
				Delete: []string{"<stale-key>"},
			},
		); err != nil {
			t.Fatal(err)
		}

		expect := []recordedCall{
			{
				Method:  MethodFetchAll,
				Request: `{"workspace":"<workspace>"}`,
			},
			{
				Method:  MethodSubmitUpdate,
				Request: `{"workspace":"<workspace>","insert":[["<key>","<value>"]],"delete":["<stale-key>"]}`,
			},
		}

		if diff := cmp.Diff(expect, ch.Calls); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it omits the workspace field for the shared scope", func(t *testing.T) {
		t.Parallel()

		ch := &recordingChannel{}

		c, err := NewShared(ch)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()

		if _, err := c.FetchAll(t.Context()); err != nil {
			t.Fatal(err)
		}

		expect := []recordedCall{
			{
				Method:  MethodFetchAll,
				Request: `{}`,
			},
		}

		if diff := cmp.Diff(expect, ch.Calls); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it still sends an empty update batch", func(t *testing.T) {
		t.Parallel()

		ch := &recordingChannel{}

		c, err := NewShared(ch)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()

		if err := c.SubmitUpdate(t.Context(), Batch{}); err != nil {
			t.Fatal(err)
		}

		expect := []recordedCall{
			{
				Method:  MethodSubmitUpdate,
				Request: `{}`,
			},
		}

		if diff := cmp.Diff(expect, ch.Calls); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("it materializes duplicate keys as last-write-wins", func(t *testing.T) {
		t.Parallel()

		ch := &recordingChannel{
			CallFunc: func(string, []byte) ([]byte, error) {
				return []byte(`[["<key>","<value-1>"],["<key>","<value-2>"]]`), nil
			},
		}

		c, err := NewShared(ch)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()

		snapshot, err := c.FetchAll(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(Snapshot{"<key>": "<value-2>"}, snapshot); diff != "" {
			t.Fatal(diff)
		}
	})
}

func TestClient_failures(t *testing.T) {
	t.Parallel()

	t.Run("it returns channel failures unchanged", func(t *testing.T) {
		t.Parallel()

		failure := errors.New("<channel failure>")

		ch := &recordingChannel{
			CallFunc: func(string, []byte) ([]byte, error) {
				return nil, failure
			},
		}

		c, err := NewShared(ch)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()

		if _, err := c.FetchAll(t.Context()); err != failure {
			t.Fatalf("unexpected error: got %v, want %v", err, failure)
		}

		if err := c.SubmitUpdate(t.Context(), Batch{}); err != failure {
			t.Fatalf("unexpected error: got %v, want %v", err, failure)
		}

		// The batch is not retried or queued.
		if len(ch.Calls) != 2 {
			t.Fatalf("unexpected number of calls: got %d, want 2", len(ch.Calls))
		}
	})

	t.Run("it wraps responses that cannot be decoded", func(t *testing.T) {
		t.Parallel()

		ch := &recordingChannel{
			CallFunc: func(string, []byte) ([]byte, error) {
				return []byte(`{"not":"an item list"}`), nil
			},
		}

		c, err := NewShared(ch)
		if err != nil {
			t.Fatal(err)
		}
		defer c.Close()

		_, err = c.FetchAll(t.Context())
		if err == nil {
			t.Fatal("expected an error")
		}

		if !strings.Contains(err.Error(), "unable to decode fetch-all response") {
			t.Fatalf("unexpected error: %s", err)
		}
	})
}

func TestClient_teardown(t *testing.T) {
	t.Parallel()

	t.Run("it never issues a remote call on teardown", func(t *testing.T) {
		t.Parallel()

		ch := &recordingChannel{}

		s, err := NewStore(ch, "<workspace>")
		if err != nil {
			t.Fatal(err)
		}

		if _, err := s.Global().FetchAll(t.Context()); err != nil {
			t.Fatal(err)
		}

		w, _ := s.Workspace()
		if err := w.SubmitUpdate(
			t.Context(),
			Batch{
				Insert: []Item{{"<key>", "<value>"}},
			},
		); err != nil {
			t.Fatal(err)
		}

		if err := s.Close(); err != nil {
			t.Fatal(err)
		}

		for _, call := range ch.Calls {
			if call.Method != MethodFetchAll && call.Method != MethodSubmitUpdate {
				t.Fatalf("unexpected call to %q", call.Method)
			}
		}

		if ch.Subscriptions != 1 {
			t.Fatalf("unexpected number of subscriptions: got %d, want 1", ch.Subscriptions)
		}

		if ch.Closures != 1 {
			t.Fatalf("unexpected number of subscription closures: got %d, want 1", ch.Closures)
		}
	})

	t.Run("it releases the broadcast subscription exactly once", func(t *testing.T) {
		t.Parallel()

		ch := &recordingChannel{}

		c, err := NewShared(ch)
		if err != nil {
			t.Fatal(err)
		}

		if err := c.Close(); err != nil {
			t.Fatal(err)
		}

		if err := c.Close(); err != nil {
			t.Fatal(err)
		}

		if ch.Closures != 1 {
			t.Fatalf("unexpected number of subscription closures: got %d, want 1", ch.Closures)
		}
	})
}
