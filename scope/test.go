package scope

import (
	"maps"
	"slices"
	"testing"

	"github.com/dogmatiq/scopekit/channel"
	"github.com/dogmatiq/scopekit/internal/x/xtesting"
	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

// A TestChannel is a [channel.Channel] with the additional capabilities
// [RunTests] needs to simulate activity that originates outside the process
// under test.
type TestChannel interface {
	channel.Channel

	// Broadcast publishes a raw payload under the shared-scope change event,
	// as if the remote side had sent it.
	Broadcast(payload []byte)
}

// RunTests runs tests that confirm a channel implementation upholds the
// contract the scoped clients depend on.
//
// It assumes broadcasts are delivered before the call (or broadcast) that
// triggered them returns, which holds for in-process channels.
func RunTests(
	t *testing.T,
	newChannel func(t *testing.T) TestChannel,
) {
	setupShared := func(t *testing.T, ch channel.Channel) *SharedClient {
		c, err := NewShared(ch)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := c.Close(); err != nil {
				t.Error(err)
			}
		})

		return c
	}

	setupWorkspace := func(t *testing.T, ch channel.Channel, workspace string) *WorkspaceClient {
		c, err := NewWorkspace(ch, workspace)
		if err != nil {
			t.Fatal(err)
		}

		t.Cleanup(func() {
			if err := c.Close(); err != nil {
				t.Error(err)
			}
		})

		return c
	}

	t.Run("Channel", func(t *testing.T) {
		t.Parallel()

		t.Run("it fails calls with an unrecognized method", func(t *testing.T) {
			t.Parallel()

			ch := newChannel(t)

			if _, err := ch.Call(t.Context(), "close", []byte(`{}`)); err == nil {
				t.Fatal("expected an error")
			}
		})
	})

	t.Run("Shared", func(t *testing.T) {
		t.Parallel()

		t.Run("it starts empty", func(t *testing.T) {
			t.Parallel()

			c := setupShared(t, newChannel(t))

			snapshot, err := c.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if len(snapshot) != 0 {
				t.Fatalf("expected an empty snapshot, got %v", snapshot)
			}
		})

		t.Run("it round-trips a snapshot written as a single insert batch", func(t *testing.T) {
			t.Parallel()

			c := setupShared(t, newChannel(t))

			if err := c.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{
						{"<key-1>", "<value-1>"},
						{"<key-2>", "<value-2>"},
						{"<key-3>", "<value-3>"},
					},
				},
			); err != nil {
				t.Fatal(err)
			}

			snapshot, err := c.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			expect := Snapshot{
				"<key-1>": "<value-1>",
				"<key-2>": "<value-2>",
				"<key-3>": "<value-3>",
			}

			if diff := cmp.Diff(expect, snapshot); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it overwrites existing keys", func(t *testing.T) {
			t.Parallel()

			c := setupShared(t, newChannel(t))

			if err := c.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{{"<key>", "<value>"}},
				},
			); err != nil {
				t.Fatal(err)
			}

			if err := c.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{{"<key>", "<updated>"}},
				},
			); err != nil {
				t.Fatal(err)
			}

			snapshot, err := c.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(Snapshot{"<key>": "<updated>"}, snapshot); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it deletes keys", func(t *testing.T) {
			t.Parallel()

			c := setupShared(t, newChannel(t))

			if err := c.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{
						{"<key-1>", "<value-1>"},
						{"<key-2>", "<value-2>"},
					},
				},
			); err != nil {
				t.Fatal(err)
			}

			if err := c.SubmitUpdate(
				t.Context(),
				Batch{
					Delete: []string{"<key-1>"},
				},
			); err != nil {
				t.Fatal(err)
			}

			snapshot, err := c.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(Snapshot{"<key-2>": "<value-2>"}, snapshot); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it accepts an empty batch", func(t *testing.T) {
			t.Parallel()

			c := setupShared(t, newChannel(t))

			if err := c.SubmitUpdate(t.Context(), Batch{}); err != nil {
				t.Fatal(err)
			}
		})
	})

	t.Run("Workspace", func(t *testing.T) {
		t.Parallel()

		t.Run("it round-trips a snapshot written as a single insert batch", func(t *testing.T) {
			t.Parallel()

			c := setupWorkspace(t, newChannel(t), "<workspace>")

			if err := c.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{{"<key>", "<value>"}},
				},
			); err != nil {
				t.Fatal(err)
			}

			snapshot, err := c.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(Snapshot{"<key>": "<value>"}, snapshot); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it isolates the workspace scope from the shared scope", func(t *testing.T) {
			t.Parallel()

			ch := newChannel(t)
			shared := setupShared(t, ch)
			workspace := setupWorkspace(t, ch, "<workspace>")

			if err := shared.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{{"<shared-key>", "<shared-value>"}},
				},
			); err != nil {
				t.Fatal(err)
			}

			if err := workspace.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{{"<workspace-key>", "<workspace-value>"}},
				},
			); err != nil {
				t.Fatal(err)
			}

			snapshot, err := shared.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(Snapshot{"<shared-key>": "<shared-value>"}, snapshot); diff != "" {
				t.Fatal(diff)
			}

			snapshot, err = workspace.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(Snapshot{"<workspace-key>": "<workspace-value>"}, snapshot); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it isolates two workspaces from each other", func(t *testing.T) {
			t.Parallel()

			ch := newChannel(t)
			w1 := setupWorkspace(t, ch, "<workspace-1>")
			w2 := setupWorkspace(t, ch, "<workspace-2>")

			if err := w1.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{{"<key>", "<value>"}},
				},
			); err != nil {
				t.Fatal(err)
			}

			snapshot, err := w2.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if len(snapshot) != 0 {
				t.Fatalf("expected an empty snapshot, got %v", snapshot)
			}
		})
	})

	t.Run("Notifications", func(t *testing.T) {
		t.Parallel()

		t.Run("it delivers a change event when another writer updates the shared scope", func(t *testing.T) {
			t.Parallel()

			ch := newChannel(t)
			observer := setupShared(t, ch)
			writer := setupShared(t, ch)

			var events []Change
			observer.OnChange(func(c Change) {
				events = append(events, c)
			})

			if err := writer.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{{"<key>", "<value>"}},
					Delete: []string{"<stale-key>"},
				},
			); err != nil {
				t.Fatal(err)
			}

			expect := []Change{
				{
					Changed: map[string]string{"<key>": "<value>"},
					Deleted: []string{"<stale-key>"},
				},
			}

			if diff := cmp.Diff(expect, events); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it does not deliver events for workspace-scope updates", func(t *testing.T) {
			t.Parallel()

			ch := newChannel(t)
			observer := setupShared(t, ch)
			workspace := setupWorkspace(t, ch, "<workspace>")

			observer.OnChange(func(c Change) {
				t.Errorf("unexpected change event: %v", c)
			})

			if err := workspace.SubmitUpdate(
				t.Context(),
				Batch{
					Insert: []Item{{"<key>", "<value>"}},
				},
			); err != nil {
				t.Fatal(err)
			}
		})

		t.Run("it drops a notification that carries neither changed nor deleted keys", func(t *testing.T) {
			t.Parallel()

			ch := newChannel(t)
			observer := setupShared(t, ch)

			observer.OnChange(func(c Change) {
				t.Errorf("unexpected change event: %v", c)
			})

			ch.Broadcast([]byte(`{}`))
			ch.Broadcast([]byte(`{"changed":[],"deleted":[]}`))
		})

		t.Run("it delivers a notification that carries only deleted keys", func(t *testing.T) {
			t.Parallel()

			ch := newChannel(t)
			observer := setupShared(t, ch)

			var events []Change
			observer.OnChange(func(c Change) {
				events = append(events, c)
			})

			ch.Broadcast([]byte(`{"deleted":["<key>"]}`))

			expect := []Change{
				{Deleted: []string{"<key>"}},
			}

			if diff := cmp.Diff(expect, events); diff != "" {
				t.Fatal(diff)
			}
		})

		t.Run("it stops delivering events once the client is closed", func(t *testing.T) {
			t.Parallel()

			ch := newChannel(t)

			observer, err := NewShared(ch)
			if err != nil {
				t.Fatal(err)
			}

			observer.OnChange(func(c Change) {
				t.Errorf("unexpected change event: %v", c)
			})

			if err := observer.Close(); err != nil {
				t.Fatal(err)
			}

			ch.Broadcast([]byte(`{"changed":[["<key>","<value>"]]}`))

			// A second teardown is a no-op.
			if err := observer.Close(); err != nil {
				t.Fatal(err)
			}
		})
	})

	t.Run("property-based", func(t *testing.T) {
		t.Parallel()

		ch := newChannel(t)

		rapid.Check(t, func(t *rapid.T) {
			shared, err := NewShared(ch)
			if err != nil {
				t.Fatal(err)
			}
			defer shared.Close()

			workspace, err := NewWorkspace(ch, xtesting.UniqueName("workspace"))
			if err != nil {
				t.Fatal(err)
			}
			defer workspace.Close()

			type scopeState struct {
				client Client
				pairs  map[string]string
			}

			// The shared scope carries state over from previous property runs,
			// so its model is seeded from a snapshot; the workspace identity
			// is unique to this run and starts empty.
			snapshot, err := shared.FetchAll(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			scopes := []*scopeState{
				{shared, snapshot},
				{workspace, map[string]string{}},
			}

			anyScope := rapid.SampledFrom(scopes)
			anyKey := rapid.StringN(1, -1, -1)
			anyValue := rapid.String()

			t.Repeat(
				map[string]func(*rapid.T){
					"SubmitUpdate (insert)": func(t *rapid.T) {
						s := anyScope.Draw(t, "scope")
						k := anyKey.Draw(t, "key")
						v := anyValue.Draw(t, "value")

						if err := s.client.SubmitUpdate(
							t.Context(),
							Batch{
								Insert: []Item{{k, v}},
							},
						); err != nil {
							t.Fatal(err)
						}

						s.pairs[k] = v
					},
					"SubmitUpdate (delete)": func(t *rapid.T) {
						s := anyScope.Draw(t, "scope")

						if len(s.pairs) == 0 {
							t.Skip("skip: scope is empty")
						}

						keys := slices.Collect(maps.Keys(s.pairs))
						slices.Sort(keys)
						k := rapid.SampledFrom(keys).Draw(t, "key")

						if err := s.client.SubmitUpdate(
							t.Context(),
							Batch{
								Delete: []string{k},
							},
						); err != nil {
							t.Fatal(err)
						}

						delete(s.pairs, k)
					},
					"SubmitUpdate (empty)": func(t *rapid.T) {
						s := anyScope.Draw(t, "scope")

						if err := s.client.SubmitUpdate(t.Context(), Batch{}); err != nil {
							t.Fatal(err)
						}
					},
					"FetchAll": func(t *rapid.T) {
						s := anyScope.Draw(t, "scope")

						snapshot, err := s.client.FetchAll(t.Context())
						if err != nil {
							t.Fatal(err)
						}

						if diff := cmp.Diff(s.pairs, map[string]string(snapshot)); diff != "" {
							t.Fatal(diff)
						}
					},
				},
			)
		})
	})
}
