package typedscope

import (
	"context"

	"github.com/dogmatiq/scopekit/scope"
)

// A Client is a typed view of a scoped client that marshals values of type V
// to and from the opaque text exchanged with the remote store.
//
// The marshaler's output is stored verbatim as the item's value, so it must be
// text; wrap marshalers with binary output (such as protobuf) using
// [github.com/dogmatiq/scopekit/marshaler.NewBase64].
type Client[V any, M Marshaler[V]] struct {
	scope.Client
	ValueMarshaler M
}

// An Item is a single key/value pair with a typed value.
type Item[V any] struct {
	Key   string
	Value V
}

// A Batch is a set of typed items to insert or overwrite and a set of keys to
// delete, submitted as one logical operation.
type Batch[V any] struct {
	Insert []Item[V]
	Delete []string
}

// FetchAll returns the full contents of the scope, with each value
// unmarshaled to type V.
func (c Client[V, M]) FetchAll(ctx context.Context) (map[string]V, error) {
	snapshot, err := c.Client.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	values := make(map[string]V, len(snapshot))

	for k, text := range snapshot {
		v, err := c.ValueMarshaler.Unmarshal([]byte(text))
		if err != nil {
			return nil, err
		}

		values[k] = v
	}

	return values, nil
}

// SubmitUpdate applies a typed batch of inserts and deletes to the scope as
// one logical operation.
func (c Client[V, M]) SubmitUpdate(ctx context.Context, b Batch[V]) error {
	var insert []scope.Item

	if len(b.Insert) != 0 {
		insert = make([]scope.Item, len(b.Insert))

		for i, item := range b.Insert {
			data, err := c.ValueMarshaler.Marshal(item.Value)
			if err != nil {
				return err
			}

			insert[i] = scope.Item{
				Key:   item.Key,
				Value: string(data),
			}
		}
	}

	return c.Client.SubmitUpdate(
		ctx,
		scope.Batch{
			Insert: insert,
			Delete: b.Delete,
		},
	)
}
