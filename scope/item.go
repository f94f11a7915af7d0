package scope

import (
	"encoding/json"
	"fmt"
)

// An Item is a single key/value pair, the wire-level unit of exchange with the
// remote store.
//
// Keys and values are opaque text. A key is unique within one scope; no other
// constraint is placed on either field.
type Item struct {
	Key   string
	Value string
}

// MarshalJSON encodes the item as a two-element array, its wire form.
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{i.Key, i.Value})
}

// UnmarshalJSON decodes the item from its two-element array wire form.
func (i *Item) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}

	if len(pair) != 2 {
		return fmt.Errorf("expected a [key, value] pair, got %d elements", len(pair))
	}

	i.Key = pair[0]
	i.Value = pair[1]

	return nil
}

// A Snapshot is the full key/value mapping of one scope at a point in time.
//
// It is authoritative at the time it was fetched; the scoped clients keep no
// local cache of store contents.
type Snapshot map[string]string

// A Batch is a set of items to insert or overwrite and a set of keys to
// delete, submitted to the remote store as one logical operation.
//
// Both sets are optional. A batch with neither is legal and is still sent.
type Batch struct {
	Insert []Item
	Delete []string
}

// A Change describes a delta applied to the shared scope by activity
// elsewhere, such as another process instance writing to the same store.
type Change struct {
	// Changed maps each changed key to its new value. It is nil if the
	// notification carried no changed set.
	Changed map[string]string

	// Deleted lists the keys that were removed. It is nil if the notification
	// carried no deleted set.
	Deleted []string
}

// IsEmpty returns true if the change carries neither changed nor deleted
// keys.
func (c Change) IsEmpty() bool {
	return len(c.Changed) == 0 && len(c.Deleted) == 0
}
