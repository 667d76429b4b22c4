package op

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
)

// Action represents the kind of modification staged for a record.
type Action int

const (
	// ActionCache means the record was read but not modified.
	ActionCache Action = iota
	// ActionInsert means a new record was created.
	ActionInsert
	// ActionModify means an existing record was modified.
	ActionModify
	// ActionErase means a record was deleted.
	ActionErase
)

// TrackedEntry is one record being tracked for changes.
type TrackedEntry struct {
	Action   Action
	Original []byte // state in the base view (nil for inserts)
	Current  []byte // staged state (pre-deletion state for erases)
}

// StateTable wraps a base View and stages every modification in memory.
// Nothing reaches the base until Commit; dropping the table on a failed
// operation is the whole rollback story.
type StateTable struct {
	base  View
	items map[record.Address]*TrackedEntry
}

// NewStateTable creates a StateTable over the given base view.
func NewStateTable(base View) *StateTable {
	return &StateTable{
		base:  base,
		items: make(map[record.Address]*TrackedEntry),
	}
}

// Read reads a record, tracking it as cached.
func (t *StateTable) Read(key record.Address) ([]byte, error) {
	if entry, tracked := t.items[key]; tracked {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current, nil
	}

	data, err := t.base.Read(key)
	if err != nil {
		return nil, err
	}

	// Only track records that exist in the base.
	if data != nil {
		t.items[key] = &TrackedEntry{
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if a record exists.
func (t *StateTable) Exists(key record.Address) (bool, error) {
	if entry, tracked := t.items[key]; tracked {
		return entry.Action != ActionErase, nil
	}
	return t.base.Exists(key)
}

// Insert stages a new record.
func (t *StateTable) Insert(key record.Address, data []byte) error {
	if entry, tracked := t.items[key]; tracked {
		if entry.Action != ActionErase {
			return fmt.Errorf("record already exists")
		}
		// Re-inserting a deleted record becomes a modify.
		entry.Action = ActionModify
		entry.Current = data
		return nil
	}

	exists, err := t.base.Exists(key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("record already exists")
	}

	t.items[key] = &TrackedEntry{
		Action:   ActionInsert,
		Original: nil,
		Current:  data,
	}

	return nil
}

// Update stages a replacement of an existing record.
func (t *StateTable) Update(key record.Address, data []byte) error {
	if entry, tracked := t.items[key]; tracked {
		if entry.Action == ActionErase {
			return fmt.Errorf("record not found (deleted)")
		}
		if entry.Action == ActionCache {
			entry.Action = ActionModify
		}
		// Inserts keep their action with the new data.
		entry.Current = data
		return nil
	}

	original, err := t.base.Read(key)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("record not found")
	}

	t.items[key] = &TrackedEntry{
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}

	return nil
}

// Erase stages a deletion.
func (t *StateTable) Erase(key record.Address) error {
	if entry, tracked := t.items[key]; tracked {
		if entry.Action == ActionErase {
			return fmt.Errorf("record already deleted")
		}
		if entry.Action == ActionInsert {
			// Insert then delete is no change at all.
			delete(t.items, key)
			return nil
		}
		// Current keeps the pre-deletion state for metadata.
		entry.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(key)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("record not found")
	}

	t.items[key] = &TrackedEntry{
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}

	return nil
}

// IsErased reports whether the record at key has been staged for deletion.
func (t *StateTable) IsErased(key record.Address) bool {
	if entry, tracked := t.items[key]; tracked {
		return entry.Action == ActionErase
	}
	return false
}

// Commit applies all staged changes to the base view and returns the change
// list, ordered by key. Cached reads and modifies that left the bytes
// untouched produce no change.
func (t *StateTable) Commit() ([]Change, error) {
	keys := make([]record.Address, 0, len(t.items))
	for key := range t.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	changes := make([]Change, 0, len(keys))
	for _, key := range keys {
		entry := t.items[key]
		switch entry.Action {
		case ActionCache:
			continue

		case ActionInsert:
			changes = append(changes, newChange(ChangeCreated, key, nil, entry.Current))
			if err := t.base.Insert(key, entry.Current); err != nil {
				return nil, err
			}

		case ActionModify:
			if bytes.Equal(entry.Original, entry.Current) {
				continue
			}
			changes = append(changes, newChange(ChangeModified, key, entry.Original, entry.Current))
			if err := t.base.Update(key, entry.Current); err != nil {
				return nil, err
			}

		case ActionErase:
			changes = append(changes, newChange(ChangeDeleted, key, entry.Current, nil))
			if err := t.base.Erase(key); err != nil {
				return nil, err
			}
		}
	}

	return changes, nil
}

// Change actions.
const (
	ChangeCreated  = "created"
	ChangeModified = "modified"
	ChangeDeleted  = "deleted"
)

// Change describes one record affected by an applied operation.
type Change struct {
	Action string         `json:"action" codec:"action"`
	Key    record.Address `json:"key" codec:"key"`
	Kind   record.Kind    `json:"kind" codec:"kind"`
	Before []byte         `json:"before,omitempty" codec:"before"`
	After  []byte         `json:"after,omitempty" codec:"after"`
}

// Metadata describes the full effect of one applied operation. It is the
// payload of the history log and the event feed.
type Metadata struct {
	Changes []Change `json:"changes" codec:"changes"`

	// Reclaim is the destination close operations released the record
	// slot to, when any.
	Reclaim *record.Address `json:"reclaim,omitempty" codec:"reclaim"`
}

func newChange(action string, key record.Address, before, after []byte) Change {
	c := Change{
		Action: action,
		Key:    key,
		Before: before,
		After:  after,
	}
	probe := after
	if probe == nil {
		probe = before
	}
	if kind, _, _, err := record.DecodeEnvelope(probe); err == nil {
		c.Kind = kind
	}
	return c
}
