package xr

import "fmt"

// BindingTable is a fixed-capacity list of suggested bindings. Entries
// are only ever appended; once frozen the table rejects all changes.
type BindingTable struct {
	capacity int
	entries  []SuggestedBinding
	frozen   bool
}

// NewBindingTable returns an empty table holding at most capacity entries.
func NewBindingTable(capacity int) *BindingTable {
	if capacity <= 0 {
		capacity = DefaultBindingCapacity
	}
	return &BindingTable{capacity: capacity, entries: make([]SuggestedBinding, 0, capacity)}
}

// Len returns the number of entries.
func (t *BindingTable) Len() int { return len(t.entries) }

// Cap returns the table capacity.
func (t *BindingTable) Cap() int { return t.capacity }

// Free returns the number of entries that can still be added.
func (t *BindingTable) Free() int { return t.capacity - len(t.entries) }

// Frozen reports whether the table has been frozen.
func (t *BindingTable) Frozen() bool { return t.frozen }

// Reserve checks that n more entries fit without adding anything.
func (t *BindingTable) Reserve(n int) error {
	if t.frozen {
		return fmt.Errorf("%w: binding table is frozen", ErrProtocolOrder)
	}
	if len(t.entries)+n > t.capacity {
		return &CapacityError{What: "binding table", Capacity: t.capacity, Requested: len(t.entries) + n}
	}
	return nil
}

// Add appends bindings atomically: either all fit or none are added.
func (t *BindingTable) Add(bindings ...SuggestedBinding) error {
	if err := t.Reserve(len(bindings)); err != nil {
		return err
	}
	t.entries = append(t.entries, bindings...)
	return nil
}

// Entries returns a copy of the current entries.
func (t *BindingTable) Entries() []SuggestedBinding {
	out := make([]SuggestedBinding, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *BindingTable) freeze() { t.frozen = true }
