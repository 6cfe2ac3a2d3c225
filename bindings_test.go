package xr

import (
	"errors"
	"testing"
)

func TestBindingTableCapacity(t *testing.T) {
	tbl := NewBindingTable(8)
	if err := tbl.Add(make([]SuggestedBinding, 8)...); err != nil {
		t.Fatalf("Add(8) error = %v", err)
	}

	err := tbl.Add(SuggestedBinding{Action: 99, Binding: 99})
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Add past capacity error = %v, want *CapacityError", err)
	}
	if capErr.Capacity != 8 || capErr.Requested != 9 {
		t.Errorf("CapacityError = %+v, want capacity 8 requested 9", capErr)
	}
	if tbl.Len() != 8 {
		t.Errorf("Len() = %d, want 8", tbl.Len())
	}
	for _, e := range tbl.Entries() {
		if e.Action == 99 {
			t.Error("rejected binding must not be stored")
		}
	}
}

func TestBindingTableAddIsAtomic(t *testing.T) {
	tbl := NewBindingTable(5)
	_ = tbl.Add(SuggestedBinding{Action: 1}, SuggestedBinding{Action: 2})
	if err := tbl.Add(make([]SuggestedBinding, 4)...); err == nil {
		t.Fatal("Add(4) with 3 free entries succeeded")
	}
	if tbl.Len() != 2 || tbl.Free() != 3 {
		t.Errorf("Len() = %d, Free() = %d; want 2, 3", tbl.Len(), tbl.Free())
	}
}

func TestBindingTableFrozen(t *testing.T) {
	tbl := NewBindingTable(0)
	if tbl.Cap() != DefaultBindingCapacity {
		t.Errorf("Cap() = %d, want %d", tbl.Cap(), DefaultBindingCapacity)
	}
	tbl.freeze()
	if err := tbl.Add(SuggestedBinding{}); !errors.Is(err, ErrProtocolOrder) {
		t.Errorf("Add after freeze error = %v, want ErrProtocolOrder", err)
	}
}

func TestBindingTableEntriesIsCopy(t *testing.T) {
	tbl := NewBindingTable(4)
	_ = tbl.Add(SuggestedBinding{Action: 1, Binding: 2})
	e := tbl.Entries()
	e[0].Action = 7
	if tbl.Entries()[0].Action != 1 {
		t.Error("Entries() must not alias table storage")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/user/hand/left", "/user/hand/left", true},
		{"/interaction_profiles/valve/index_controller", "/interaction_profiles/valve/index_controller", true},
		{"/user/hand/left/input/trigger/value", "/user/hand/left/input/trigger/value", true},
		{"user/hand/left", "", false},
		{"/user/hand/left/", "", false},
		{"/user//left", "", false},
		{"/user/Hand", "", false},
		{"/user/./hand", "", false},
		{"/", "", false},
		{"", "", false},
		{"/user/hé", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizePath(tt.in)
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidPath) {
			t.Errorf("NormalizePath(%q) error = %v, want ErrInvalidPath", tt.in, err)
		}
	}
}

func TestActionName(t *testing.T) {
	if got := ActionName(42, "trigger"); got != "ent_42_trigger" {
		t.Errorf("ActionName(42, trigger) = %q", got)
	}
	if got := ActionName(18446744073709551615, "handpose"); got != "ent_18446744073709551615_handpose" {
		t.Errorf("ActionName(max, handpose) = %q", got)
	}
}
