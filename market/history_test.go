package market

import (
	"reflect"
	"testing"
)

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		h.Append(v)
	}
	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	if got := h.Values(); !reflect.DeepEqual(got, []float64{3, 4, 5}) {
		t.Fatalf("values = %v, want [3 4 5]", got)
	}
	if h.Last() != 5 {
		t.Fatalf("last = %v, want 5", h.Last())
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(4)
	if h.Last() != 0 || h.Len() != 0 {
		t.Fatal("empty history should report zero state")
	}
	if got := h.Window(3); !reflect.DeepEqual(got, []float64{0, 0, 0}) {
		t.Fatalf("empty window = %v", got)
	}
}

func TestHistoryWindow(t *testing.T) {
	h := NewHistory(10)
	h.Append(7)
	h.Append(8)

	// Short history pads the front with the oldest value.
	if got := h.Window(4); !reflect.DeepEqual(got, []float64{7, 7, 7, 8}) {
		t.Fatalf("padded window = %v", got)
	}

	for _, v := range []float64{9, 10, 11} {
		h.Append(v)
	}
	// Long history truncates to the most recent n.
	if got := h.Window(2); !reflect.DeepEqual(got, []float64{10, 11}) {
		t.Fatalf("truncated window = %v", got)
	}
}
