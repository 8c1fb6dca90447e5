package state

import (
	"testing"

	"github.com/glabrego/gallery-cli/internal/app"
)

func TestPageStep(t *testing.T) {
	if got := PageStep(0, false); got != 10 {
		t.Fatalf("expected default step 10, got %d", got)
	}
	if got := PageStep(12, false); got != 6 {
		t.Fatalf("expected step 6, got %d", got)
	}
	if got := PageStep(12, true); got != 4 {
		t.Fatalf("expected step 4 with status, got %d", got)
	}
	if got := PageStep(5, false); got != 3 {
		t.Fatalf("expected minimum step 3, got %d", got)
	}
}

func TestCellWidth(t *testing.T) {
	if got := CellWidth(80, 4); got != 20 {
		t.Fatalf("expected 20, got %d", got)
	}
	if got := CellWidth(10, 4); got != 6 {
		t.Fatalf("expected minimum width 6, got %d", got)
	}
	if got := CellWidth(30, 0); got != 30 {
		t.Fatalf("expected a single column to take the width, got %d", got)
	}
}

func TestHistory_PushPop(t *testing.T) {
	h := NewHistory(0)
	if _, ok := h.Pop(); ok {
		t.Fatal("expected empty history to pop nothing")
	}
	h.Push(Entry{Key: "a", Query: app.Query{Search: "cats"}})
	h.Push(Entry{Key: "b", Query: app.Query{Bookmarks: "7"}})
	if h.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", h.Depth())
	}
	e, ok := h.Pop()
	if !ok || e.Key != "b" || e.Query.Bookmarks != "7" {
		t.Fatalf("unexpected pop: %+v %v", e, ok)
	}
	e, _ = h.Pop()
	if e.Key != "a" {
		t.Fatalf("expected a, got %+v", e)
	}
	if h.Depth() != 0 {
		t.Fatalf("expected empty history, got depth %d", h.Depth())
	}
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory(2)
	for _, k := range []string{"a", "b", "c"} {
		h.Push(Entry{Key: k})
	}
	if h.Depth() != 2 {
		t.Fatalf("expected depth capped at 2, got %d", h.Depth())
	}
	first, _ := h.Pop()
	second, _ := h.Pop()
	if first.Key != "c" || second.Key != "b" {
		t.Fatalf("expected oldest entry dropped, got %s %s", first.Key, second.Key)
	}
}
