// Package anchor keeps the scroll position attached to a rendered item
// rather than to an absolute offset, so the view doesn't jump when items are
// inserted above it.
package anchor

import "github.com/glabrego/gallery-cli/internal/media"

// Viewport is the scroll container as seen by the anchor.
type Viewport interface {
	ScrollTop() int
	SetScrollTop(top int)
	// ItemTop reports the position of a rendered item in content
	// coordinates.
	ItemTop(item media.Item) (int, bool)
	// FullyVisible lists rendered items completely inside the viewport, in
	// render order.
	FullyVisible() []media.Item
}

// Record is an item and its distance from the top of the viewport.
type Record struct {
	Item   media.Item `json:"item"`
	Offset int        `json:"offset"`
}

// Save picks the fully visible item in the middle of the visible set. The
// middle item moves least when the container is resized.
func Save(v Viewport) (Record, bool) {
	visible := v.FullyVisible()
	if len(visible) == 0 {
		return Record{}, false
	}
	item := visible[len(visible)/2]
	top, ok := v.ItemTop(item)
	if !ok {
		return Record{}, false
	}
	return Record{Item: item, Offset: top - v.ScrollTop()}, true
}

// Restore scrolls so rec.Item sits at its recorded offset again. It reports
// false without scrolling when the item isn't rendered.
func Restore(v Viewport, rec Record) bool {
	top, ok := v.ItemTop(rec.Item)
	if !ok {
		return false
	}
	v.SetScrollTop(top - rec.Offset)
	return true
}
