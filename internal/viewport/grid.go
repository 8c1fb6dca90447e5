// Package viewport lays rendered items out in a fixed-column grid and
// tracks which of them are on screen.
package viewport

import (
	"slices"

	"github.com/glabrego/gallery-cli/internal/media"
)

// CellState is the render state kept for an item between Create and
// Destroy, including while it is detached.
type CellState struct {
	Item media.Item
	// Text is the last rendered cell body. Stale is set when the metadata
	// behind it changed.
	Text  string
	Stale bool
}

type Cell struct {
	Item     media.Item
	Row, Col int
	Selected bool
	State    *CellState
}

type Grid struct {
	columns    int
	cellHeight int
	height     int
	// nearbyRows extends the visible rows on each side when classifying
	// items as nearby.
	nearbyRows int

	order     []media.Item
	pos       map[media.Item]int
	states    map[media.Item]*CellState
	scrollTop int

	selected    media.Item
	hasSelected bool

	subs       map[int]func()
	nextSub    int
	lastNearby []media.Item
}

func New(columns, cellHeight, height, nearbyRows int) *Grid {
	g := &Grid{
		pos:    make(map[media.Item]int),
		states: make(map[media.Item]*CellState),
		subs:   make(map[int]func()),
	}
	g.setLayout(columns, cellHeight, height, nearbyRows)
	return g
}

func (g *Grid) setLayout(columns, cellHeight, height, nearbyRows int) {
	g.columns = max(1, columns)
	g.cellHeight = max(1, cellHeight)
	g.height = max(0, height)
	g.nearbyRows = max(0, nearbyRows)
}

// Resize changes the layout and keeps the scroll position in range.
func (g *Grid) Resize(columns, height int) {
	g.setLayout(columns, g.cellHeight, height, g.nearbyRows)
	g.scrollTop = g.clampTop(g.scrollTop)
	g.notify()
}

func (g *Grid) Columns() int { return g.columns }
func (g *Grid) CellHeight() int { return g.cellHeight }
func (g *Grid) Height() int { return g.height }
func (g *Grid) Len() int { return len(g.order) }

// Create implements reconcile.Target.
func (g *Grid) Create(item media.Item) {
	g.states[item] = &CellState{Item: item, Stale: true}
}

func (g *Grid) Destroy(item media.Item) {
	g.remove(item)
	delete(g.states, item)
	if g.hasSelected && g.selected == item {
		g.hasSelected = false
	}
}

func (g *Grid) Detach(item media.Item) {
	g.remove(item)
}

func (g *Grid) InsertBefore(item, ref media.Item) {
	i, ok := g.pos[ref]
	if !ok {
		g.Append(item)
		return
	}
	g.order = slices.Insert(g.order, i, item)
	g.reindex(i)
}

func (g *Grid) Append(item media.Item) {
	g.order = append(g.order, item)
	g.pos[item] = len(g.order) - 1
}

func (g *Grid) remove(item media.Item) {
	i, ok := g.pos[item]
	if !ok {
		return
	}
	g.order = slices.Delete(g.order, i, i+1)
	delete(g.pos, item)
	g.reindex(i)
}

func (g *Grid) reindex(from int) {
	for i := from; i < len(g.order); i++ {
		g.pos[g.order[i]] = i
	}
}

// State returns the render state of a created item.
func (g *Grid) State(item media.Item) (*CellState, bool) {
	st, ok := g.states[item]
	return st, ok
}

// MarkStale flags the cells of the given sources for re-rendering.
func (g *Grid) MarkStale(ids []media.ID) {
	want := make(map[media.ID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for item, st := range g.states {
		if want[item.Source] {
			st.Stale = true
		}
	}
}

// Items returns the rendered order.
func (g *Grid) Items() []media.Item {
	return slices.Clone(g.order)
}

func (g *Grid) ScrollTop() int {
	return g.scrollTop
}

// SetScrollTop implements anchor.Viewport.
func (g *Grid) SetScrollTop(top int) {
	top = g.clampTop(top)
	if top == g.scrollTop {
		return
	}
	g.scrollTop = top
	g.notify()
}

func (g *Grid) ScrollBy(delta int) {
	g.SetScrollTop(g.scrollTop + delta)
}

func (g *Grid) ContentHeight() int {
	rows := (len(g.order) + g.columns - 1) / g.columns
	return rows * g.cellHeight
}

func (g *Grid) clampTop(top int) int {
	maxTop := max(0, g.ContentHeight()-g.height)
	return max(0, min(top, maxTop))
}

func (g *Grid) ItemTop(item media.Item) (int, bool) {
	i, ok := g.pos[item]
	if !ok {
		return 0, false
	}
	return (i / g.columns) * g.cellHeight, true
}

// ScrollToItem scrolls the minimum amount that brings item fully into view.
func (g *Grid) ScrollToItem(item media.Item) bool {
	top, ok := g.ItemTop(item)
	if !ok {
		return false
	}
	switch {
	case top < g.scrollTop:
		g.SetScrollTop(top)
	case top+g.cellHeight > g.scrollTop+g.height:
		g.SetScrollTop(top + g.cellHeight - g.height)
	}
	return true
}

func (g *Grid) FullyVisible() []media.Item {
	return g.between(g.scrollTop, g.scrollTop+g.height, true)
}

// Nearby returns the items on screen or within nearbyRows rows of it.
func (g *Grid) Nearby() []media.Item {
	margin := g.nearbyRows * g.cellHeight
	return g.between(g.scrollTop-margin, g.scrollTop+g.height+margin, false)
}

func (g *Grid) between(from, to int, fully bool) []media.Item {
	var out []media.Item
	for i, item := range g.order {
		top := (i / g.columns) * g.cellHeight
		bottom := top + g.cellHeight
		if fully {
			if top >= from && bottom <= to {
				out = append(out, item)
			}
			continue
		}
		if bottom > from && top < to {
			out = append(out, item)
		}
	}
	return out
}

// Cells returns the cells intersecting the screen.
func (g *Grid) Cells() []Cell {
	var out []Cell
	for i, item := range g.order {
		top := (i / g.columns) * g.cellHeight
		if top+g.cellHeight <= g.scrollTop || top >= g.scrollTop+g.height {
			continue
		}
		out = append(out, Cell{
			Item:     item,
			Row:      i / g.columns,
			Col:      i % g.columns,
			Selected: g.hasSelected && g.selected == item,
			State:    g.states[item],
		})
	}
	return out
}

// Selected returns the highlighted item. With no explicit selection, or
// while the selected item is detached, the first fully visible item is used.
func (g *Grid) Selected() (media.Item, bool) {
	if _, attached := g.pos[g.selected]; g.hasSelected && attached {
		return g.selected, true
	}
	if visible := g.FullyVisible(); len(visible) > 0 {
		return visible[0], true
	}
	return media.Item{}, false
}

func (g *Grid) Select(item media.Item) bool {
	if _, ok := g.pos[item]; !ok {
		return false
	}
	g.selected, g.hasSelected = item, true
	g.ScrollToItem(item)
	return true
}

// MoveSelection moves the highlight by dx cells and dy rows, clamped to the
// rendered items, scrolling as needed.
func (g *Grid) MoveSelection(dx, dy int) bool {
	cur, ok := g.Selected()
	if !ok {
		return false
	}
	i := g.pos[cur] + dx + dy*g.columns
	i = max(0, min(i, len(g.order)-1))
	return g.Select(g.order[i])
}

// Subscribe registers fn to run whenever the nearby set changes because of
// scrolling or resizing.
func (g *Grid) Subscribe(fn func()) (unsubscribe func()) {
	key := g.nextSub
	g.nextSub++
	g.subs[key] = fn
	return func() { delete(g.subs, key) }
}

// Settle records the current nearby set as seen, so layout changes made by
// the caller itself don't come back as notifications.
func (g *Grid) Settle() []media.Item {
	g.lastNearby = g.Nearby()
	return slices.Clone(g.lastNearby)
}

func (g *Grid) notify() {
	nearby := g.Nearby()
	if slices.Equal(nearby, g.lastNearby) {
		return
	}
	g.lastNearby = nearby
	for _, fn := range g.subs {
		fn()
	}
}
