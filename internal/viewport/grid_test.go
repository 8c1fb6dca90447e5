package viewport

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/gallery-cli/internal/anchor"
	"github.com/glabrego/gallery-cli/internal/media"
	"github.com/glabrego/gallery-cli/internal/reconcile"
)

var (
	_ reconcile.Target = (*Grid)(nil)
	_ anchor.Viewport  = (*Grid)(nil)
)

func items(from, to int) []media.Item {
	var out []media.Item
	for i := from; i < to; i++ {
		out = append(out, media.Item{Source: media.NewIllust(fmt.Sprint(i))})
	}
	return out
}

// 3 columns, cells 2 lines tall, 4 lines on screen: two rows visible.
func filled(n int) *Grid {
	g := New(3, 2, 4, 1)
	for _, it := range items(0, n) {
		g.Create(it)
		g.Append(it)
	}
	return g
}

func TestGrid_TargetOperationsKeepOrder(t *testing.T) {
	g := New(2, 1, 10, 0)
	all := items(0, 4)
	for _, it := range all {
		g.Create(it)
	}
	g.Append(all[2])
	g.Append(all[3])
	g.InsertBefore(all[1], all[2])
	g.InsertBefore(all[0], all[1])
	assert.Equal(t, all, g.Items())

	g.Detach(all[1])
	assert.Equal(t, []media.Item{all[0], all[2], all[3]}, g.Items())
	_, ok := g.State(all[1])
	assert.True(t, ok, "detached items keep their state")

	g.Destroy(all[1])
	_, ok = g.State(all[1])
	assert.False(t, ok)

	top, ok := g.ItemTop(all[3])
	require.True(t, ok)
	assert.Equal(t, 1, top)
}

func TestGrid_VisibilityClasses(t *testing.T) {
	g := filled(30)
	g.SetScrollTop(4)

	visible := g.FullyVisible()
	assert.Equal(t, items(6, 12), visible)

	nearby := g.Nearby()
	assert.Equal(t, items(3, 15), nearby)

	cells := g.Cells()
	require.Len(t, cells, 6)
	assert.Equal(t, 2, cells[0].Row)
	assert.Equal(t, 0, cells[0].Col)
}

func TestGrid_ScrollClamps(t *testing.T) {
	g := filled(10)
	g.SetScrollTop(100)
	assert.Equal(t, g.ContentHeight()-g.Height(), g.ScrollTop())
	g.ScrollBy(-100)
	assert.Equal(t, 0, g.ScrollTop())
}

func TestGrid_ScrollToItem(t *testing.T) {
	g := filled(30)
	require.True(t, g.ScrollToItem(items(20, 21)[0]))
	top, _ := g.ItemTop(items(20, 21)[0])
	assert.Equal(t, top+g.CellHeight()-g.Height(), g.ScrollTop())
	assert.False(t, g.ScrollToItem(media.Item{Source: media.NewIllust("missing")}))
}

func TestGrid_SubscribeFiresOnNearbyChange(t *testing.T) {
	g := filled(30)
	g.Settle()
	calls := 0
	unsubscribe := g.Subscribe(func() { calls++ })

	g.SetScrollTop(0)
	assert.Equal(t, 0, calls, "no movement, no notification")

	g.ScrollBy(2)
	assert.Equal(t, 1, calls)

	unsubscribe()
	g.ScrollBy(2)
	assert.Equal(t, 1, calls)
}

func TestGrid_MoveSelection(t *testing.T) {
	g := filled(30)
	sel, ok := g.Selected()
	require.True(t, ok)
	assert.Equal(t, items(0, 1)[0], sel)

	require.True(t, g.MoveSelection(1, 3))
	sel, _ = g.Selected()
	assert.Equal(t, items(10, 11)[0], sel)
	assert.Contains(t, g.FullyVisible(), sel)

	g.Detach(sel)
	sel, ok = g.Selected()
	require.True(t, ok, "falls back to the first visible item")
	assert.NotEqual(t, items(10, 11)[0], sel)
}

func TestGrid_MarkStale(t *testing.T) {
	g := filled(3)
	for _, it := range g.Items() {
		st, _ := g.State(it)
		st.Stale = false
	}
	g.MarkStale([]media.ID{media.NewIllust("1")})
	st, _ := g.State(items(1, 2)[0])
	assert.True(t, st.Stale)
	st, _ = g.State(items(0, 1)[0])
	assert.False(t, st.Stale)
}
