package pageindex

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/gallery-cli/internal/media"
)

func ids(values ...int) []media.ID {
	out := make([]media.ID, 0, len(values))
	for _, v := range values {
		out = append(out, media.NewIllust(fmt.Sprint(v)))
	}
	return out
}

func TestIndex_OverlappingPagesAreDeduplicated(t *testing.T) {
	x := New(zerolog.Nop())

	require.True(t, x.AddPage(1, ids(5, 6, 7)))
	require.True(t, x.AddPage(2, ids(7, 8, 9)))

	assert.Equal(t, ids(5, 6, 7, 8, 9), x.AllIDs())

	page, ok := x.PageForID(media.NewIllust("8"))
	require.True(t, ok)
	assert.Equal(t, 2, page)

	page, ok = x.PageForID(media.NewIllust("7"))
	require.True(t, ok)
	assert.Equal(t, 1, page)

	next, ok := x.NeighborID(media.NewIllust("7"), true)
	require.True(t, ok)
	assert.Equal(t, media.NewIllust("8"), next)

	_, ok = x.NeighborID(media.NewIllust("5"), false)
	assert.False(t, ok, "page 0 is not loaded")
}

func TestIndex_AddPageTwiceIsNoop(t *testing.T) {
	x := New(zerolog.Nop())
	require.True(t, x.AddPage(3, ids(1, 2)))
	assert.False(t, x.AddPage(3, ids(4, 5)))
	assert.Equal(t, ids(1, 2), x.PageIDs(3))
}

func TestIndex_FullyDuplicatedPageIsNotInserted(t *testing.T) {
	x := New(zerolog.Nop())
	require.True(t, x.AddPage(1, ids(1, 2, 3)))
	assert.False(t, x.AddPage(2, ids(2, 3)))
	assert.False(t, x.HasPage(2))
	assert.False(t, x.AddPage(4, nil))

	high, ok := x.HighestPage()
	require.True(t, ok)
	assert.Equal(t, 1, high)
}

func TestIndex_NeighborSkipsUnloadedGap(t *testing.T) {
	x := New(zerolog.Nop())
	require.True(t, x.AddPage(1, ids(1, 2)))
	require.True(t, x.AddPage(3, ids(5, 6)))

	_, ok := x.NeighborID(media.NewIllust("2"), true)
	assert.False(t, ok, "page 2 is not loaded")

	prev, ok := x.NeighborID(media.NewIllust("6"), false)
	require.True(t, ok)
	assert.Equal(t, media.NewIllust("5"), prev)

	_, ok = x.NeighborID(media.NewIllust("99"), true)
	assert.False(t, ok)

	low, _ := x.LowestPage()
	high, _ := x.HighestPage()
	assert.Equal(t, 1, low)
	assert.Equal(t, 3, high)
}

func TestIndex_RandomPagesNeverRepeatIDs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := New(zerolog.Nop())
	stored := make(map[media.ID]int)

	for page := 1; page <= 40; page++ {
		batch := make([]int, 0, 10)
		for i := 0; i < 10; i++ {
			batch = append(batch, rng.Intn(150))
		}
		if x.AddPage(page, ids(batch...)) {
			for _, id := range x.PageIDs(page) {
				stored[id] = page
			}
		}
	}

	all := x.AllIDs()
	seen := make(map[media.ID]bool, len(all))
	for _, id := range all {
		require.False(t, seen[id], "id %s repeated", id)
		seen[id] = true

		page, ok := x.PageForID(id)
		require.True(t, ok)
		assert.Equal(t, stored[id], page)
	}
	assert.Equal(t, len(all), x.Len())
}
