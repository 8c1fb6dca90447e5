// Package pageindex stores pages of source ids as they arrive from a data
// source. It is the source of truth for which ids exist and in what order.
package pageindex

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/glabrego/gallery-cli/internal/media"
)

// Index maps page numbers to ordered ids. An id is stored under at most one
// page. Pages are never removed; a new search gets a new Index.
type Index struct {
	mu    sync.RWMutex
	pages map[int][]media.ID
	owner map[media.ID]int
	log   zerolog.Logger
}

func New(log zerolog.Logger) *Index {
	return &Index{
		pages: make(map[int][]media.ID),
		owner: make(map[media.ID]int),
		log:   log.With().Str("component", "pageindex").Logger(),
	}
}

// AddPage stores ids under page. Ids already present in another page are
// dropped, which happens when the backend list shifts between requests. If
// nothing is left the page is not stored at all, which callers read as the
// end of the data.
func (x *Index) AddPage(page int, ids []media.ID) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.pages[page]; ok {
		x.log.Warn().Int("page", page).Msg("page already loaded")
		return false
	}

	kept := make([]media.ID, 0, len(ids))
	seen := make(map[media.ID]struct{}, len(ids))
	var dropped []string
	for _, id := range ids {
		if _, ok := x.owner[id]; ok {
			dropped = append(dropped, id.String())
			continue
		}
		if _, ok := seen[id]; ok {
			dropped = append(dropped, id.String())
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}
	if len(dropped) > 0 {
		x.log.Info().Int("page", page).Strs("ids", dropped).Msg("dropped ids already present in earlier pages")
	}
	if len(kept) == 0 {
		return false
	}

	x.pages[page] = kept
	for _, id := range kept {
		x.owner[id] = page
	}
	return true
}

func (x *Index) HasPage(page int) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.pages[page]
	return ok
}

// Pages returns the loaded page numbers in ascending order.
func (x *Index) Pages() []int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.sortedPages()
}

func (x *Index) sortedPages() []int {
	out := make([]int, 0, len(x.pages))
	for p := range x.pages {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (x *Index) PageIDs(page int) []media.ID {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]media.ID(nil), x.pages[page]...)
}

// AllIDs returns every id in master order.
func (x *Index) AllIDs() []media.ID {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]media.ID, 0, len(x.owner))
	for _, p := range x.sortedPages() {
		out = append(out, x.pages[p]...)
	}
	return out
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.owner)
}

func (x *Index) LowestPage() (int, bool) {
	pages := x.Pages()
	if len(pages) == 0 {
		return 0, false
	}
	return pages[0], true
}

func (x *Index) HighestPage() (int, bool) {
	pages := x.Pages()
	if len(pages) == 0 {
		return 0, false
	}
	return pages[len(pages)-1], true
}

func (x *Index) PageForID(id media.ID) (int, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.owner[id]
	return p, ok
}

// NeighborID returns the id after (or before) id. It only crosses into page
// p±1 when that page is loaded, so false means either the real end of the
// list or an adjacent page that hasn't arrived yet.
func (x *Index) NeighborID(id media.ID, forward bool) (media.ID, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	page, ok := x.owner[id]
	if !ok {
		return media.ID{}, false
	}
	ids := x.pages[page]
	pos := -1
	for i, candidate := range ids {
		if candidate == id {
			pos = i
			break
		}
	}
	if forward && pos+1 < len(ids) {
		return ids[pos+1], true
	}
	if !forward && pos > 0 {
		return ids[pos-1], true
	}

	next := page - 1
	if forward {
		next = page + 1
	}
	adjacent, ok := x.pages[next]
	if !ok || len(adjacent) == 0 {
		return media.ID{}, false
	}
	if forward {
		return adjacent[0], true
	}
	return adjacent[len(adjacent)-1], true
}
