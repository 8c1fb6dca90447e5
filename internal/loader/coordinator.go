package loader

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/glabrego/gallery-cli/internal/media"
	"github.com/glabrego/gallery-cli/internal/pageindex"
)

// DataSource produces pages of ids. LoadPage stores the page in Index and
// reports whether anything new was added; it returns false without an
// error for pages it knows are out of range.
type DataSource interface {
	LoadPage(ctx context.Context, page int) (bool, error)
	Index() *pageindex.Index
	InitialPage() int
	SupportsStartPage() bool
	// IncludesParts is true for sources that already list one id per part.
	IncludesParts() bool
}

type State int

const (
	NotRequested State = iota
	Loading
	Loaded
	KnownEmpty
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case KnownEmpty:
		return "known-empty"
	default:
		return "not-requested"
	}
}

// Coordinator decides which pages to fetch and joins concurrent requests
// for the same page.
type Coordinator struct {
	src   DataSource
	log   zerolog.Logger
	group singleflight.Group

	mu     sync.Mutex
	states map[int]State
	// endPage is the lowest known-empty page past the loaded range; no page
	// at or above it is requested. 0 means unknown.
	endPage int
	// floorPage is the highest known-empty page below the loaded range.
	floorPage int
	// startPage replaces the source's initial page when set.
	startPage int
}

func New(src DataSource, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		src:    src,
		log:    log.With().Str("component", "loader").Logger(),
		states: make(map[int]State),
	}
}

func (c *Coordinator) State(page int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked(page)
}

func (c *Coordinator) stateLocked(page int) State {
	if s, ok := c.states[page]; ok {
		return s
	}
	if c.src.Index().HasPage(page) {
		return Loaded
	}
	return NotRequested
}

func (c *Coordinator) blockedLocked(page int) bool {
	if page < 1 {
		return true
	}
	if c.endPage > 0 && page >= c.endPage {
		return true
	}
	return page <= c.floorPage
}

// AtEnd reports whether the page after the highest loaded one is known to
// be empty.
func (c *Coordinator) AtEnd() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endPage > 0
}

// claim marks page Loading when it may be requested and isn't already.
func (c *Coordinator) claim(page int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blockedLocked(page) || c.stateLocked(page) != NotRequested {
		return false
	}
	c.states[page] = Loading
	return true
}

// StartAt makes Initial request page instead of the source's initial page.
// Sources that can't start mid-list keep their initial page and StartAt
// reports false.
func (c *Coordinator) StartAt(page int) bool {
	if page < 1 || !c.src.SupportsStartPage() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startPage = page
	return true
}

// Initial returns the first page to show if it still needs to be requested.
func (c *Coordinator) Initial() (int, bool) {
	c.mu.Lock()
	page := c.startPage
	c.mu.Unlock()
	if page == 0 {
		page = c.src.InitialPage()
	}
	if page < 1 {
		page = 1
	}
	return page, c.claim(page)
}

// Next requests the page after the highest loaded one regardless of the
// viewport.
func (c *Coordinator) Next() (int, bool) {
	high, ok := c.src.Index().HighestPage()
	if !ok {
		return 0, false
	}
	return high + 1, c.claim(high + 1)
}

// NextFor requests the page after the highest loaded one when the last
// nearby item is also the last materialized item, meaning the viewport has
// reached the end of what is rendered.
func (c *Coordinator) NextFor(nearby, materialized []media.Item) (int, bool) {
	if len(nearby) == 0 || len(materialized) == 0 {
		return 0, false
	}
	if nearby[len(nearby)-1] != materialized[len(materialized)-1] {
		return 0, false
	}
	high, ok := c.src.Index().HighestPage()
	if !ok {
		return 0, false
	}
	return high + 1, c.claim(high + 1)
}

// Previous requests the page just before the lowest loaded one. It never
// goes further back than one page and never below page 1.
func (c *Coordinator) Previous() (int, bool) {
	low, ok := c.src.Index().LowestPage()
	if !ok || low <= 1 {
		return 0, false
	}
	return low - 1, c.claim(low - 1)
}

// CanLoadPrevious reports whether Previous could request anything.
func (c *Coordinator) CanLoadPrevious() bool {
	low, ok := c.src.Index().LowestPage()
	if !ok || low <= 1 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.blockedLocked(low-1) && c.stateLocked(low-1) == NotRequested
}

// Pending lists pages currently loading.
func (c *Coordinator) Pending() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []int
	for p, s := range c.states {
		if s == Loading {
			out = append(out, p)
		}
	}
	return out
}

// Load fetches page through the data source. Concurrent calls for one page
// share a single request. A failed load returns the page to NotRequested so
// a later trigger can retry it.
func (c *Coordinator) Load(ctx context.Context, page int) (bool, error) {
	c.mu.Lock()
	if c.blockedLocked(page) {
		c.mu.Unlock()
		return false, nil
	}
	switch c.stateLocked(page) {
	case Loaded:
		c.mu.Unlock()
		return true, nil
	case KnownEmpty:
		c.mu.Unlock()
		return false, nil
	}
	c.states[page] = Loading
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.Itoa(page), func() (any, error) {
		switch c.State(page) {
		case Loaded:
			return true, nil
		case KnownEmpty:
			return false, nil
		}
		ok, err := c.src.LoadPage(ctx, page)
		c.finish(page, ok, err)
		return ok, err
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (c *Coordinator) finish(page int, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		delete(c.states, page)
		c.log.Warn().Err(err).Int("page", page).Msg("page load failed")
		return
	}
	if ok {
		c.states[page] = Loaded
		return
	}

	c.states[page] = KnownEmpty
	idx := c.src.Index()
	low, hasLow := idx.LowestPage()
	high, _ := idx.HighestPage()
	switch {
	case !hasLow || page > high:
		if c.endPage == 0 || page < c.endPage {
			c.endPage = page
		}
		c.log.Info().Int("page", page).Msg("no more results")
	case page < low:
		if page > c.floorPage {
			c.floorPage = page
		}
		c.log.Info().Int("page", page).Msg("no earlier results")
	}
}
