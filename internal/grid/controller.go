// Package grid drives one browsing session: it turns the loaded pages into
// display items, decides which of them to render and keeps the scroll
// position stable while the rendered set changes.
package grid

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/glabrego/gallery-cli/internal/anchor"
	"github.com/glabrego/gallery-cli/internal/expand"
	"github.com/glabrego/gallery-cli/internal/loader"
	"github.com/glabrego/gallery-cli/internal/media"
	"github.com/glabrego/gallery-cli/internal/reconcile"
	"github.com/glabrego/gallery-cli/internal/window"
)

// maxPasses bounds the passes one Refresh runs while the layout settles.
const maxPasses = 4

// restorePageBudget is how many pages past the first are fetched looking
// for a saved position before giving up on it.
const restorePageBudget = 5

// Token identifies one activation. Results carrying an older token are
// dropped.
type Token uint64

// View is the render surface as the controller drives it.
type View interface {
	reconcile.Target
	anchor.Viewport
	Nearby() []media.Item
	// Settle returns the nearby set and marks it as already seen.
	Settle() []media.Item
	Columns() int
	ScrollToItem(item media.Item) bool
	Subscribe(fn func()) (unsubscribe func())
}

// NavState is what is saved when leaving a result list and restored when
// coming back to it.
type NavState struct {
	Anchor          *anchor.Record    `json:"anchor,omitempty"`
	Nearby          []media.Item      `json:"nearby"`
	Overrides       map[media.ID]bool `json:"overrides,omitempty"`
	ExpandByDefault bool              `json:"expand_by_default"`
	// Page holds the anchor, so sources that can start mid-list reopen there.
	Page int `json:"page,omitempty"`
}

type PageResult struct {
	Token Token
	Page  int
	Added bool
	Err   error
}

type Status struct {
	Items           int
	Rendered        int
	Pages           int
	Loading         bool
	AtEnd           bool
	CanLoadPrevious bool
}

type Controller struct {
	log        zerolog.Logger
	view       View
	info       expand.InfoSource
	resolver   *expand.Resolver
	selector   window.Selector
	reconciler *reconcile.Reconciler

	// mu guards the fields LoadPage reads from fetch goroutines.
	mu    sync.Mutex
	token Token
	src   loader.DataSource
	coord *loader.Coordinator

	seq           *window.Sequence
	prefetch      window.Range
	restoreNearby []media.Item
	restoreAnchor *anchor.Record
	restorePages  int
	forced        *media.Item

	// expand turns a source id into its display items.
	expand func(media.ID) []media.Item

	passing bool
	again   bool
	err     error
}

func New(view View, info expand.InfoSource, cfg window.Config, log zerolog.Logger) *Controller {
	c := &Controller{
		log:        log.With().Str("component", "grid").Logger(),
		view:       view,
		info:       info,
		resolver:   expand.NewResolver(info),
		selector:   window.NewSelector(cfg),
		reconciler: reconcile.New(view),
	}
	c.expand = c.resolver.Expand
	view.Subscribe(c.viewportMoved)
	return c
}

// Activate switches to src. Everything rendered for the previous source is
// discarded and continuations issued before this call become stale. nav,
// when set, is the state saved the last time src was shown.
func (c *Controller) Activate(src loader.DataSource, nav *NavState) Token {
	c.mu.Lock()
	c.token++
	tok := c.token
	c.src = src
	c.coord = loader.New(src, c.log)
	startedAt := 0
	if nav != nil && nav.Page > 0 && c.coord.StartAt(nav.Page) {
		startedAt = nav.Page
	}
	c.mu.Unlock()

	c.passing = true
	c.reconciler.Reset()
	c.view.SetScrollTop(0)
	c.passing = false
	c.again = false

	c.seq = nil
	c.prefetch = window.Range{}
	c.forced = nil
	c.restoreNearby = nil
	c.restoreAnchor = nil
	c.restorePages = 0
	c.err = nil

	c.resolver.SetIncludesParts(src.IncludesParts())
	if nav != nil {
		c.resolver.ReplaceOverrides(nav.Overrides)
		c.resolver.SetExpandByDefault(nav.ExpandByDefault)
		c.restoreNearby = slices.Clone(nav.Nearby)
		if nav.Anchor != nil {
			rec := *nav.Anchor
			c.restoreAnchor = &rec
		}
	} else {
		c.resolver.ReplaceOverrides(nil)
	}
	c.log.Debug().Uint64("token", uint64(tok)).Bool("restore", nav != nil).Int("start_page", startedAt).Msg("source activated")
	return tok
}

func (c *Controller) Token() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Controller) Source() loader.DataSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src
}

func (c *Controller) coordinator() *loader.Coordinator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coord
}

// Err returns the error of the last pass, including passes started by
// viewport movement.
func (c *Controller) Err() error {
	return c.err
}

// Refresh recomputes the rendered window. It is idempotent: running it
// again without any change in between renders the same items.
func (c *Controller) Refresh() error {
	if c.passing {
		c.again = true
		return nil
	}
	c.passing = true
	defer func() { c.passing = false }()

	for i := 0; i < maxPasses; i++ {
		c.again = false
		if err := c.pass(); err != nil {
			c.err = err
			c.log.Error().Err(err).Msg("refresh aborted")
			return err
		}
		if !c.again {
			break
		}
	}
	c.err = nil
	return nil
}

func (c *Controller) viewportMoved() {
	if c.passing {
		c.again = true
		return
	}
	// The user scrolled; a pending restore would fight them.
	c.restoreNearby = nil
	c.restoreAnchor = nil
	_ = c.Refresh()
}

func (c *Controller) pass() error {
	src := c.Source()
	if src == nil {
		return nil
	}
	seq, err := c.buildSequence(src)
	if err != nil {
		return fmt.Errorf("build sequence: %w", err)
	}
	c.seq = seq

	saved, hasSaved := anchor.Save(c.view)
	nearby := c.view.Nearby()
	target := c.forced
	if target == nil && c.restoreAnchor != nil && seq.Index(c.restoreAnchor.Item) >= 0 {
		it := c.restoreAnchor.Item
		target = &it
	}
	res := c.selector.Compute(window.Input{
		Seq:           seq,
		Materialized:  c.reconciler.Rendered(),
		Nearby:        nearby,
		Anchor:        target,
		Columns:       c.view.Columns(),
		RestoreNearby: c.restoreNearby,
	})
	if res.Restored {
		c.restoreNearby = nil
	}
	c.prefetch = res.Prefetch

	st := c.reconciler.Apply(seq.Slice(res.Window))
	c.log.Debug().
		Int("start", res.Window.Start).
		Int("end", res.Window.End).
		Int("created", st.Created).
		Int("reused", st.Reused).
		Int("detached", st.Detached).
		Int("destroyed", st.Destroyed).
		Msg("window applied")

	switch {
	case c.forced != nil:
		if !c.view.ScrollToItem(*c.forced) {
			c.log.Info().Str("item", c.forced.String()).Msg("item to show is not in the results")
		}
		c.forced = nil
	case c.restoreAnchor != nil:
		if anchor.Restore(c.view, *c.restoreAnchor) {
			c.restoreAnchor = nil
		}
	case hasSaved:
		anchor.Restore(c.view, saved)
	}

	if seq.Len() > 0 && c.restorePending() && c.restoreExhausted() {
		c.log.Info().Int("pages", c.restorePages).Msg("saved position not found in results")
		c.restoreNearby = nil
		c.restoreAnchor = nil
	}

	if after := c.view.Settle(); !slices.Equal(after, nearby) {
		c.again = true
	}
	return nil
}

func (c *Controller) restorePending() bool {
	return c.restoreNearby != nil || c.restoreAnchor != nil
}

// restoreExhausted reports whether no further page can bring the saved
// position into the results.
func (c *Controller) restoreExhausted() bool {
	coord := c.coordinator()
	if coord == nil || coord.AtEnd() {
		return true
	}
	return c.restorePages >= restorePageBudget && len(coord.Pending()) == 0
}

func (c *Controller) buildSequence(src loader.DataSource) (*window.Sequence, error) {
	ids := src.Index().AllIDs()
	items := make([]media.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, c.expand(id)...)
	}
	return window.NewSequence(items)
}

// PagesToLoad claims the pages the current view needs. The caller is
// expected to LoadPage each of them.
func (c *Controller) PagesToLoad() []int {
	coord := c.coordinator()
	if coord == nil {
		return nil
	}
	var out []int
	if page, ok := coord.Initial(); ok {
		out = append(out, page)
	}
	if page, ok := coord.NextFor(c.view.Nearby(), c.reconciler.Rendered()); ok {
		out = append(out, page)
	}
	// A saved position not loaded yet lies further on.
	if c.restorePending() && c.restorePages < restorePageBudget {
		if page, ok := coord.Next(); ok {
			c.restorePages++
			out = append(out, page)
		}
	}
	return out
}

// LoadPage fetches page for the activation tok. It is safe to call from any
// goroutine.
func (c *Controller) LoadPage(ctx context.Context, tok Token, page int) PageResult {
	c.mu.Lock()
	current, coord := c.token, c.coord
	c.mu.Unlock()
	if tok != current || coord == nil {
		return PageResult{Token: tok, Page: page}
	}
	added, err := coord.Load(ctx, page)
	return PageResult{Token: tok, Page: page, Added: added, Err: err}
}

// PageLoaded applies a LoadPage result. Stale results report false and do
// nothing.
func (c *Controller) PageLoaded(res PageResult) (bool, error) {
	if res.Token != c.Token() {
		c.log.Debug().Int("page", res.Page).Msg("dropped stale page result")
		return false, nil
	}
	if res.Err != nil {
		return true, res.Err
	}
	return true, c.Refresh()
}

// LoadPrevious claims the page before the lowest loaded one.
func (c *Controller) LoadPrevious() (int, bool) {
	coord := c.coordinator()
	if coord == nil {
		return 0, false
	}
	return coord.Previous()
}

// InfoLoaded re-resolves expansion for ids whose metadata arrived.
func (c *Controller) InfoLoaded(ids []media.ID) error {
	c.resolver.InfoArrived(ids...)
	return c.Refresh()
}

// ShowItem renders item and scrolls to it on the next pass.
func (c *Controller) ShowItem(item media.Item) error {
	c.forced = &item
	c.restoreAnchor = nil
	return c.Refresh()
}

func (c *Controller) ToggleExpand(id media.ID) (bool, error) {
	expanded := c.resolver.Toggle(id)
	return expanded, c.Refresh()
}

// IsExpanded reports whether id is currently shown as its parts.
func (c *Controller) IsExpanded(id media.ID) bool {
	return c.resolver.IsExpanded(id)
}

func (c *Controller) ExpandByDefault() bool {
	return c.resolver.ExpandByDefault()
}

func (c *Controller) SetExpandByDefault(v bool) error {
	c.resolver.SetExpandByDefault(v)
	return c.Refresh()
}

func (c *Controller) SetMutes(m expand.MuteList) error {
	c.resolver.SetMutes(m)
	return c.Refresh()
}

// PrefetchIDs lists the source ids around the rendered window that have no
// metadata yet.
func (c *Controller) PrefetchIDs() []media.ID {
	if c.seq == nil {
		return nil
	}
	seen := make(map[media.ID]bool)
	var out []media.ID
	for i := c.prefetch.Start; i < c.prefetch.End && i < c.seq.Len(); i++ {
		id := c.seq.At(i).Source
		if seen[id] || id.Kind != media.KindIllust {
			continue
		}
		seen[id] = true
		if _, ok := c.info.InfoSync(id); !ok {
			out = append(out, id)
		}
	}
	return out
}

func (c *Controller) NavState() NavState {
	nav := NavState{
		Nearby:          c.view.Nearby(),
		Overrides:       c.resolver.Overrides(),
		ExpandByDefault: c.resolver.ExpandByDefault(),
	}
	ref := nav.Nearby
	if rec, ok := anchor.Save(c.view); ok {
		nav.Anchor = &rec
		ref = []media.Item{rec.Item}
	}
	if src := c.Source(); src != nil && len(ref) > 0 {
		if page, ok := src.Index().PageForID(ref[0].Source); ok {
			nav.Page = page
		}
	}
	return nav
}

func (c *Controller) Status() Status {
	var st Status
	if c.seq != nil {
		st.Items = c.seq.Len()
	}
	st.Rendered = len(c.reconciler.Rendered())
	if src := c.Source(); src != nil {
		st.Pages = len(src.Index().Pages())
	}
	if coord := c.coordinator(); coord != nil {
		st.Loading = len(coord.Pending()) > 0
		st.AtEnd = coord.AtEnd()
		st.CanLoadPrevious = coord.CanLoadPrevious()
	}
	return st
}
