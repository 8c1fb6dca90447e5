// Package source implements the paged data sources the grid browses.
package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/glabrego/gallery-cli/internal/media"
	"github.com/glabrego/gallery-cli/internal/pageindex"
	"github.com/glabrego/gallery-cli/internal/remote"
)

type Mode string

const (
	ModeAPI    Mode = "api"
	ModeScrape Mode = "scrape"
)

type SearchClient interface {
	SearchPage(ctx context.Context, query string, page int) ([]media.ID, error)
	SearchPageHTML(ctx context.Context, query string, page int) ([]media.ID, error)
}

type BookmarkClient interface {
	BookmarksPage(ctx context.Context, userID string, vis remote.Visibility, page int) ([]media.ID, error)
}

type fetchFunc func(ctx context.Context, page int) ([]media.ID, error)

// paged is the bookkeeping shared by every source: the index and the first
// page known to be empty.
type paged struct {
	index   *pageindex.Index
	fetch   fetchFunc
	initial int
	log     zerolog.Logger

	mu      sync.Mutex
	endPage int
}

func (p *paged) Index() *pageindex.Index {
	return p.index
}

func (p *paged) InitialPage() int {
	return p.initial
}

func (p *paged) IncludesParts() bool {
	return false
}

func (p *paged) LoadPage(ctx context.Context, page int) (bool, error) {
	if page < 1 {
		return false, nil
	}
	p.mu.Lock()
	end := p.endPage
	p.mu.Unlock()
	if end > 0 && page >= end {
		return false, nil
	}
	if p.index.HasPage(page) {
		return true, nil
	}

	ids, err := p.fetch(ctx, page)
	if err != nil {
		return false, fmt.Errorf("load page %d: %w", page, err)
	}
	if p.index.AddPage(page, ids) {
		p.log.Debug().Int("page", page).Int("ids", len(ids)).Msg("page loaded")
		return true, nil
	}
	if p.index.HasPage(page) {
		return true, nil
	}

	high, ok := p.index.HighestPage()
	if !ok || page > high {
		p.mu.Lock()
		if p.endPage == 0 || page < p.endPage {
			p.endPage = page
		}
		p.mu.Unlock()
	}
	return false, nil
}

// Search pages through search results for a query.
type Search struct {
	paged
	query string
}

func NewSearch(client SearchClient, query string, mode Mode, initialPage int, log zerolog.Logger) *Search {
	if initialPage < 1 {
		initialPage = 1
	}
	s := &Search{query: query}
	fetch := func(ctx context.Context, page int) ([]media.ID, error) {
		return client.SearchPage(ctx, query, page)
	}
	if mode == ModeScrape {
		fetch = func(ctx context.Context, page int) ([]media.ID, error) {
			return client.SearchPageHTML(ctx, query, page)
		}
	}
	s.paged = paged{
		index:   pageindex.New(log),
		fetch:   fetch,
		initial: initialPage,
		log:     log.With().Str("component", "source").Str("query", query).Logger(),
	}
	return s
}

func (s *Search) SupportsStartPage() bool {
	return true
}

func (s *Search) Query() string {
	return s.query
}

// Bookmarks merges a user's public and private bookmarks. Both lists are
// requested for the same page number and added to the index together.
type Bookmarks struct {
	paged
	userID string
}

func NewBookmarks(client BookmarkClient, userID string, log zerolog.Logger) *Bookmarks {
	b := &Bookmarks{userID: userID}
	b.paged = paged{
		index:   pageindex.New(log),
		initial: 1,
		log:     log.With().Str("component", "source").Str("bookmarks", userID).Logger(),
		fetch: func(ctx context.Context, page int) ([]media.ID, error) {
			var public, private []media.ID
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				ids, err := client.BookmarksPage(gctx, userID, remote.Public, page)
				public = ids
				return err
			})
			g.Go(func() error {
				ids, err := client.BookmarksPage(gctx, userID, remote.Private, page)
				private = ids
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			merged := make([]media.ID, 0, len(public)+len(private))
			merged = append(merged, public...)
			return append(merged, private...), nil
		},
	}
	return b
}

// SupportsStartPage is false: the two merged lists drift independently, so
// starting from a later page would skip items.
func (b *Bookmarks) SupportsStartPage() bool {
	return false
}

func (b *Bookmarks) UserID() string {
	return b.userID
}
