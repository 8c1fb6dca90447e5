package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/gallery-cli/internal/app"
	"github.com/glabrego/gallery-cli/internal/expand"
	"github.com/glabrego/gallery-cli/internal/grid"
	"github.com/glabrego/gallery-cli/internal/media"
)

// PageLoader is the part of the grid controller that fetches pages off the
// UI goroutine.
type PageLoader interface {
	LoadPage(ctx context.Context, tok grid.Token, page int) grid.PageResult
}

type InfoPrefetcher interface {
	Prefetch(ctx context.Context, ids []media.ID) error
}

type NavStore interface {
	SaveNavState(ctx context.Context, key string, q app.Query, nav grid.NavState) error
	LoadNavState(ctx context.Context, key string) (app.Query, grid.NavState, bool, error)
}

type Muter interface {
	MuteAuthor(ctx context.Context, authorID string) error
	MuteList(ctx context.Context) (expand.MuteList, error)
}

type PageLoadedMsg struct {
	Result   grid.PageResult
	Duration time.Duration
}

// InfoLoadedMsg carries ids whose metadata is now in the cache.
type InfoLoadedMsg struct {
	IDs []media.ID
}

type InfoErrorMsg struct {
	Err error
}

type NavSavedMsg struct {
	Key string
}

type NavSaveErrorMsg struct {
	Err error
}

type NavRestoredMsg struct {
	Key   string
	Query app.Query
	Nav   grid.NavState
	Found bool
}

type NavRestoreErrorMsg struct {
	Key string
	Err error
}

type MutedMsg struct {
	Status string
	Mutes  expand.MuteList
}

type MuteErrorMsg struct {
	Err error
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

type ClearStatusMsg struct {
	Seq int
}

func LoadPageCmd(loader PageLoader, tok grid.Token, page int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		start := time.Now()

		res := loader.LoadPage(ctx, tok, page)
		return PageLoadedMsg{Result: res, Duration: time.Since(start)}
	}
}

// PrefetchInfoCmd fetches metadata for ids. Arrivals are announced through
// the cache's subscribers, so success yields no message.
func PrefetchInfoCmd(cache InfoPrefetcher, ids []media.ID) tea.Cmd {
	if len(ids) == 0 {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := cache.Prefetch(ctx, ids); err != nil {
			return InfoErrorMsg{Err: err}
		}
		return nil
	}
}

func SaveNavStateCmd(store NavStore, key string, q app.Query, nav grid.NavState) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.SaveNavState(ctx, key, q, nav); err != nil {
			return NavSaveErrorMsg{Err: err}
		}
		return NavSavedMsg{Key: key}
	}
}

func RestoreNavStateCmd(store NavStore, key string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		q, nav, found, err := store.LoadNavState(ctx, key)
		if err != nil {
			return NavRestoreErrorMsg{Key: key, Err: err}
		}
		return NavRestoredMsg{Key: key, Query: q, Nav: nav, Found: found}
	}
}

// MuteAuthorCmd stores the mute and returns the updated list.
func MuteAuthorCmd(muter Muter, authorID, authorName string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := muter.MuteAuthor(ctx, authorID); err != nil {
			return MuteErrorMsg{Err: err}
		}
		mutes, err := muter.MuteList(ctx)
		if err != nil {
			return MuteErrorMsg{Err: err}
		}
		return MutedMsg{Status: "Muted " + authorName, Mutes: mutes}
	}
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened URL in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy URL to clipboard")}
	}
}

// ClearStatusCmd fires after d. seq lets the receiver ignore it when a newer
// status has been shown since.
func ClearStatusCmd(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
