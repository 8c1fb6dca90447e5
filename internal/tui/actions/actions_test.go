package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glabrego/gallery-cli/internal/app"
	"github.com/glabrego/gallery-cli/internal/expand"
	"github.com/glabrego/gallery-cli/internal/grid"
	"github.com/glabrego/gallery-cli/internal/media"
)

type fakeLoader struct {
	lastDeadline time.Time
	lastToken    grid.Token
	lastPage     int
	err          error
}

func (f *fakeLoader) LoadPage(ctx context.Context, tok grid.Token, page int) grid.PageResult {
	if dl, ok := ctx.Deadline(); ok {
		f.lastDeadline = dl
	}
	f.lastToken = tok
	f.lastPage = page
	return grid.PageResult{Token: tok, Page: page, Added: f.err == nil, Err: f.err}
}

type fakePrefetcher struct {
	ids          []media.ID
	lastDeadline time.Time
	err          error
}

func (f *fakePrefetcher) Prefetch(ctx context.Context, ids []media.ID) error {
	if dl, ok := ctx.Deadline(); ok {
		f.lastDeadline = dl
	}
	f.ids = ids
	return f.err
}

type fakeNavStore struct {
	saved    map[string]grid.NavState
	queries  map[string]app.Query
	saveErr  error
	loadErr  error
	deadline time.Time
}

func (f *fakeNavStore) SaveNavState(ctx context.Context, key string, q app.Query, nav grid.NavState) error {
	if dl, ok := ctx.Deadline(); ok {
		f.deadline = dl
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[string]grid.NavState)
		f.queries = make(map[string]app.Query)
	}
	f.saved[key] = nav
	f.queries[key] = q
	return nil
}

func (f *fakeNavStore) LoadNavState(ctx context.Context, key string) (app.Query, grid.NavState, bool, error) {
	if f.loadErr != nil {
		return app.Query{}, grid.NavState{}, false, f.loadErr
	}
	nav, ok := f.saved[key]
	return f.queries[key], nav, ok, nil
}

func TestLoadPageCmd(t *testing.T) {
	loader := &fakeLoader{}
	msg := LoadPageCmd(loader, 3, 7)()
	loaded, ok := msg.(PageLoadedMsg)
	if !ok {
		t.Fatalf("expected PageLoadedMsg, got %T", msg)
	}
	if loaded.Result.Token != 3 || loaded.Result.Page != 7 || !loaded.Result.Added {
		t.Fatalf("unexpected page result: %+v", loaded.Result)
	}
	if loader.lastDeadline.IsZero() {
		t.Fatal("expected load context deadline to be set")
	}

	loader.err = errors.New("timeout")
	loaded = LoadPageCmd(loader, 3, 8)().(PageLoadedMsg)
	if loaded.Result.Err == nil {
		t.Fatal("expected page error to be carried in the message")
	}
}

func TestPrefetchInfoCmd(t *testing.T) {
	cache := &fakePrefetcher{}
	if cmd := PrefetchInfoCmd(cache, nil); cmd != nil {
		t.Fatal("expected no command for an empty prefetch")
	}

	ids := []media.ID{media.NewIllust("1"), media.NewIllust("2")}
	if msg := PrefetchInfoCmd(cache, ids)(); msg != nil {
		t.Fatalf("expected no message on success, got %T", msg)
	}
	if len(cache.ids) != 2 || cache.lastDeadline.IsZero() {
		t.Fatalf("unexpected prefetch call: %+v", cache)
	}

	cache.err = errors.New("offline")
	if _, ok := PrefetchInfoCmd(cache, ids)().(InfoErrorMsg); !ok {
		t.Fatal("expected InfoErrorMsg")
	}
}

func TestSaveAndRestoreNavStateCmd(t *testing.T) {
	store := &fakeNavStore{}
	q := app.Query{Search: "cats"}
	nav := grid.NavState{ExpandByDefault: true}

	msg := SaveNavStateCmd(store, "k1", q, nav)()
	if saved, ok := msg.(NavSavedMsg); !ok || saved.Key != "k1" {
		t.Fatalf("expected NavSavedMsg for k1, got %T %+v", msg, msg)
	}
	if store.deadline.IsZero() {
		t.Fatal("expected save context deadline to be set")
	}

	msg = RestoreNavStateCmd(store, "k1")()
	restored, ok := msg.(NavRestoredMsg)
	if !ok {
		t.Fatalf("expected NavRestoredMsg, got %T", msg)
	}
	if !restored.Found || restored.Query.Search != "cats" || !restored.Nav.ExpandByDefault {
		t.Fatalf("unexpected restore payload: %+v", restored)
	}

	missing := RestoreNavStateCmd(store, "nope")().(NavRestoredMsg)
	if missing.Found {
		t.Fatalf("expected missing key to report not found: %+v", missing)
	}
}

func TestNavStateCmdErrors(t *testing.T) {
	store := &fakeNavStore{saveErr: errors.New("disk full"), loadErr: errors.New("locked")}
	if _, ok := SaveNavStateCmd(store, "k", app.Query{}, grid.NavState{})().(NavSaveErrorMsg); !ok {
		t.Fatal("expected NavSaveErrorMsg")
	}
	msg := RestoreNavStateCmd(store, "k")()
	if failed, ok := msg.(NavRestoreErrorMsg); !ok || failed.Key != "k" {
		t.Fatalf("expected NavRestoreErrorMsg for k, got %T", msg)
	}
}

type fakeMuter struct {
	authors []string
	err     error
}

func (f *fakeMuter) MuteAuthor(ctx context.Context, authorID string) error {
	if f.err != nil {
		return f.err
	}
	f.authors = append(f.authors, authorID)
	return nil
}

func (f *fakeMuter) MuteList(context.Context) (expand.MuteList, error) {
	return expand.NewMuteList(nil, f.authors), nil
}

func TestMuteAuthorCmd(t *testing.T) {
	muter := &fakeMuter{}
	msg := MuteAuthorCmd(muter, "u9", "ann")()
	muted, ok := msg.(MutedMsg)
	if !ok {
		t.Fatalf("expected MutedMsg, got %T", msg)
	}
	if muted.Status != "Muted ann" || !muted.Mutes.Authors["u9"] {
		t.Fatalf("unexpected mute payload: %+v", muted)
	}

	muter.err = errors.New("read-only")
	if _, ok := MuteAuthorCmd(muter, "u9", "ann")().(MuteErrorMsg); !ok {
		t.Fatal("expected MuteErrorMsg")
	}
}

func TestOpenURLCmd_Fallbacks(t *testing.T) {
	msg := OpenURLCmd("https://example.com",
		func(string) error { return nil },
		func(string) error { return nil },
	)()
	success, ok := msg.(OpenURLSuccessMsg)
	if !ok || !success.Opened {
		t.Fatalf("expected opened success, got %T %+v", msg, success)
	}

	msg = OpenURLCmd("https://example.com",
		func(string) error { return errors.New("open failed") },
		func(string) error { return nil },
	)()
	success, ok = msg.(OpenURLSuccessMsg)
	if !ok || success.Opened {
		t.Fatalf("expected copy fallback success, got %T %+v", msg, success)
	}

	msg = OpenURLCmd("https://example.com",
		func(string) error { return errors.New("open failed") },
		func(string) error { return errors.New("copy failed") },
	)()
	if _, ok := msg.(OpenURLErrorMsg); !ok {
		t.Fatalf("expected OpenURLErrorMsg, got %T", msg)
	}
}

func TestCopyURLCmd(t *testing.T) {
	msg := CopyURLCmd("https://example.com", func(string) error { return nil })()
	if _, ok := msg.(OpenURLSuccessMsg); !ok {
		t.Fatalf("expected OpenURLSuccessMsg, got %T", msg)
	}
	msg = CopyURLCmd("https://example.com", func(string) error { return errors.New("copy failed") })()
	if _, ok := msg.(OpenURLErrorMsg); !ok {
		t.Fatalf("expected OpenURLErrorMsg, got %T", msg)
	}
}

func TestClearStatusCmd(t *testing.T) {
	msg := ClearStatusCmd(4, time.Millisecond)()
	if cleared, ok := msg.(ClearStatusMsg); !ok || cleared.Seq != 4 {
		t.Fatalf("expected ClearStatusMsg with seq 4, got %T %+v", msg, msg)
	}
}
