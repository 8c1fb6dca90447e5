package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/glabrego/gallery-cli/internal/anchor"
	"github.com/glabrego/gallery-cli/internal/grid"
	"github.com/glabrego/gallery-cli/internal/media"
	"github.com/glabrego/gallery-cli/internal/remote"
	"github.com/glabrego/gallery-cli/internal/source"
	"github.com/glabrego/gallery-cli/internal/storage"
)

type fakeClient struct{}

func (fakeClient) SearchPage(context.Context, string, int) ([]media.ID, error) {
	return []media.ID{media.NewIllust("1")}, nil
}

func (fakeClient) SearchPageHTML(context.Context, string, int) ([]media.ID, error) {
	return nil, nil
}

func (fakeClient) BookmarksPage(context.Context, string, remote.Visibility, int) ([]media.ID, error) {
	return nil, nil
}

type fakeRepo struct {
	entries map[string]storage.HistoryEntry
	tags    []string
	authors []string
	err     error
}

func (f *fakeRepo) SaveHistory(_ context.Context, entry storage.HistoryEntry) error {
	if f.err != nil {
		return f.err
	}
	if f.entries == nil {
		f.entries = make(map[string]storage.HistoryEntry)
	}
	f.entries[entry.Key] = entry
	return nil
}

func (f *fakeRepo) LoadHistory(_ context.Context, key string) (storage.HistoryEntry, bool, error) {
	if f.err != nil {
		return storage.HistoryEntry{}, false, f.err
	}
	entry, ok := f.entries[key]
	return entry, ok, nil
}

func (f *fakeRepo) AddMute(_ context.Context, kind storage.MuteKind, value string) error {
	if kind == storage.MuteTag {
		f.tags = append(f.tags, value)
	} else {
		f.authors = append(f.authors, value)
	}
	return f.err
}

func (f *fakeRepo) ListMutes(context.Context) ([]string, []string, error) {
	return f.tags, f.authors, f.err
}

func TestService_OpenSource(t *testing.T) {
	svc := NewService(fakeClient{}, &fakeRepo{}, source.ModeAPI, zerolog.Nop())

	src, err := svc.OpenSource(Query{Search: " cats ", StartPage: 4})
	if err != nil {
		t.Fatalf("OpenSource returned error: %v", err)
	}
	search, ok := src.(*source.Search)
	if !ok {
		t.Fatalf("expected a search source, got %T", src)
	}
	if search.Query() != "cats" || search.InitialPage() != 4 {
		t.Fatalf("unexpected search source: %q page %d", search.Query(), search.InitialPage())
	}

	src, err = svc.OpenSource(Query{Bookmarks: "42", StartPage: 3})
	if err != nil {
		t.Fatalf("OpenSource returned error: %v", err)
	}
	if src.InitialPage() != 1 {
		t.Fatalf("bookmarks must start at page 1, got %d", src.InitialPage())
	}

	if _, err := svc.OpenSource(Query{}); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("unexpected error for empty query: %v", err)
	}
}

func TestService_NavStateRoundTrip(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(fakeClient{}, repo, source.ModeAPI, zerolog.Nop())

	item := media.Item{Source: media.NewIllust("7"), Part: 2}
	nav := grid.NavState{
		Anchor:          &anchor.Record{Item: item, Offset: 3},
		Nearby:          []media.Item{item},
		Overrides:       map[media.ID]bool{media.NewIllust("7"): true},
		ExpandByDefault: true,
	}
	key := NewHistoryKey()
	q := Query{Search: "cats"}
	if err := svc.SaveNavState(context.Background(), key, q, nav); err != nil {
		t.Fatalf("SaveNavState returned error: %v", err)
	}
	if repo.entries[key].Label != "search: cats" {
		t.Fatalf("unexpected label: %q", repo.entries[key].Label)
	}

	gotQuery, got, ok, err := svc.LoadNavState(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("LoadNavState returned ok=%v err=%v", ok, err)
	}
	if gotQuery != q {
		t.Fatalf("unexpected query: %+v", gotQuery)
	}
	if got.Anchor == nil || got.Anchor.Item != item || got.Anchor.Offset != 3 {
		t.Fatalf("unexpected anchor: %+v", got.Anchor)
	}
	if !got.Overrides[media.NewIllust("7")] || !got.ExpandByDefault || len(got.Nearby) != 1 {
		t.Fatalf("unexpected nav state: %+v", got)
	}
}

func TestService_LoadNavState_Missing(t *testing.T) {
	svc := NewService(fakeClient{}, &fakeRepo{}, source.ModeAPI, zerolog.Nop())
	_, _, ok, err := svc.LoadNavState(context.Background(), "nope")
	if err != nil || ok {
		t.Fatalf("expected missing entry, got ok=%v err=%v", ok, err)
	}
}

func TestService_LoadNavState_PropagatesError(t *testing.T) {
	svc := NewService(fakeClient{}, &fakeRepo{err: errors.New("disk")}, source.ModeAPI, zerolog.Nop())
	if _, _, _, err := svc.LoadNavState(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}

func TestService_MuteList(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(fakeClient{}, repo, source.ModeAPI, zerolog.Nop())
	if err := svc.MuteTag(context.Background(), "Spoiler"); err != nil {
		t.Fatalf("MuteTag returned error: %v", err)
	}
	if err := svc.MuteAuthor(context.Background(), "u1"); err != nil {
		t.Fatalf("MuteAuthor returned error: %v", err)
	}

	mutes, err := svc.MuteList(context.Background())
	if err != nil {
		t.Fatalf("MuteList returned error: %v", err)
	}
	if !mutes.IsMuted(media.Info{Tags: []string{"spoiler"}}) || !mutes.IsMuted(media.Info{AuthorID: "u1"}) {
		t.Fatalf("unexpected mute list: %+v", mutes)
	}
}
