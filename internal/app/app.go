package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glabrego/gallery-cli/internal/expand"
	"github.com/glabrego/gallery-cli/internal/grid"
	"github.com/glabrego/gallery-cli/internal/loader"
	"github.com/glabrego/gallery-cli/internal/source"
	"github.com/glabrego/gallery-cli/internal/storage"
)

var ErrEmptyQuery = errors.New("nothing to browse: give a search query or a bookmarks user")

type Client interface {
	source.SearchClient
	source.BookmarkClient
}

type Repository interface {
	SaveHistory(ctx context.Context, entry storage.HistoryEntry) error
	LoadHistory(ctx context.Context, key string) (storage.HistoryEntry, bool, error)
	AddMute(ctx context.Context, kind storage.MuteKind, value string) error
	ListMutes(ctx context.Context) ([]string, []string, error)
}

// Query is what a result list shows: a search, or someone's bookmarks.
type Query struct {
	Search    string `json:"search,omitempty"`
	Bookmarks string `json:"bookmarks,omitempty"`
	StartPage int    `json:"start_page,omitempty"`
}

func (q Query) Label() string {
	if q.Bookmarks != "" {
		return "bookmarks: " + q.Bookmarks
	}
	return "search: " + q.Search
}

type savedState struct {
	Query Query         `json:"query"`
	Nav   grid.NavState `json:"nav"`
}

type Service struct {
	client Client
	repo   Repository
	mode   source.Mode
	log    zerolog.Logger
}

func NewService(client Client, repo Repository, mode source.Mode, log zerolog.Logger) *Service {
	return &Service{client: client, repo: repo, mode: mode, log: log.With().Str("component", "app").Logger()}
}

// OpenSource builds a fresh data source for q.
func (s *Service) OpenSource(q Query) (loader.DataSource, error) {
	switch {
	case strings.TrimSpace(q.Bookmarks) != "":
		if q.StartPage > 1 {
			s.log.Info().Int("page", q.StartPage).Msg("bookmarks always start at page 1")
		}
		return source.NewBookmarks(s.client, strings.TrimSpace(q.Bookmarks), s.log), nil
	case strings.TrimSpace(q.Search) != "":
		return source.NewSearch(s.client, strings.TrimSpace(q.Search), s.mode, q.StartPage, s.log), nil
	default:
		return nil, ErrEmptyQuery
	}
}

// NewHistoryKey returns a key for a history entry that hasn't been saved yet.
func NewHistoryKey() string {
	return uuid.NewString()
}

func (s *Service) SaveNavState(ctx context.Context, key string, q Query, nav grid.NavState) error {
	raw, err := json.Marshal(savedState{Query: q, Nav: nav})
	if err != nil {
		return fmt.Errorf("encode navigation state: %w", err)
	}
	entry := storage.HistoryEntry{Key: key, Label: q.Label(), State: raw, SavedAt: time.Now()}
	if err := s.repo.SaveHistory(ctx, entry); err != nil {
		return fmt.Errorf("save navigation state: %w", err)
	}
	return nil
}

// LoadNavState returns the query and position saved under key.
func (s *Service) LoadNavState(ctx context.Context, key string) (Query, grid.NavState, bool, error) {
	entry, ok, err := s.repo.LoadHistory(ctx, key)
	if err != nil {
		return Query{}, grid.NavState{}, false, fmt.Errorf("load navigation state: %w", err)
	}
	if !ok {
		return Query{}, grid.NavState{}, false, nil
	}
	var st savedState
	if err := json.Unmarshal(entry.State, &st); err != nil {
		return Query{}, grid.NavState{}, false, fmt.Errorf("decode navigation state %s: %w", key, err)
	}
	return st.Query, st.Nav, true, nil
}

func (s *Service) MuteList(ctx context.Context) (expand.MuteList, error) {
	tags, authors, err := s.repo.ListMutes(ctx)
	if err != nil {
		return expand.MuteList{}, fmt.Errorf("load mutes: %w", err)
	}
	return expand.NewMuteList(tags, authors), nil
}

func (s *Service) MuteAuthor(ctx context.Context, authorID string) error {
	return s.repo.AddMute(ctx, storage.MuteAuthor, authorID)
}

func (s *Service) MuteTag(ctx context.Context, tag string) error {
	return s.repo.AddMute(ctx, storage.MuteTag, tag)
}
