package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/glabrego/gallery-cli/internal/app"
	"github.com/glabrego/gallery-cli/internal/config"
	"github.com/glabrego/gallery-cli/internal/expand"
	"github.com/glabrego/gallery-cli/internal/media"
	"github.com/glabrego/gallery-cli/internal/mediainfo"
	"github.com/glabrego/gallery-cli/internal/remote"
	"github.com/glabrego/gallery-cli/internal/source"
	"github.com/glabrego/gallery-cli/internal/storage"
	"github.com/glabrego/gallery-cli/internal/tui"
	"github.com/glabrego/gallery-cli/internal/tui/actions"
	"github.com/glabrego/gallery-cli/internal/window"
)

type options struct {
	query     string
	bookmarks bool
	user      string
	page      int
	columns   int
	expand    bool
}

var errNoUser = errors.New("--bookmarks needs --user")

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "gallery [query]",
		Short:        "Browse gallery search results and bookmarks in the terminal",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		Example: strings.TrimSpace(`
  # Search, starting at the first page
  gallery landscape

  # Jump into the middle of a long result list
  gallery --query landscape --page 40

  # Someone's bookmarks, public and private merged
  gallery --bookmarks --user 1234
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.query == "" {
				opts.query = args[0]
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if cmd.Flags().Changed("columns") {
				cfg.Columns = opts.columns
			}
			if cmd.Flags().Changed("expand") {
				cfg.ExpandByDefault = opts.expand
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			q, err := opts.appQuery()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, q)
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Search query")
	cmd.Flags().BoolVar(&opts.bookmarks, "bookmarks", false, "Browse bookmarks instead of search results")
	cmd.Flags().StringVar(&opts.user, "user", "", "User whose bookmarks are shown")
	cmd.Flags().IntVar(&opts.page, "page", 1, "First search result page to load")
	cmd.Flags().IntVar(&opts.columns, "columns", 4, "Grid columns (overrides GALLERY_COLUMNS)")
	cmd.Flags().BoolVar(&opts.expand, "expand", false, "Show every part of multi-part items (overrides GALLERY_EXPAND_BY_DEFAULT)")
	return cmd
}

func (o options) appQuery() (app.Query, error) {
	if o.bookmarks || o.user != "" {
		if strings.TrimSpace(o.user) == "" {
			return app.Query{}, errNoUser
		}
		return app.Query{Bookmarks: o.user}, nil
	}
	if strings.TrimSpace(o.query) == "" {
		return app.Query{}, app.ErrEmptyQuery
	}
	return app.Query{Search: o.query, StartPage: o.page}, nil
}

func newLogger(cfg config.Config) (zerolog.Logger, *os.File, error) {
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file %s: %w", cfg.LogPath, err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(f).Level(level).With().Timestamp().Logger(), f, nil
}

func run(ctx context.Context, cfg config.Config, q app.Query) error {
	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	defer repo.Close()

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := repo.Init(initCtx); err != nil {
		return fmt.Errorf("storage schema error: %w", err)
	}
	if err := repo.CheckWritable(initCtx); err != nil {
		return fmt.Errorf("storage write check failed (%v). Verify GALLERY_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := remote.NewClient(cfg.APIBaseURL, cfg.Token, nil)
	mode := source.Mode(cfg.SourceMode)
	if mode == source.ModeAPI {
		if err := client.Authenticate(initCtx); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	cache := mediainfo.New(client, repo, mediainfo.DefaultOptions(), logger)
	service := app.NewService(client, repo, mode, logger)

	mutes, err := service.MuteList(initCtx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not load mutes, continuing without them")
		mutes = expand.NewMuteList(nil, nil)
	}

	wcfg := window.DefaultConfig()
	wcfg.BackwardChunk = cfg.BackwardChunk

	model := tui.NewModel(service, cache, tui.Options{
		Columns:         cfg.Columns,
		Window:          wcfg,
		ExpandByDefault: cfg.ExpandByDefault,
		Mutes:           mutes,
		ItemURL:         client.ItemURL,
		Log:             logger,
	})
	if err := model.Start(q); err != nil {
		return err
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := cache.Subscribe(func(ids []media.ID) {
		program.Send(actions.InfoLoadedMsg{IDs: ids})
	})
	defer unsubscribe()

	logger.Info().Str("query", q.Label()).Str("mode", cfg.SourceMode).Msg("starting")
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
