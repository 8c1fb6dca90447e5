package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/glabrego/gallery-cli/internal/app"
	"github.com/glabrego/gallery-cli/internal/expand"
	"github.com/glabrego/gallery-cli/internal/grid"
	"github.com/glabrego/gallery-cli/internal/loader"
	"github.com/glabrego/gallery-cli/internal/media"
	"github.com/glabrego/gallery-cli/internal/tui/actions"
	"github.com/glabrego/gallery-cli/internal/tui/platform"
	"github.com/glabrego/gallery-cli/internal/tui/state"
	tuitheme "github.com/glabrego/gallery-cli/internal/tui/theme"
	"github.com/glabrego/gallery-cli/internal/tui/view"
	"github.com/glabrego/gallery-cli/internal/viewport"
	"github.com/glabrego/gallery-cli/internal/window"
)

const (
	cellHeight   = 5
	nearbyRows   = 2
	historyLimit = 50
)

type Service interface {
	OpenSource(q app.Query) (loader.DataSource, error)
	actions.NavStore
	actions.Muter
}

type InfoCache interface {
	InfoSync(id media.ID) (media.Info, bool)
	actions.InfoPrefetcher
}

type Options struct {
	Columns         int
	Window          window.Config
	ExpandByDefault bool
	Mutes           expand.MuteList
	// ItemURL builds the web page of an item whose metadata has no URL.
	ItemURL func(media.ID) string
	Log     zerolog.Logger
}

type Model struct {
	service Service
	cache   InfoCache
	ctrl    *grid.Controller
	grid    *viewport.Grid
	keys    keyMap
	theme   tuitheme.Theme
	log     zerolog.Logger

	search    textinput.Model
	searching bool

	history     *state.History
	current     state.Entry
	pendingBack *state.Entry

	columns   int
	width     int
	height    int
	cellWidth int
	showHelp  bool
	verbose   bool
	status    string
	statusID  int
	statusTTL time.Duration
	err       error

	itemURL   func(media.ID) string
	openURLFn func(string) error
	copyURLFn func(string) error
	startCmd  tea.Cmd
}

func NewModel(service Service, cache InfoCache, opts Options) Model {
	columns := opts.Columns
	if columns <= 0 {
		columns = 4
	}
	vp := viewport.New(columns, cellHeight, 0, nearbyRows)
	ctrl := grid.New(vp, cache, opts.Window, opts.Log)
	_ = ctrl.SetExpandByDefault(opts.ExpandByDefault)
	_ = ctrl.SetMutes(opts.Mutes)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search query"
	search.CharLimit = 200

	return Model{
		service:   service,
		cache:     cache,
		ctrl:      ctrl,
		grid:      vp,
		keys:      defaultKeyMap(),
		theme:     tuitheme.Default(),
		log:       opts.Log.With().Str("component", "tui").Logger(),
		search:    search,
		history:   state.NewHistory(historyLimit),
		columns:   columns,
		cellWidth: state.CellWidth(80, columns),
		statusTTL: 3 * time.Second,
		itemURL:   opts.ItemURL,
		openURLFn: platform.OpenURLInBrowser,
		copyURLFn: platform.CopyURLToClipboard,
	}
}

// Start activates the first result list. Its page loads are issued by Init.
func (m *Model) Start(q app.Query) error {
	cmd, err := m.activate(state.Entry{Key: app.NewHistoryKey(), Query: q}, nil)
	if err != nil {
		return err
	}
	m.startCmd = cmd
	return nil
}

func (m Model) Init() tea.Cmd {
	return m.startCmd
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, m.followUp()
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKey(msg)
	case actions.PageLoadedMsg:
		applied, err := m.ctrl.PageLoaded(msg.Result)
		if !applied {
			return m, nil
		}
		if err != nil {
			m.err = fmt.Errorf("page %d: %w", msg.Result.Page, err)
			m.log.Warn().Err(err).Int("page", msg.Result.Page).Msg("page load failed")
			return m, nil
		}
		m.log.Debug().Int("page", msg.Result.Page).Bool("added", msg.Result.Added).Dur("took", msg.Duration).Msg("page loaded")
		m.err = m.ctrl.Err()
		return m, m.followUp()
	case actions.InfoLoadedMsg:
		m.grid.MarkStale(msg.IDs)
		if err := m.ctrl.InfoLoaded(msg.IDs); err != nil {
			m.err = err
		}
		return m, m.followUp()
	case actions.InfoErrorMsg:
		m.err = msg.Err
		return m, nil
	case actions.NavSavedMsg:
		return m, nil
	case actions.NavSaveErrorMsg:
		m.err = msg.Err
		return m, nil
	case actions.NavRestoredMsg:
		if m.pendingBack == nil || m.pendingBack.Key != msg.Key {
			return m, nil
		}
		entry := *m.pendingBack
		m.pendingBack = nil
		var nav *grid.NavState
		if msg.Found {
			entry.Query = msg.Query
			nav = &msg.Nav
		}
		cmd, err := m.activate(entry, nav)
		if err != nil {
			m.err = err
		}
		return m, cmd
	case actions.NavRestoreErrorMsg:
		if m.pendingBack == nil || m.pendingBack.Key != msg.Key {
			return m, nil
		}
		entry := *m.pendingBack
		m.pendingBack = nil
		m.err = msg.Err
		cmd, err := m.activate(entry, nil)
		if err != nil {
			m.err = err
		}
		return m, cmd
	case actions.MutedMsg:
		m.markAllStale()
		if err := m.ctrl.SetMutes(msg.Mutes); err != nil {
			m.err = err
		}
		cmd := tea.Batch(m.setStatus(msg.Status), m.followUp())
		return m, cmd
	case actions.MuteErrorMsg:
		m.err = msg.Err
		return m, nil
	case actions.OpenURLSuccessMsg:
		m.err = nil
		cmd := m.setStatus(msg.Status)
		return m, cmd
	case actions.OpenURLErrorMsg:
		m.err = msg.Err
		return m, nil
	case actions.ClearStatusMsg:
		if msg.Seq == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		q := strings.TrimSpace(m.search.Value())
		if q == "" {
			return m, nil
		}
		return m.navigate(app.Query{Search: q})
	case "ctrl+c":
		return m.quit()
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ToggleHelp) {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		switch {
		case msg.String() == "esc":
			m.showHelp = false
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		m.grid.MoveSelection(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.grid.MoveSelection(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.grid.MoveSelection(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.grid.MoveSelection(1, 0)
	case key.Matches(msg, m.keys.PageUp):
		m.grid.ScrollBy(-m.pageStep())
		m.selectFirstVisible()
	case key.Matches(msg, m.keys.PageDown):
		m.grid.ScrollBy(m.pageStep())
		m.selectFirstVisible()
	case key.Matches(msg, m.keys.Top):
		m.grid.SetScrollTop(0)
		m.selectFirstVisible()
	case key.Matches(msg, m.keys.Expand):
		return m.toggleExpandSelected()
	case key.Matches(msg, m.keys.ExpandAll):
		next := !m.ctrl.ExpandByDefault()
		m.markAllStale()
		if err := m.ctrl.SetExpandByDefault(next); err != nil {
			m.err = err
		}
		status := "Expand all: off"
		if next {
			status = "Expand all: on"
		}
		cmd := tea.Batch(m.setStatus(status), m.followUp())
		return m, cmd
	case key.Matches(msg, m.keys.Previous):
		page, ok := m.ctrl.LoadPrevious()
		if !ok {
			cmd := m.setStatus("No earlier pages")
			return m, cmd
		}
		cmd := tea.Batch(
			m.setStatus(fmt.Sprintf("Loading page %d...", page)),
			actions.LoadPageCmd(m.ctrl, m.ctrl.Token(), page),
		)
		return m, cmd
	case key.Matches(msg, m.keys.Open):
		return m.openSelectedURL(false)
	case key.Matches(msg, m.keys.Copy):
		return m.openSelectedURL(true)
	case key.Matches(msg, m.keys.OpenUser):
		return m.openSelectedUser()
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue("")
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Retry):
		m.err = nil
		if err := m.ctrl.Refresh(); err != nil {
			m.err = err
		}
	case key.Matches(msg, m.keys.MuteAuthor):
		return m.muteSelectedAuthor()
	case key.Matches(msg, m.keys.ToggleVerbose):
		m.verbose = !m.verbose
		return m, nil
	default:
		return m, nil
	}
	return m, m.followUp()
}

// activate switches the grid to entry's results, restoring nav when given.
func (m *Model) activate(entry state.Entry, nav *grid.NavState) (tea.Cmd, error) {
	src, err := m.service.OpenSource(entry.Query)
	if err != nil {
		return nil, err
	}
	m.current = entry
	m.ctrl.Activate(src, nav)
	m.err = nil
	if err := m.ctrl.Refresh(); err != nil {
		m.err = err
	}
	m.log.Info().Str("key", entry.Key).Str("query", entry.Query.Label()).Bool("restore", nav != nil).Msg("results opened")
	return m.followUp(), nil
}

// navigate opens a new result list, keeping the current one in the back
// history.
func (m Model) navigate(q app.Query) (tea.Model, tea.Cmd) {
	var save tea.Cmd
	if m.ctrl.Source() != nil {
		save = actions.SaveNavStateCmd(m.service, m.current.Key, m.current.Query, m.ctrl.NavState())
		m.history.Push(m.current)
	}
	cmd, err := m.activate(state.Entry{Key: app.NewHistoryKey(), Query: q}, nil)
	if err != nil {
		m.err = err
		return m, save
	}
	return m, tea.Batch(save, cmd)
}

func (m Model) back() (tea.Model, tea.Cmd) {
	if m.pendingBack != nil {
		return m, nil
	}
	entry, ok := m.history.Pop()
	if !ok {
		cmd := m.setStatus("No earlier results")
		return m, cmd
	}
	m.pendingBack = &entry
	return m, actions.RestoreNavStateCmd(m.service, entry.Key)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.ctrl.Source() == nil {
		return m, tea.Quit
	}
	return m, tea.Sequence(
		actions.SaveNavStateCmd(m.service, m.current.Key, m.current.Query, m.ctrl.NavState()),
		tea.Quit,
	)
}

func (m Model) toggleExpandSelected() (tea.Model, tea.Cmd) {
	sel, ok := m.grid.Selected()
	if !ok {
		return m, nil
	}
	m.grid.MarkStale([]media.ID{sel.Source})
	expanded, err := m.ctrl.ToggleExpand(sel.Source)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.grid.Select(media.Item{Source: sel.Source})
	status := "Collapsed " + sel.Source.String()
	if expanded {
		status = "Expanded " + sel.Source.String()
	}
	cmd := tea.Batch(m.setStatus(status), m.followUp())
	return m, cmd
}

func (m Model) openSelectedURL(copyOnly bool) (tea.Model, tea.Cmd) {
	sel, ok := m.grid.Selected()
	if !ok {
		return m, nil
	}
	raw := ""
	if info, known := m.cache.InfoSync(sel.Source); known {
		raw = info.URL
	}
	if raw == "" && m.itemURL != nil {
		raw = m.itemURL(sel.Source)
	}
	url, err := platform.ValidateItemURL(raw)
	if err != nil {
		m.err = err
		return m, nil
	}
	if copyOnly {
		return m, actions.CopyURLCmd(url, m.copyURLFn)
	}
	return m, actions.OpenURLCmd(url, m.openURLFn, m.copyURLFn)
}

func (m Model) openSelectedUser() (tea.Model, tea.Cmd) {
	sel, ok := m.grid.Selected()
	if !ok {
		return m, nil
	}
	if sel.Source.Kind == media.KindUser {
		return m.navigate(app.Query{Bookmarks: sel.Source.Value})
	}
	if info, known := m.cache.InfoSync(sel.Source); known && info.AuthorID != "" {
		return m.navigate(app.Query{Bookmarks: info.AuthorID})
	}
	cmd := m.setStatus("Selected item has no user")
	return m, cmd
}

func (m Model) muteSelectedAuthor() (tea.Model, tea.Cmd) {
	sel, ok := m.grid.Selected()
	if !ok {
		return m, nil
	}
	info, known := m.cache.InfoSync(sel.Source)
	if !known || info.AuthorID == "" {
		cmd := m.setStatus("Author not known yet")
		return m, cmd
	}
	name := info.Author
	if name == "" {
		name = info.AuthorID
	}
	return m, actions.MuteAuthorCmd(m.service, info.AuthorID, name)
}

// followUp issues the page loads and metadata fetches the current view
// needs.
func (m Model) followUp() tea.Cmd {
	var cmds []tea.Cmd
	tok := m.ctrl.Token()
	for _, page := range m.ctrl.PagesToLoad() {
		cmds = append(cmds, actions.LoadPageCmd(m.ctrl, tok, page))
	}
	if cmd := actions.PrefetchInfoCmd(m.cache, m.ctrl.PrefetchIDs()); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) setStatus(status string) tea.Cmd {
	m.statusID++
	m.status = status
	return actions.ClearStatusCmd(m.statusID, m.statusTTL)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = max(10, width-4)
	if cw := state.CellWidth(width, m.columns); cw != m.cellWidth {
		m.cellWidth = cw
		m.markAllStale()
	}
	m.grid.Resize(m.columns, state.GridHeight(height, false))
	if err := m.ctrl.Refresh(); err != nil {
		m.err = err
	}
}

func (m *Model) markAllStale() {
	items := m.grid.Items()
	ids := make([]media.ID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Source)
	}
	m.grid.MarkStale(ids)
}

func (m *Model) selectFirstVisible() {
	if visible := m.grid.FullyVisible(); len(visible) > 0 {
		m.grid.Select(visible[0])
	}
}

func (m Model) pageStep() int {
	rows := max(1, m.grid.Height()/cellHeight)
	return rows * cellHeight
}

func (m Model) View() string {
	var b strings.Builder
	label := "no results"
	if m.ctrl.Source() != nil {
		label = m.current.Query.Label()
	}
	b.WriteString(m.theme.Title.Render("Gallery CLI") + " " + m.theme.ModePill.Render(label) + "\n")
	if m.showHelp {
		b.WriteString("Help (? to close)\n\n")
		b.WriteString(view.Help())
		b.WriteString("\n\n")
		b.WriteString(m.messagePanel())
		b.WriteString("\n")
		b.WriteString(m.footer())
		b.WriteString("\n")
		return b.String()
	}
	if m.searching {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(view.Toolbar(m.verbose))
	}
	b.WriteString("\n\n")

	st := m.ctrl.Status()
	switch {
	case m.grid.Len() > 0:
		b.WriteString(view.RenderGrid(view.GridInput{
			Cells:      m.grid.Cells(),
			CellWidth:  m.cellWidth,
			CellHeight: cellHeight,
			ScrollTop:  m.grid.ScrollTop(),
			Height:     m.grid.Height(),
			Body:       m.cellBody,
		}, m.theme))
	case st.Loading:
		b.WriteString("Loading results...")
	case st.AtEnd:
		b.WriteString("No results.")
	default:
		b.WriteString("Nothing to show yet.")
	}
	b.WriteString("\n")
	if sel, ok := m.grid.Selected(); ok {
		info, known := m.cache.InfoSync(sel.Source)
		b.WriteString(view.DetailLine(sel, info, known, max(20, m.width), m.theme))
	}
	b.WriteString("\n")
	b.WriteString(m.messagePanel())
	b.WriteString("\n")
	b.WriteString(m.footer())
	b.WriteString("\n")
	return b.String()
}

// cellBody returns the cached body of a cell, rendering it again when the
// cell is stale.
func (m Model) cellBody(c viewport.Cell) string {
	if c.State != nil && !c.State.Stale {
		return c.State.Text
	}
	info, known := m.cache.InfoSync(c.Item.Source)
	text := view.CellText(view.CellInput{
		Item:     c.Item,
		Info:     info,
		Known:    known,
		Expanded: known && info.PageCount > 1 && m.ctrl.IsExpanded(c.Item.Source),
		Width:    m.cellWidth - 2,
	}, m.theme)
	if c.State != nil {
		c.State.Text = text
		c.State.Stale = false
	}
	return text
}

func (m Model) messagePanel() string {
	warning := ""
	if m.err != nil {
		warning = m.err.Error()
	}
	return view.Message(m.ctrl.Status().Loading, m.err != nil, m.status, warning, m.theme)
}

func (m Model) footer() string {
	st := m.ctrl.Status()
	label := ""
	if m.ctrl.Source() != nil {
		label = m.current.Query.Label()
	}
	return view.Footer(view.FooterInput{
		Label:           label,
		Items:           st.Items,
		Rendered:        st.Rendered,
		Pages:           st.Pages,
		AtEnd:           st.AtEnd,
		CanLoadPrevious: st.CanLoadPrevious,
		ExpandByDefault: m.ctrl.ExpandByDefault(),
		HistoryDepth:    m.history.Depth(),
	}, m.theme)
}
