package view

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	tuitheme "github.com/glabrego/gallery-cli/internal/tui/theme"
)

func Toolbar(verbose bool) string {
	if verbose {
		return "h/j/k/l/arrows: move | pgup/pgdown: page | g: top | e: expand item | E: expand all | p: previous page | o: open | y: copy URL | enter: open user | /: search | b: back | r: retry | ?: help | q: quit"
	}
	return "hjkl move | e expand | p previous | o open | / search | b back | ? help"
}

// FooterInput is the state summarized in the footer.
type FooterInput struct {
	Label           string
	Items           int
	Rendered        int
	Pages           int
	AtEnd           bool
	CanLoadPrevious bool
	ExpandByDefault bool
	HistoryDepth    int
}

func Footer(in FooterInput, th tuitheme.Theme) string {
	parts := []string{
		th.MetaValue.Render(in.Label),
		th.Count.Render(humanize.Comma(int64(in.Items))) + " " + th.MetaLabel.Render("items"),
		th.MetaLabel.Render("rendered") + " " + th.MetaValue.Render(humanize.Comma(int64(in.Rendered))),
		th.MetaLabel.Render("pages") + " " + th.MetaValue.Render(fmt.Sprintf("%d", in.Pages)),
	}
	if in.AtEnd {
		parts = append(parts, th.MetaValue.Render("end of results"))
	}
	if in.CanLoadPrevious {
		parts = append(parts, th.MetaValue.Render("earlier pages (p)"))
	}
	if in.ExpandByDefault {
		parts = append(parts, th.MetaLabel.Render("expand")+" "+th.MetaValue.Render("all"))
	}
	if in.HistoryDepth > 0 {
		parts = append(parts, th.MetaLabel.Render("back")+" "+th.MetaValue.Render(fmt.Sprintf("%d", in.HistoryDepth)))
	}
	return strings.Join(parts, " • ")
}

func Message(loading bool, hasWarning bool, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	if loading {
		state = "loading"
	}
	if hasWarning {
		state = "warning"
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if hasWarning {
		main = warning
	}
	stateLabel := th.StateIdle.Render("state")
	switch state {
	case "warning":
		stateLabel = th.StateWarn.Render("state")
	case "loading":
		stateLabel = th.StateLoad.Render("state")
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}

func Help() string {
	lines := []string{
		"Navigation:",
		"  h/j/k/l or arrows move the selection, pgup/pgdown scroll a screen, g jumps to the top",
		"Expansion:",
		"  e expands or collapses the selected item, E toggles expanding every multi-part item",
		"Results:",
		"  p loads the page before the first loaded one, r retries failed pages",
		"  / starts a new search, enter on a user opens their bookmarks, b goes back",
		"Actions:",
		"  o opens the selected item in the browser, y copies its URL",
	}
	return strings.Join(lines, "\n")
}
