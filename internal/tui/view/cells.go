package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/gallery-cli/internal/media"
	tuitheme "github.com/glabrego/gallery-cli/internal/tui/theme"
	"github.com/glabrego/gallery-cli/internal/viewport"
)

// CellInput is what a single cell shows.
type CellInput struct {
	Item  media.Item
	Info  media.Info
	Known bool
	// Expanded is set when Item is one part of an expanded source.
	Expanded bool
	Width    int
}

// CellText renders the body of a cell: a title line, an author line and a
// line describing the parts.
func CellText(in CellInput, th tuitheme.Theme) string {
	width := max(1, in.Width)
	kind := tuitheme.CellPlain
	title := in.Info.Title
	switch {
	case in.Item.Source.Kind == media.KindUser:
		title = "user " + in.Item.Source.Value
	case !in.Known:
		kind = tuitheme.CellUnknown
		title = in.Item.Source.String()
	case in.Expanded:
		kind = tuitheme.CellPartOf
	case in.Info.PageCount > 1:
		kind = tuitheme.CellMulti
	}
	if title == "" {
		title = in.Item.Source.String()
	}

	author := "…"
	if in.Known {
		author = in.Info.Author
	}

	var parts string
	switch {
	case in.Expanded:
		parts = fmt.Sprintf("part %d/%d", in.Item.Part+1, max(in.Info.PageCount, in.Item.Part+1))
	case in.Known && in.Info.PageCount > 1:
		parts = fmt.Sprintf("%d parts", in.Info.PageCount)
	}

	lines := []string{
		th.StyleCellTitle(kind, Truncate(title, width)),
		th.CellAuthor.Render(Truncate(author, width)),
	}
	if parts != "" {
		lines = append(lines, th.CellPart.Render(Truncate(parts, width)))
	}
	return strings.Join(lines, "\n")
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

type GridInput struct {
	Cells      []viewport.Cell
	CellWidth  int
	CellHeight int
	ScrollTop  int
	Height     int
	// Body returns the text inside a cell's frame.
	Body func(viewport.Cell) string
}

// RenderGrid draws the rows of cells and returns exactly Height lines of
// the grid starting at ScrollTop.
func RenderGrid(in GridInput, th tuitheme.Theme) string {
	if in.Height <= 0 {
		return ""
	}
	rows := make(map[int][]viewport.Cell)
	for _, c := range in.Cells {
		rows[c.Row] = append(rows[c.Row], c)
	}
	rowNums := make([]int, 0, len(rows))
	for r := range rows {
		rowNums = append(rowNums, r)
	}
	sort.Ints(rowNums)

	lines := make(map[int]string)
	for _, r := range rowNums {
		cells := rows[r]
		sort.Slice(cells, func(i, j int) bool { return cells[i].Col < cells[j].Col })
		frames := make([]string, 0, len(cells))
		for _, c := range cells {
			frames = append(frames, th.Frame(c.Selected, in.CellWidth, in.CellHeight, in.Body(c)))
		}
		rendered := strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, frames...), "\n")
		top := r * in.CellHeight
		for i := 0; i < in.CellHeight && i < len(rendered); i++ {
			lines[top+i] = rendered[i]
		}
	}

	out := make([]string, in.Height)
	for i := range out {
		out[i] = lines[in.ScrollTop+i]
	}
	return strings.Join(out, "\n")
}
