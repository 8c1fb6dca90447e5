package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title     lipgloss.Style
	ModePill  lipgloss.Style
	Count     lipgloss.Style
	MetaLabel lipgloss.Style
	MetaValue lipgloss.Style
	StateIdle lipgloss.Style
	StateWarn lipgloss.Style
	StateLoad lipgloss.Style

	Cell         lipgloss.Style
	CellActive   lipgloss.Style
	CellTitle    lipgloss.Style
	CellAuthor   lipgloss.Style
	CellPart     lipgloss.Style
	CellPending  lipgloss.Style
	CellCollapse lipgloss.Style
}

// CellKind selects how a cell body is styled.
type CellKind int

const (
	CellPlain CellKind = iota
	// CellMulti is a collapsed item with more than one part.
	CellMulti
	// CellPartOf is one part of an expanded item.
	CellPartOf
	// CellUnknown has no metadata yet.
	CellUnknown
)

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")
	cpSurface2 := lipgloss.Color("#585b70")

	return Theme{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:  lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Count:     lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		MetaLabel: lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue: lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle: lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn: lipgloss.NewStyle().Foreground(cpRed),
		StateLoad: lipgloss.NewStyle().Foreground(cpPeach),

		Cell: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cpSurface2),
		CellActive: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cpMauve),
		CellTitle:    lipgloss.NewStyle().Bold(true).Foreground(cpText),
		CellAuthor:   lipgloss.NewStyle().Foreground(cpSubtext0),
		CellPart:     lipgloss.NewStyle().Foreground(cpTeal),
		CellPending:  lipgloss.NewStyle().Italic(true).Foreground(cpOverlay1),
		CellCollapse: lipgloss.NewStyle().Foreground(cpLavender),
	}
}

// StyleCellTitle colours a cell's title line by what the cell shows.
func (t Theme) StyleCellTitle(kind CellKind, title string) string {
	if title == "" {
		return title
	}
	switch kind {
	case CellUnknown:
		return t.CellPending.Render(title)
	case CellPartOf:
		return t.CellPart.Render(title)
	case CellMulti:
		return t.CellCollapse.Render(title)
	default:
		return t.CellTitle.Render(title)
	}
}

// Frame draws the cell border, highlighted when active. width and height
// are the outer size including the border.
func (t Theme) Frame(active bool, width, height int, body string) string {
	style := t.Cell
	if active {
		style = t.CellActive
	}
	return style.Width(max(0, width-2)).Height(max(0, height-2)).MaxHeight(height).Render(body)
}
