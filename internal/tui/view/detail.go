package view

import (
	"fmt"
	"strings"

	"github.com/glabrego/gallery-cli/internal/media"
	tuitheme "github.com/glabrego/gallery-cli/internal/tui/theme"
)

// DetailLine summarizes the selected item on one line.
func DetailLine(item media.Item, info media.Info, known bool, width int, th tuitheme.Theme) string {
	if !known {
		return th.MetaLabel.Render(Truncate(item.String()+" (loading details)", width))
	}
	parts := []string{info.Title}
	if info.Author != "" {
		parts = append(parts, "by "+info.Author)
	}
	if info.Width > 0 && info.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", info.Width, info.Height))
	}
	if len(info.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(info.Tags, " #"))
	}
	return th.MetaValue.Render(Truncate(strings.Join(parts, " · "), width))
}
