package state

import "github.com/glabrego/gallery-cli/internal/app"

// Entry is one result list the user has visited. Key names the saved
// navigation state for it.
type Entry struct {
	Key   string
	Query app.Query
}

// History is the back stack of result lists.
type History struct {
	entries []Entry
	limit   int
}

// NewHistory keeps at most limit entries; the oldest are dropped first. A
// limit of zero or less keeps everything.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) Push(e Entry) {
	h.entries = append(h.entries, e)
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = append([]Entry(nil), h.entries[len(h.entries)-h.limit:]...)
	}
}

func (h *History) Pop() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	last := h.entries[len(h.entries)-1]
	h.entries = h.entries[:len(h.entries)-1]
	return last, true
}

func (h *History) Depth() int {
	return len(h.entries)
}

func PageStep(height int, hasStatus bool) int {
	if height <= 0 {
		return 10
	}
	headerLines := 6
	if hasStatus {
		headerLines += 2
	}
	step := height - headerLines
	if step < 3 {
		step = 3
	}
	return step
}

// GridHeight is the number of terminal lines left for the grid once the
// surrounding chrome is drawn.
func GridHeight(height int, hasStatus bool) int {
	return PageStep(height, hasStatus)
}

// CellWidth splits width evenly between columns.
func CellWidth(width, columns int) int {
	if columns <= 0 {
		columns = 1
	}
	w := width / columns
	if w < 6 {
		w = 6
	}
	return w
}
