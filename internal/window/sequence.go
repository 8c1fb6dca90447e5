package window

import (
	"errors"
	"fmt"

	"github.com/glabrego/gallery-cli/internal/media"
)

// ErrDuplicateItem means a display item appears twice in the master
// sequence. The render pass must stop; the data source handed out an id
// that bypassed page deduplication.
var ErrDuplicateItem = errors.New("duplicate display item")

// Sequence is the full ordered list of display items with a position lookup.
type Sequence struct {
	items []media.Item
	pos   map[media.Item]int
}

func NewSequence(items []media.Item) (*Sequence, error) {
	pos := make(map[media.Item]int, len(items))
	for i, it := range items {
		if prev, ok := pos[it]; ok {
			return nil, fmt.Errorf("%w: %s at %d and %d", ErrDuplicateItem, it, prev, i)
		}
		pos[it] = i
	}
	return &Sequence{items: items, pos: pos}, nil
}

func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *Sequence) At(i int) media.Item {
	return s.items[i]
}

// Index returns the position of item, or -1.
func (s *Sequence) Index(item media.Item) int {
	if s == nil {
		return -1
	}
	if i, ok := s.pos[item]; ok {
		return i
	}
	return -1
}

func (s *Sequence) Slice(r Range) []media.Item {
	if s == nil || r.Empty() {
		return nil
	}
	return append([]media.Item(nil), s.items[r.Start:r.End]...)
}

// Range is a half-open interval [Start, End) of sequence positions.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

func (r Range) Empty() bool {
	return r.Len() == 0
}

func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}
