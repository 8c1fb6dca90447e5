package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	KindIllust Kind = "illust"
	KindUser   Kind = "user"
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

var ErrInvalidID = errors.New("invalid media id")

func (k Kind) valid() bool {
	switch k {
	case KindIllust, KindUser, KindFolder, KindFile:
		return true
	}
	return false
}

// ID identifies one source entry returned by a data source. The zero value
// is not a valid id.
type ID struct {
	Kind  Kind
	Value string
}

func NewIllust(value string) ID {
	return ID{Kind: KindIllust, Value: value}
}

func (id ID) IsZero() bool {
	return id.Kind == "" && id.Value == ""
}

func (id ID) String() string {
	return string(id.Kind) + ":" + id.Value
}

func (id ID) MarshalText() ([]byte, error) {
	if id.IsZero() {
		return nil, nil
	}
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID decodes "kind:value". A bare numeric value is treated as an illust.
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ID{}, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	kind, value, ok := strings.Cut(raw, ":")
	if !ok {
		if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
			return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, raw)
		}
		return NewIllust(raw), nil
	}
	if !Kind(kind).valid() {
		return ID{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidID, kind)
	}
	if value == "" || strings.Contains(value, ":") {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return ID{Kind: Kind(kind), Value: value}, nil
}

// Item is one rendered unit: a source id, or one part of an expanded
// multi-part source id.
type Item struct {
	Source ID
	Part   int
}

func (it Item) String() string {
	return it.Source.String() + ":" + strconv.Itoa(it.Part)
}

func (it Item) MarshalText() ([]byte, error) {
	return []byte(it.String()), nil
}

func (it *Item) UnmarshalText(text []byte) error {
	parsed, err := ParseItem(string(text))
	if err != nil {
		return err
	}
	*it = parsed
	return nil
}

// ParseItem decodes "kind:value:part". The part may be omitted and defaults to 0.
func ParseItem(raw string) (Item, error) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, ":")
	if idx > 0 && strings.Count(raw, ":") == 2 {
		part, err := strconv.Atoi(raw[idx+1:])
		if err != nil || part < 0 {
			return Item{}, fmt.Errorf("%w: bad part in %q", ErrInvalidID, raw)
		}
		id, err := ParseID(raw[:idx])
		if err != nil {
			return Item{}, err
		}
		return Item{Source: id, Part: part}, nil
	}
	id, err := ParseID(raw)
	if err != nil {
		return Item{}, err
	}
	return Item{Source: id}, nil
}

func ParseIDs(raw []string) ([]ID, error) {
	out := make([]ID, 0, len(raw))
	for _, r := range raw {
		id, err := ParseID(r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Info is the subset of item metadata the browser needs.
type Info struct {
	ID        ID
	Title     string
	Author    string
	AuthorID  string
	Tags      []string
	PageCount int
	Width     int
	Height    int
	URL       string
}

// PartsKnown reports whether the page count has been fetched.
func (i Info) PartsKnown() bool {
	return i.PageCount > 0
}
