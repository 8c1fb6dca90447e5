package expand

import (
	"strings"

	"github.com/glabrego/gallery-cli/internal/media"
)

// InfoSource is the non-blocking half of the metadata cache.
type InfoSource interface {
	InfoSync(id media.ID) (media.Info, bool)
}

// MuteList hides authors and tags. Muted items are never expanded.
type MuteList struct {
	Tags    map[string]bool
	Authors map[string]bool
}

func NewMuteList(tags, authors []string) MuteList {
	m := MuteList{Tags: make(map[string]bool, len(tags)), Authors: make(map[string]bool, len(authors))}
	for _, tag := range tags {
		m.Tags[strings.ToLower(strings.TrimSpace(tag))] = true
	}
	for _, a := range authors {
		m.Authors[strings.TrimSpace(a)] = true
	}
	return m
}

func (m MuteList) IsMuted(info media.Info) bool {
	if info.AuthorID != "" && m.Authors[info.AuthorID] {
		return true
	}
	for _, tag := range info.Tags {
		if m.Tags[strings.ToLower(tag)] {
			return true
		}
	}
	return false
}

// Resolver decides whether a multi-part source id is shown as one item per
// part. Answers are memoized until something they depend on changes.
type Resolver struct {
	info            InfoSource
	mutes           MuteList
	overrides       map[media.ID]bool
	expandByDefault bool
	includesParts   bool
	cache           map[media.ID]bool
}

func NewResolver(info InfoSource) *Resolver {
	return &Resolver{
		info:      info,
		overrides: make(map[media.ID]bool),
		cache:     make(map[media.ID]bool),
	}
}

// SetIncludesParts marks the current data source as already listing one id
// per part, which disables expansion entirely.
func (r *Resolver) SetIncludesParts(v bool) {
	if r.includesParts == v {
		return
	}
	r.includesParts = v
	r.invalidateAll()
}

func (r *Resolver) IsExpanded(id media.ID) bool {
	if v, ok := r.cache[id]; ok {
		return v
	}
	v := r.resolve(id)
	r.cache[id] = v
	return v
}

func (r *Resolver) resolve(id media.ID) bool {
	if r.includesParts || id.Kind != media.KindIllust {
		return false
	}
	if v, ok := r.overrides[id]; ok {
		return v
	}
	info, known := r.info.InfoSync(id)
	if known && r.mutes.IsMuted(info) {
		return false
	}
	if !r.expandByDefault {
		return false
	}
	if !known || info.PageCount <= 1 {
		return false
	}
	return true
}

// Expand returns the display items for id.
func (r *Resolver) Expand(id media.ID) []media.Item {
	if !r.IsExpanded(id) {
		return []media.Item{{Source: id}}
	}
	info, ok := r.info.InfoSync(id)
	if !ok || info.PageCount <= 1 {
		return []media.Item{{Source: id}}
	}
	out := make([]media.Item, info.PageCount)
	for i := range out {
		out[i] = media.Item{Source: id, Part: i}
	}
	return out
}

func (r *Resolver) SetOverride(id media.ID, expanded bool) {
	r.overrides[id] = expanded
	delete(r.cache, id)
}

func (r *Resolver) ClearOverride(id media.ID) {
	delete(r.overrides, id)
	delete(r.cache, id)
}

// Toggle flips the current state of id and records it as an override.
func (r *Resolver) Toggle(id media.ID) bool {
	next := !r.IsExpanded(id)
	r.SetOverride(id, next)
	return next
}

func (r *Resolver) Overrides() map[media.ID]bool {
	out := make(map[media.ID]bool, len(r.overrides))
	for k, v := range r.overrides {
		out[k] = v
	}
	return out
}

// ReplaceOverrides swaps the override map, used when restoring history.
func (r *Resolver) ReplaceOverrides(overrides map[media.ID]bool) {
	r.overrides = make(map[media.ID]bool, len(overrides))
	for k, v := range overrides {
		r.overrides[k] = v
	}
	r.invalidateAll()
}

func (r *Resolver) ExpandByDefault() bool {
	return r.expandByDefault
}

func (r *Resolver) SetExpandByDefault(v bool) {
	if r.expandByDefault == v {
		return
	}
	r.expandByDefault = v
	r.invalidateAll()
}

func (r *Resolver) SetMutes(m MuteList) {
	r.mutes = m
	r.invalidateAll()
}

// InfoArrived drops memoized answers for ids whose metadata just loaded.
func (r *Resolver) InfoArrived(ids ...media.ID) {
	for _, id := range ids {
		delete(r.cache, id)
	}
}

func (r *Resolver) invalidateAll() {
	r.cache = make(map[media.ID]bool)
}
