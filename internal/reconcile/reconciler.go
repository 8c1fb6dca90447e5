// Package reconcile turns one rendered ordered list into another while
// touching only the edges that differ.
package reconcile

import "github.com/glabrego/gallery-cli/internal/media"

// Target is the render surface. Create builds detached render state for an
// item; InsertBefore and Append attach it. Detach removes an item from the
// visible order without discarding its state; Destroy discards it.
type Target interface {
	Create(item media.Item)
	Destroy(item media.Item)
	Detach(item media.Item)
	InsertBefore(item, ref media.Item)
	Append(item media.Item)
}

type Stats struct {
	Created   int
	Reused    int
	Detached  int
	Destroyed int
	Kept      int
}

type Reconciler struct {
	target   Target
	rendered []media.Item

	// detached items keep their render state for one more Apply in case the
	// same identity comes back.
	cache      map[media.Item]int
	cacheOrder []media.Item
	gen        int
}

func New(target Target) *Reconciler {
	return &Reconciler{target: target, cache: make(map[media.Item]int)}
}

// Rendered returns the current render order.
func (r *Reconciler) Rendered() []media.Item {
	return append([]media.Item(nil), r.rendered...)
}

// Apply makes the rendered order equal next. Identities present in both the
// old and new lists are never destroyed and recreated.
func (r *Reconciler) Apply(next []media.Item) Stats {
	r.gen++
	var st Stats

	oldStart, newStart, length := matchingRun(r.rendered, next)

	if length == 0 {
		for _, it := range r.rendered {
			r.detach(it, &st)
		}
		for _, it := range next {
			r.attach(it, &st)
			r.target.Append(it)
		}
	} else {
		for _, it := range r.rendered[:oldStart] {
			r.detach(it, &st)
		}
		for _, it := range r.rendered[oldStart+length:] {
			r.detach(it, &st)
		}
		st.Kept = length

		ref := next[newStart]
		for i := newStart - 1; i >= 0; i-- {
			r.attach(next[i], &st)
			r.target.InsertBefore(next[i], ref)
			ref = next[i]
		}
		for _, it := range next[newStart+length:] {
			r.attach(it, &st)
			r.target.Append(it)
		}
	}

	r.rendered = append(r.rendered[:0:0], next...)
	r.expire(&st)
	return st
}

// Flush destroys every cached detached item.
func (r *Reconciler) Flush() int {
	n := 0
	for _, it := range r.cacheOrder {
		if _, ok := r.cache[it]; !ok {
			continue
		}
		r.target.Destroy(it)
		delete(r.cache, it)
		n++
	}
	r.cacheOrder = r.cacheOrder[:0]
	return n
}

// Reset detaches and destroys everything, used when the data source changes.
func (r *Reconciler) Reset() {
	for _, it := range r.rendered {
		r.target.Detach(it)
		r.target.Destroy(it)
	}
	r.rendered = nil
	r.Flush()
}

func (r *Reconciler) detach(it media.Item, st *Stats) {
	r.target.Detach(it)
	r.cache[it] = r.gen
	r.cacheOrder = append(r.cacheOrder, it)
	st.Detached++
}

func (r *Reconciler) attach(it media.Item, st *Stats) {
	if _, ok := r.cache[it]; ok {
		delete(r.cache, it)
		st.Reused++
		return
	}
	r.target.Create(it)
	st.Created++
}

func (r *Reconciler) expire(st *Stats) {
	kept := r.cacheOrder[:0]
	for _, it := range r.cacheOrder {
		gen, ok := r.cache[it]
		if !ok {
			continue
		}
		if gen < r.gen {
			r.target.Destroy(it)
			delete(r.cache, it)
			st.Destroyed++
			continue
		}
		kept = append(kept, it)
	}
	r.cacheOrder = kept
}

// matchingRun finds the longest run of items that appear consecutively and
// in the same order in both lists. Items are unique within each list, so a
// run can be skipped past once measured.
func matchingRun(old, next []media.Item) (int, int, int) {
	pos := make(map[media.Item]int, len(next))
	for i, it := range next {
		pos[it] = i
	}
	bestOld, bestNew, bestLen := 0, 0, 0
	for i := 0; i < len(old); {
		j, ok := pos[old[i]]
		if !ok {
			i++
			continue
		}
		k := 1
		for i+k < len(old) && j+k < len(next) && old[i+k] == next[j+k] {
			k++
		}
		if k > bestLen {
			bestOld, bestNew, bestLen = i, j, k
		}
		i += k
	}
	return bestOld, bestNew, bestLen
}
