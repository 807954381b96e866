// Package modset implements the modification set (C2): an ordered
// multiset of per-entry deltas keyed by entry identity, with fast
// insert, in-order iteration, and deterministic replacement on repeat
// key (§4.2). Backed by a red-black tree rather than a hand-rolled one,
// per §9 design notes: no policy in eFIND depends on balancing, only on
// ordered iteration, so any ordered associative container will do.
package modset

import (
	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
)

// EntryDelta is one buffered modification. eFIND stores deltas as
// replacement entries rather than diffs: Entry carries the full new
// entry payload.
type EntryDelta struct {
	Key   efindtypes.EntryKey
	Entry page.Entry
}

func (d EntryDelta) size() int {
	return d.Entry.Size()
}

// ModSet holds the deltas for one buffered page, ordered by entry key.
type ModSet struct {
	tree *redblacktree.Tree
}

func keyComparator(a, b interface{}) int {
	ka, kb := a.(efindtypes.EntryKey), b.(efindtypes.EntryKey)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

// New returns an empty ModSet.
func New() *ModSet {
	return &ModSet{tree: redblacktree.NewWith(keyComparator)}
}

// Insert installs delta, replacing any existing delta for the same key
// (the later insertion supersedes the earlier). It returns the net
// bytes added to the owning WriteEntry's accounted size: the new
// delta's size minus any superseded delta's size.
func (m *ModSet) Insert(delta EntryDelta) int {
	added := delta.size()
	if old, found := m.tree.Get(delta.Key); found {
		added -= old.(EntryDelta).size()
	}
	m.tree.Put(delta.Key, delta)
	return added
}

// Get returns the delta for key, if present.
func (m *ModSet) Get(key efindtypes.EntryKey) (EntryDelta, bool) {
	v, found := m.tree.Get(key)
	if !found {
		return EntryDelta{}, false
	}
	return v.(EntryDelta), true
}

// Remove deletes the delta for key, if present, returning the bytes it
// freed.
func (m *ModSet) Remove(key efindtypes.EntryKey) int {
	v, found := m.tree.Get(key)
	if !found {
		return 0
	}
	m.tree.Remove(key)
	return v.(EntryDelta).size()
}

// Len returns the number of buffered deltas.
func (m *ModSet) Len() int { return m.tree.Size() }

// Each calls fn for every delta, in key order.
func (m *ModSet) Each(fn func(EntryDelta)) {
	it := m.tree.Iterator()
	for it.Next() {
		fn(it.Value().(EntryDelta))
	}
}

// DestroyAll clears the set and returns the total bytes freed.
func (m *ModSet) DestroyAll() int {
	total := 0
	m.Each(func(d EntryDelta) { total += d.size() })
	m.tree.Clear()
	return total
}
