// Package temporal implements temporal control (C6): the read ghost
// list R that doubles as S2Q/Full2Q's out-region, and the write
// recency list W that drives the write-side flushing filter (§4.6).
package temporal

import (
	"math"

	"github.com/emirpasic/gods/lists/doublylinkedlist"

	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
	"github.com/nainya/efind/pkg/efind/readbuffer"
)

// SizeSource reports the write and read buffers' current occupancy,
// inputs to the read ghost list's dynamic bound (§8 invariant 7).
type SizeSource interface {
	WriteBufferLen() int
	ReadBufferLen() int
}

// ReadGhostList is the read-control list R: a FIFO-bounded membership
// set, re-bounded on every insertion to
// max(MinGhostListSize, ceil((|writebuf|+|readbuf|)*read_perc/100)).
// It implements readbuffer.GhostList, serving double duty as S2Q and
// Full2Q's A1out region. The FIFO order is a gods doublylinkedlist
// rather than a hand-rolled slice/ring buffer (§9 design notes: no
// policy here depends on anything beyond append, pop-oldest, and
// remove-by-value).
type ReadGhostList struct {
	percent float64
	sizes   SizeSource
	queue   *doublylinkedlist.List
	present map[efindtypes.PageId]bool
}

// NewReadGhostList returns an empty read ghost list bounded against a
// percentage of the combined write+read buffer occupancy.
func NewReadGhostList(percent float64, sizes SizeSource) *ReadGhostList {
	return &ReadGhostList{
		percent: percent,
		sizes:   sizes,
		queue:   doublylinkedlist.New(),
		present: make(map[efindtypes.PageId]bool),
	}
}

func (r *ReadGhostList) bound() int {
	total := 0
	if r.sizes != nil {
		total = r.sizes.WriteBufferLen() + r.sizes.ReadBufferLen()
	}
	b := int(math.Ceil(float64(total) * r.percent / 100))
	if b < efindtypes.MinGhostListSize {
		b = efindtypes.MinGhostListSize
	}
	return b
}

// Contains reports whether p is a ghost member.
func (r *ReadGhostList) Contains(p efindtypes.PageId) bool { return r.present[p] }

// Add inserts p if absent, then evicts FIFO-oldest members until the
// list is back within its recomputed bound (§4.6 add_read).
func (r *ReadGhostList) Add(p efindtypes.PageId) {
	if r.present[p] {
		return
	}
	r.queue.Add(p)
	r.present[p] = true
	bound := r.bound()
	for r.queue.Size() > bound {
		oldest, _ := r.queue.Get(0)
		r.queue.Remove(0)
		delete(r.present, oldest.(efindtypes.PageId))
	}
}

// Remove unlinks p without counting it as an eviction, used by 2Q's
// ghost-to-Am promotion (§4.6 remove_read).
func (r *ReadGhostList) Remove(p efindtypes.PageId) {
	if !r.present[p] {
		return
	}
	delete(r.present, p)
	if idx := r.queue.IndexOf(p); idx >= 0 {
		r.queue.Remove(idx)
	}
}

// Len returns the current ghost-list membership count.
func (r *ReadGhostList) Len() int { return r.queue.Size() }

// ForceIntoReadBufferOnFlush implements force_into_read_buffer_on_flush:
// if p is a ghost member, the just-flushed image is force-installed
// into cache, bypassing the usual first-sight gating. It reports
// whether the installation happened, so the flushing manager knows
// whether to fall back to update_if_needed (§4.7 step 6a).
func (r *ReadGhostList) ForceIntoReadBufferOnFlush(cache *readbuffer.Cache, p efindtypes.PageId, height efindtypes.Height, img *page.Page) bool {
	if !r.Contains(p) {
		return false
	}
	return cache.Put(img, p, height, true)
}
