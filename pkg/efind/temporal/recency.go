package temporal

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"

	"github.com/nainya/efind/pkg/efind/efindtypes"
)

// WriteRecencyList is the write-control list W: a FIFO bounded to
// flushing_unit_size * write_tc_size entries (§8 invariant 8),
// appended to once per flushed page (§4.7 step 6b).
type WriteRecencyList struct {
	capacity int
	queue    *doublylinkedlist.List
}

// NewWriteRecencyList returns an empty W sized from the configured
// flushing unit size and write temporal-control size.
func NewWriteRecencyList(flushingUnitSize, writeTCSize int) *WriteRecencyList {
	return &WriteRecencyList{capacity: flushingUnitSize * writeTCSize, queue: doublylinkedlist.New()}
}

// Append records p as just flushed, evicting the oldest entry if the
// list is now over capacity.
func (w *WriteRecencyList) Append(p efindtypes.PageId) {
	w.queue.Add(p)
	for w.capacity > 0 && w.queue.Size() > w.capacity {
		w.queue.Remove(0)
	}
}

// Len returns the current recency-list size.
func (w *WriteRecencyList) Len() int { return w.queue.Size() }

// Snapshot returns a defensive copy of W's current contents, for the
// write-control filter to classify candidates against.
func (w *WriteRecencyList) Snapshot() []efindtypes.PageId {
	values := w.queue.Values()
	out := make([]efindtypes.PageId, len(values))
	for i, v := range values {
		out[i] = v.(efindtypes.PageId)
	}
	return out
}
