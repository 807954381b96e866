package flush

import (
	"sort"

	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/writebuffer"
)

// FlushResult reports what one Flush call did, for callers (and tests)
// that want to assert on the chosen unit.
type FlushResult struct {
	PageIDs []efindtypes.PageId
	Bytes   int
}

// Flush picks and writes exactly one flushing unit (§4.7). It returns
// a nil result with no error when the write buffer is empty.
func (m *Manager) Flush() (*FlushResult, error) {
	return m.flush("explicit")
}

func (m *Manager) flush(trigger string) (*FlushResult, error) {
	all := m.candidates()
	if len(all) == 0 {
		return nil, nil
	}

	scoredAll := m.score(all)
	filtered := m.applyWriteFilter(scoredAll)
	if len(filtered) == 0 {
		filtered = scoredAll
	}

	groups := m.buildGroups(filtered)
	chosen := selectGroup(groups)

	return m.materializeAndWrite(chosen.members, trigger)
}

// FlushOnce implements writebuffer.Flusher: the write buffer's
// backpressure callback, invoked exactly once per overflow.
func (m *Manager) FlushOnce() error {
	_, err := m.flush("overflow")
	return err
}

// FlushAll writes every buffered page, in possibly several contiguous
// I/O batches, and leaves the write buffer empty (§4.7: "the only
// operation allowed during shutdown/checkpointing").
func (m *Manager) FlushAll() (*FlushResult, error) {
	var all []writebuffer.Candidate
	m.wb.Each(func(c writebuffer.Candidate) { all = append(all, c) })
	if len(all) == 0 {
		return nil, nil
	}

	scoredAll := m.score(all)
	sort.Slice(scoredAll, func(i, j int) bool { return scoredAll[i].pageID < scoredAll[j].pageID })

	return m.materializeAndWrite(scoredAll, "shutdown")
}
