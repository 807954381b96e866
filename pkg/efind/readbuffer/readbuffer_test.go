package readbuffer_test

import (
	"testing"

	"github.com/nainya/efind/pkg/efind/efindtest"
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
	"github.com/nainya/efind/pkg/efind/readbuffer"
)

// fakeGhost is a minimal GhostList stub standing in for temporal
// control's read ghost list, which readbuffer depends on only through
// the GhostList interface.
type fakeGhost struct {
	ids map[efindtypes.PageId]bool
}

func newFakeGhost() *fakeGhost { return &fakeGhost{ids: make(map[efindtypes.PageId]bool)} }

func (g *fakeGhost) Contains(id efindtypes.PageId) bool { return g.ids[id] }
func (g *fakeGhost) Remove(id efindtypes.PageId)        { delete(g.ids, id) }
func (g *fakeGhost) Add(id efindtypes.PageId)           { g.ids[id] = true }

func seededPage(id efindtypes.PageId, height efindtypes.Height, payloadBytes int) *page.Page {
	p := page.New(id, height, efindtypes.IndexRTree)
	p.Put(page.Entry{
		Key:     "k",
		Bbox:    &efindtypes.Bbox{Low: []float64{0, 0}, High: []float64{1, 1}},
		Payload: make([]byte, payloadBytes),
	})
	return p
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := readbuffer.New(efindtypes.ReadPolicyLRU, 3*entrySizeFor(64))
	adapter := efindtest.NewFakeAdapter(efindtypes.IndexRTree)
	for _, id := range []efindtypes.PageId{1, 2, 3} {
		adapter.Seed(seededPage(id, 0, 64))
		if _, err := c.Get(id, 0, adapter); err != nil {
			t.Fatalf("get %d: %v", id, err)
		}
	}
	// touch 1, making 2 the LRU victim.
	if _, err := c.Get(1, 0, adapter); err != nil {
		t.Fatal(err)
	}
	adapter.Seed(seededPage(4, 0, 64))
	if _, err := c.Get(4, 0, adapter); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
}

func TestHLRURetainsStaleRootOverRecency(t *testing.T) {
	c := readbuffer.New(efindtypes.ReadPolicyHLRU, 2*entrySizeFor(64))
	c.SetTreeHeight(1)
	adapter := efindtest.NewFakeAdapter(efindtypes.IndexRTree)

	root := seededPage(1, 5, 64) // height 5 > current tree height 1: stale root
	adapter.Seed(root)
	if _, err := c.Get(1, 5, adapter); err != nil {
		t.Fatal(err)
	}
	leaf := seededPage(2, 0, 64)
	adapter.Seed(leaf)
	if _, err := c.Get(2, 0, adapter); err != nil {
		t.Fatal(err)
	}

	// a third candidate at height 0 should evict the leaf (2), not the
	// stale root (1), even though the root is the older entry.
	adapter.Seed(seededPage(3, 0, 64))
	if _, err := c.Get(3, 0, adapter); err != nil {
		t.Fatal(err)
	}

	missesBefore := adapter.Misses
	if _, err := c.Get(1, 5, adapter); err != nil {
		t.Fatal(err)
	}
	if adapter.Misses != missesBefore {
		t.Fatal("stale root was evicted, want retained as a hit")
	}
}

func TestS2QMissThenGhostThenAdmit(t *testing.T) {
	ghost := newFakeGhost()
	c := readbuffer.New(efindtypes.ReadPolicyS2Q, 2*entrySizeFor(64), readbuffer.WithGhostList(ghost))
	adapter := efindtest.NewFakeAdapter(efindtypes.IndexRTree)
	adapter.Seed(seededPage(1, 0, 64))

	if _, err := c.Get(1, 0, adapter); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Fatalf("first sight should not admit into Am, len = %d", c.Len())
	}
	if !ghost.Contains(1) {
		t.Fatal("first sight should enter the ghost list")
	}

	if _, err := c.Get(1, 0, adapter); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Fatalf("second sight should admit into Am, len = %d", c.Len())
	}
	if ghost.Contains(1) {
		t.Fatal("ghost membership should be cleared on admission")
	}
}

func TestFull2QA1inOverflowsToGhostThenPromotes(t *testing.T) {
	ghost := newFakeGhost()
	unit := entrySizeFor(64)
	c := readbuffer.New(efindtypes.ReadPolicyFull2Q, 4*unit,
		readbuffer.WithGhostList(ghost),
		readbuffer.WithA1InPercent(50, unit))
	adapter := efindtest.NewFakeAdapter(efindtypes.IndexRTree)

	for _, id := range []efindtypes.PageId{1, 2, 3} {
		adapter.Seed(seededPage(id, 0, 64))
		if _, err := c.Get(id, 0, adapter); err != nil {
			t.Fatal(err)
		}
	}
	if !ghost.Contains(1) {
		t.Fatal("A1in overflow should push oldest entry into the ghost list")
	}

	if _, err := c.Get(1, 0, adapter); err != nil {
		t.Fatal(err)
	}
	if ghost.Contains(1) {
		t.Fatal("re-seeing a ghost id should clear its membership on Am promotion")
	}
}

func TestPutRefusesEntryLargerThanCapacity(t *testing.T) {
	c := readbuffer.New(efindtypes.ReadPolicyLRU, 32)
	big := seededPage(1, 0, 4096)
	if c.Put(big, 1, 0, false) {
		t.Fatal("want refusal for an entry larger than capacity")
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0 after refusal", c.Len())
	}
}

func TestUpdateIfNeededRefreshesWithoutAdmittingNewID(t *testing.T) {
	c := readbuffer.New(efindtypes.ReadPolicyLRU, 4*entrySizeFor(64))
	adapter := efindtest.NewFakeAdapter(efindtypes.IndexRTree)
	adapter.Seed(seededPage(1, 0, 64))
	if _, err := c.Get(1, 0, adapter); err != nil {
		t.Fatal(err)
	}

	c.UpdateIfNeeded(2, 0, seededPage(2, 0, 64))
	if c.Len() != 1 {
		t.Fatalf("UpdateIfNeeded on a non-resident id should be a no-op, len = %d", c.Len())
	}

	refreshed := seededPage(1, 0, 128)
	c.UpdateIfNeeded(1, 0, refreshed)
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1 after in-place refresh", c.Len())
	}
}

// entrySizeFor returns the byte budget a cache needs to hold exactly
// one seededPage(..., payloadBytes) entry, mirroring readbuffer's
// private entrySize accounting (fixed overhead + page.Size()).
func entrySizeFor(payloadBytes int) int {
	const fixedOverhead = 24 // readbuffer's per-entry bookkeeping overhead
	const entryFixed = 16    // page.Entry's fixed fields
	const bboxBytes = 32     // 2 dims * 2 floats * 8 bytes
	return fixedOverhead + entryFixed + bboxBytes + payloadBytes
}
