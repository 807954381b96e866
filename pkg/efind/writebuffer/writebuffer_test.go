package writebuffer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nainya/efind/internal/metrics"
	"github.com/nainya/efind/pkg/efind/durlog"
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
	"github.com/nainya/efind/pkg/efind/writebuffer"
)

// nullReader always reports a miss as an empty page, standing in for a
// read buffer backed by empty storage.
type nullReader struct{ kind efindtypes.IndexKind }

func (r nullReader) Get(pageID efindtypes.PageId, height efindtypes.Height) (*page.Page, error) {
	return page.New(pageID, height, r.kind), nil
}

func openTestLog(t *testing.T) (*durlog.Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wal.log")
	l, err := durlog.Open(path, 1<<20, nil, metrics.NewUnregisteredMetrics())
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() { l.Close(); os.Remove(path) })
	return l, path
}

func newBuffer(t *testing.T, capacityBytes int) *writebuffer.Buffer {
	t.Helper()
	log, _ := openTestLog(t)
	return writebuffer.New(capacityBytes, efindtypes.IndexRTree, log, metrics.NewUnregisteredMetrics(), nil, nullReader{kind: efindtypes.IndexRTree})
}

func newBufferAtPath(t *testing.T, capacityBytes int) (*writebuffer.Buffer, string) {
	t.Helper()
	log, path := openTestLog(t)
	return writebuffer.New(capacityBytes, efindtypes.IndexRTree, log, metrics.NewUnregisteredMetrics(), nil, nullReader{kind: efindtypes.IndexRTree}), path
}

func entryWithKey(key efindtypes.EntryKey, payloadBytes int) page.Entry {
	return page.Entry{
		Key:     key,
		Bbox:    &efindtypes.Bbox{Low: []float64{0, 0}, High: []float64{1, 1}},
		Payload: make([]byte, payloadBytes),
	}
}

func TestCreateThenModifyThenRetrieveMergesMods(t *testing.T) {
	b := newBuffer(t, 4096)
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := b.ModifyNode(1, 0, entryWithKey("a", 16)); err != nil {
		t.Fatalf("modify: %v", err)
	}
	p, err := b.RetrieveNode(1, 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(p.Entries) != 1 || p.Entries[0].Key != "a" {
		t.Fatalf("got entries %+v, want one entry keyed a", p.Entries)
	}
}

func TestModifyOnAbsentPageIsBadUsage(t *testing.T) {
	b := newBuffer(t, 4096)
	if err := b.ModifyNode(1, 0, entryWithKey("a", 16)); err == nil {
		t.Fatal("want error modifying an absent page")
	}
}

func TestModifyAfterDeleteWithoutCreateIsBadUsage(t *testing.T) {
	b := newBuffer(t, 4096)
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.DeleteNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.ModifyNode(1, 0, entryWithKey("a", 16)); err == nil {
		t.Fatal("want error modifying a deleted page")
	}
}

func TestRetrieveDeletedReturnsNilWithoutError(t *testing.T) {
	b := newBuffer(t, 4096)
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.DeleteNode(1, 0); err != nil {
		t.Fatal(err)
	}
	p, err := b.RetrieveNode(1, 0)
	if err != nil {
		t.Fatalf("retrieve deleted: %v", err)
	}
	if p != nil {
		t.Fatalf("want nil page for a deleted entry, got %+v", p)
	}
}

func TestRetrieveForFlushOnDeletedYieldsTombstone(t *testing.T) {
	b := newBuffer(t, 4096)
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.DeleteNode(1, 0); err != nil {
		t.Fatal(err)
	}
	p, err := b.RetrieveForFlush(1, 0)
	if err != nil {
		t.Fatalf("retrieve for flush: %v", err)
	}
	if p == nil {
		t.Fatal("want a tombstone page, not nil, when flushing")
	}
}

func TestCreateAfterDeleteResetsToNew(t *testing.T) {
	b := newBuffer(t, 4096)
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.ModifyNode(1, 0, entryWithKey("a", 16)); err != nil {
		t.Fatal(err)
	}
	if err := b.DeleteNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
	p, err := b.RetrieveNode(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Entries) != 0 {
		t.Fatalf("recreated page should start with no entries, got %d", len(p.Entries))
	}
}

func TestDeleteFreesBufferedModBytes(t *testing.T) {
	b := newBuffer(t, 4096)
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.ModifyNode(1, 0, entryWithKey("a", 256)); err != nil {
		t.Fatal(err)
	}
	beforeDelete := b.CurrentBytes()
	if err := b.DeleteNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if b.CurrentBytes() >= beforeDelete {
		t.Fatalf("current bytes = %d, want less than %d after freeing mods", b.CurrentBytes(), beforeDelete)
	}
}

func TestBufferOverflowWithNoFlusherFails(t *testing.T) {
	b := newBuffer(t, 48) // room for one fresh entry's fixed overhead (32), not two
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.CreateNode(2, 0); err == nil {
		t.Fatal("want BufferOverflow with no flusher and insufficient capacity")
	}
}

type countingFlusher struct {
	n       int
	onFlush func()
}

func (f *countingFlusher) FlushOnce() error {
	f.n++
	if f.onFlush != nil {
		f.onFlush()
	}
	return nil
}

func TestOverflowTriggersExactlyOneFlush(t *testing.T) {
	b := newBuffer(t, 48)
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatal(err)
	}
	flusher := &countingFlusher{onFlush: func() { b.RemoveEntry(1) }}
	b.SetFlusher(flusher)
	if err := b.CreateNode(2, 0); err != nil {
		t.Fatalf("create after flush should succeed: %v", err)
	}
	if flusher.n != 1 {
		t.Fatalf("flush count = %d, want exactly 1", flusher.n)
	}
}

func TestReplayReconstructsWriteBufferState(t *testing.T) {
	b, path := newBufferAtPath(t, 4096)
	if err := b.CreateNode(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.ModifyNode(1, 0, entryWithKey("a", 16)); err != nil {
		t.Fatal(err)
	}
	if err := b.CreateNode(2, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.ModifyNode(2, 0, entryWithKey("b", 16)); err != nil {
		t.Fatal(err)
	}

	replayLog, err := durlog.Open(path, 1<<20, nil, metrics.NewUnregisteredMetrics())
	if err != nil {
		t.Fatalf("reopen log: %v", err)
	}
	defer replayLog.Close()

	fresh := writebuffer.New(4096, efindtypes.IndexRTree, replayLog, metrics.NewUnregisteredMetrics(), nil, nullReader{kind: efindtypes.IndexRTree})
	n, err := replayLog.Recover(fresh)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if n != 4 {
		t.Fatalf("replayed %d records, want 4", n)
	}
	if fresh.Len() != 2 {
		t.Fatalf("len = %d, want 2", fresh.Len())
	}
}
