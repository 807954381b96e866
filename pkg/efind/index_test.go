package efind_test

import (
	"path/filepath"
	"testing"

	"github.com/nainya/efind/pkg/efind"
	"github.com/nainya/efind/pkg/efind/config"
	"github.com/nainya/efind/pkg/efind/efindtest"
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
)

func newTestIndex(t *testing.T, mutate func(*config.Config)) (*efind.Index, *efindtest.FakeAdapter, *efindtest.FakeStorage) {
	t.Helper()
	cfg := config.Default(efindtest.PageSize, efindtypes.IndexRTree)
	cfg.WriteBufferSize = 1 << 20
	cfg.ReadBufferSize = 1 << 20
	cfg.LogFile = filepath.Join(t.TempDir(), "efind.log")
	cfg.LogSize = 1 << 20
	if mutate != nil {
		mutate(&cfg)
	}

	adapter := efindtest.NewFakeAdapter(efindtypes.IndexRTree)
	storage := efindtest.NewFakeStorage(efindtest.PageSize)

	idx, err := efind.Open(cfg, storage, adapter, nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx, adapter, storage
}

func entry(key string, low, high []float64) page.Entry {
	return page.Entry{
		Kind:    page.EntryUniform,
		Key:     efindtypes.EntryKey(key),
		Bbox:    &efindtypes.Bbox{Low: low, High: high},
		Payload: []byte(key),
	}
}

// S1: modify a node, then flush it; retrieve_node after a flush must
// still return the modified image, now read back through the read
// buffer from the flushed on-storage image.
func TestScenarioModifyThenFlushProducesDurableImage(t *testing.T) {
	idx, adapter, storage := newTestIndex(t, nil)

	if err := idx.CreateNode(1, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := idx.ModifyNode(1, 0, entry("a", []float64{0, 0}, []float64{1, 1})); err != nil {
		t.Fatalf("modify: %v", err)
	}

	result, err := idx.FlushAll()
	if err != nil {
		t.Fatalf("flush all: %v", err)
	}
	if result == nil || len(result.PageIDs) != 1 || result.PageIDs[0] != 1 {
		t.Fatalf("flush result = %+v, want one page (1)", result)
	}
	if len(storage.Writes) != 1 {
		t.Fatalf("storage writes = %d, want 1", len(storage.Writes))
	}

	img, err := idx.RetrieveNode(1, 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if img == nil || len(img.Entries) != 1 || string(img.Entries[0].Key) != "a" {
		t.Fatalf("retrieved image = %+v, want one entry with key a", img)
	}

	onDisk, ok := adapter.OnStorage(1)
	if !ok || len(onDisk.Entries) != 1 {
		t.Fatalf("on-storage image missing or wrong after flush: %+v %v", onDisk, ok)
	}
}

// Deleting a buffered node, per §4.5, makes retrieve_node report the
// page gone without an error, distinguishing "absent" from "failure".
func TestRetrieveNodeOnDeletedPageReturnsNilWithoutError(t *testing.T) {
	idx, _, _ := newTestIndex(t, nil)

	if err := idx.CreateNode(7, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := idx.DeleteNode(7, 0); err != nil {
		t.Fatalf("delete: %v", err)
	}

	img, err := idx.RetrieveNode(7, 0)
	if err != nil {
		t.Fatalf("retrieve deleted page: %v", err)
	}
	if img != nil {
		t.Fatalf("retrieve on a deleted page = %+v, want nil", img)
	}
}

// S5: a crash leaves the durability log as the only record of
// unflushed mutations. Reopening an Index against the same log and
// storage must reconstruct write-buffer content exactly (§8 invariant 5).
func TestScenarioCrashRecoveryReplaysUnflushedMutations(t *testing.T) {
	cfg := config.Default(efindtest.PageSize, efindtypes.IndexRTree)
	cfg.WriteBufferSize = 1 << 20
	cfg.ReadBufferSize = 1 << 20
	cfg.LogFile = filepath.Join(t.TempDir(), "efind.log")
	cfg.LogSize = 1 << 20

	adapter := efindtest.NewFakeAdapter(efindtypes.IndexRTree)
	storage := efindtest.NewFakeStorage(efindtest.PageSize)

	first, err := efind.Open(cfg, storage, adapter, nil, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.CreateNode(3, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := first.ModifyNode(3, 0, entry("k", []float64{0}, []float64{1})); err != nil {
		t.Fatalf("modify: %v", err)
	}
	// No flush, no Close: simulate a crash by just dropping the handle
	// without writing anything further (the log already has the
	// mutations; Close would flush and obscure what we're testing).

	second, err := efind.Open(cfg, storage, adapter, nil, nil)
	if err != nil {
		t.Fatalf("reopen after crash: %v", err)
	}
	defer second.Close()

	img, err := second.RetrieveNode(3, 0)
	if err != nil {
		t.Fatalf("retrieve after recovery: %v", err)
	}
	if img == nil || len(img.Entries) != 1 || string(img.Entries[0].Key) != "k" {
		t.Fatalf("recovered image = %+v, want one entry with key k", img)
	}
}

// S2: a page pinned by temporal read control and then flushed must be
// served back out of the read buffer rather than re-reading storage.
func TestScenarioTemporalReadKeepsFlushedPageResident(t *testing.T) {
	idx, adapter, _ := newTestIndex(t, func(c *config.Config) {
		c.ReadBufferPolicy = efindtypes.ReadPolicyS2Q
		c.TemporalControlPolicy = efindtypes.TemporalRead
		c.ReadTemporalControlPerc = 50
	})

	if err := idx.CreateNode(9, 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := idx.RetrieveNode(9, 0); err != nil {
		t.Fatalf("retrieve (pins ghost): %v", err)
	}
	if err := idx.ModifyNode(9, 0, entry("z", []float64{2}, []float64{3})); err != nil {
		t.Fatalf("modify: %v", err)
	}

	missesBefore := adapter.Misses
	if _, err := idx.FlushAll(); err != nil {
		t.Fatalf("flush all: %v", err)
	}

	img, err := idx.RetrieveNode(9, 0)
	if err != nil {
		t.Fatalf("retrieve after flush: %v", err)
	}
	if img == nil || len(img.Entries) != 1 {
		t.Fatalf("image after flush = %+v, want one entry", img)
	}
	if adapter.Misses != missesBefore {
		t.Fatalf("ReadNode missed after flush (misses %d -> %d), want the forced install to serve it from the read buffer",
			missesBefore, adapter.Misses)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default(efindtest.PageSize, efindtypes.IndexRTree)
	cfg.WriteBufferSize = 0
	cfg.LogFile = filepath.Join(t.TempDir(), "efind.log")

	adapter := efindtest.NewFakeAdapter(efindtypes.IndexRTree)
	storage := efindtest.NewFakeStorage(efindtest.PageSize)

	if _, err := efind.Open(cfg, storage, adapter, nil, nil); err == nil {
		t.Fatal("want error opening an Index with an invalid config")
	}
}
