// Package writebuffer implements the write buffer (C5): a byte-budgeted
// map of per-page modification state, merging into logical page images
// on demand and recording every mutation to the durability log (§4.5).
package writebuffer

import (
	"time"

	"github.com/nainya/efind/internal/logger"
	"github.com/nainya/efind/internal/metrics"
	"github.com/nainya/efind/pkg/efind/durlog"
	"github.com/nainya/efind/pkg/efind/efinderr"
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/modset"
	"github.com/nainya/efind/pkg/efind/page"
)

// fixedEntryOverhead is the accounted cost of one WriteEntry's own
// bookkeeping (status, height, timestamp, modify count) independent of
// its buffered deltas.
const fixedEntryOverhead = 32

// Reader is the subset of the read buffer's contract retrieve_node
// falls back to on a miss (§4.5: "return the read-buffer's get(...)").
type Reader interface {
	Get(pageID efindtypes.PageId, height efindtypes.Height) (*page.Page, error)
}

// Flusher triggers exactly one flushing-unit write, the write buffer's
// sole backpressure mechanism (§4.5, §5 budgets).
type Flusher interface {
	FlushOnce() error
}

type writeEntry struct {
	status         efindtypes.NodeStatus
	height         efindtypes.Height
	mods           *modset.ModSet
	modsBytes      int
	modifyCount    int
	lastModifiedMs int64
}

func (e *writeEntry) accountedBytes() int { return fixedEntryOverhead + e.modsBytes }

// Candidate is the flushing manager's read-only view of one buffered
// page, exposed by Each (§4.7 step 1-2).
type Candidate struct {
	PageID         efindtypes.PageId
	Height         efindtypes.Height
	Status         efindtypes.NodeStatus
	ModifyCount    int
	LastModifiedMs int64
	Mods           *modset.ModSet
}

// Buffer is the write buffer: per-page modification state plus byte
// accounting, the durability log, and the backpressure flush callback.
type Buffer struct {
	kind          efindtypes.IndexKind
	capacityBytes int
	currentBytes  int
	entries       map[efindtypes.PageId]*writeEntry

	log     *durlog.Log
	metrics *metrics.Metrics
	logger  *logger.Logger
	reader  Reader
	flusher Flusher
}

// New returns an empty Buffer for one index instance. SetFlusher must be
// called once the flushing manager exists, since construction order is
// circular (the flushing manager needs this Buffer too).
func New(capacityBytes int, kind efindtypes.IndexKind, log *durlog.Log, m *metrics.Metrics, l *logger.Logger, reader Reader) *Buffer {
	return &Buffer{
		kind:          kind,
		capacityBytes: capacityBytes,
		entries:       make(map[efindtypes.PageId]*writeEntry),
		log:           log,
		metrics:       m,
		logger:        l,
		reader:        reader,
	}
}

// SetFlusher wires the flushing-manager callback.
func (b *Buffer) SetFlusher(f Flusher) { b.flusher = f }

// Len returns the number of buffered pages.
func (b *Buffer) Len() int { return len(b.entries) }

// Contains reports whether page_id currently has buffered state. The
// flushing manager uses this to detect a candidate that vanished
// between selection and materialization (§7 Silent::UnnecessaryFlush).
func (b *Buffer) Contains(pageID efindtypes.PageId) bool {
	_, ok := b.entries[pageID]
	return ok
}

// CurrentBytes is the write buffer's accounted byte usage.
func (b *Buffer) CurrentBytes() int { return b.currentBytes }

// CapacityBytes is the configured byte budget.
func (b *Buffer) CapacityBytes() int { return b.capacityBytes }

// Each visits every buffered page's candidate view, in map order (the
// flushing manager sorts it itself where order matters, §4.7).
func (b *Buffer) Each(fn func(Candidate)) {
	for id, e := range b.entries {
		fn(Candidate{
			PageID:         id,
			Height:         e.height,
			Status:         e.status,
			ModifyCount:    e.modifyCount,
			LastModifiedMs: e.lastModifiedMs,
			Mods:           e.mods,
		})
	}
}

// RemoveEntry evicts page_id's buffered state entirely, returning the
// bytes freed. Called by the flushing manager after a successful flush
// and FLUSH log append (§4.7 step 8).
func (b *Buffer) RemoveEntry(pageID efindtypes.PageId) int {
	e, ok := b.entries[pageID]
	if !ok {
		return 0
	}
	delete(b.entries, pageID)
	freed := e.accountedBytes()
	b.currentBytes -= freed
	return freed
}

// ensureCapacity tries to admit `required` more bytes, triggering at
// most one flush if the budget would otherwise be exceeded (§4.5).
func (b *Buffer) ensureCapacity(required int) error {
	if b.currentBytes+required <= b.capacityBytes {
		return nil
	}
	if b.logger != nil {
		b.logger.LogBufferOverflow(int64(b.currentBytes), int64(b.capacityBytes), int64(required))
	}
	if b.flusher != nil {
		if err := b.flusher.FlushOnce(); err != nil {
			return err
		}
	}
	if b.currentBytes+required <= b.capacityBytes {
		return nil
	}
	if b.metrics != nil {
		b.metrics.BufferOverflowsTotal.Inc()
	}
	return efinderr.ErrBufferOverflow
}

func now() int64 { return time.Now().UnixMilli() }

func (b *Buffer) syncGauge() {
	if b.metrics != nil {
		b.metrics.WriteBufferBytes.Set(float64(b.currentBytes))
		b.metrics.WriteBufferEntries.Set(float64(len(b.entries)))
	}
}
