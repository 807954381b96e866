package efind

import (
	"fmt"

	"github.com/nainya/efind/internal/logger"
	"github.com/nainya/efind/internal/metrics"
	"github.com/nainya/efind/pkg/efind/config"
	"github.com/nainya/efind/pkg/efind/durlog"
	"github.com/nainya/efind/pkg/efind/flush"
	"github.com/nainya/efind/pkg/efind/page"
	"github.com/nainya/efind/pkg/efind/readbuffer"
	"github.com/nainya/efind/pkg/efind/temporal"
	"github.com/nainya/efind/pkg/efind/writebuffer"
)

// Index is one open eFIND instance: the write buffer, flushing manager,
// read buffer, temporal control lists, and durability log wired
// together per cfg, sitting in front of storage through adapter (C8).
// Construction order is circular between the write buffer and the
// flushing manager, resolved the same way writebuffer.Buffer.SetFlusher
// documents: build the buffer first, then the manager, then wire them.
type Index struct {
	cfg     config.Config
	wb      *writebuffer.Buffer
	rb      *readbuffer.Cache
	ghost   *temporal.ReadGhostList
	recency *temporal.WriteRecencyList
	flusher *flush.Manager
	log     *durlog.Log
	storage Storage
	adapter TreeAdapter
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// readerAdapter satisfies writebuffer.Reader by routing a read-buffer
// miss through the tree adapter's ReadNode, the bridge retrieve_node's
// fallback path needs (§4.5).
type readerAdapter struct {
	rb      *readbuffer.Cache
	adapter TreeAdapter
}

func (r readerAdapter) Get(pageID PageId, height Height) (*page.Page, error) {
	return r.rb.Get(pageID, height, r.adapter)
}

// sizeSource adapts an Index to temporal.SizeSource, so the read ghost
// list's dynamic bound tracks the live write/read buffer occupancy.
type sizeSource struct{ idx *Index }

func (s sizeSource) WriteBufferLen() int { return s.idx.wb.Len() }
func (s sizeSource) ReadBufferLen() int  { return s.idx.rb.Len() }

// Open constructs an Index from cfg, recovering write-buffer state from
// the durability log if it already has records on disk (§8 invariant 5).
func Open(cfg config.Config, storage Storage, adapter TreeAdapter, m *metrics.Metrics, l *logger.Logger) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("efind: invalid config: %w", err)
	}

	log, err := durlog.Open(cfg.LogFile, cfg.LogSize, l, m)
	if err != nil {
		return nil, fmt.Errorf("efind: open durability log: %w", err)
	}

	idx := &Index{cfg: cfg, log: log, storage: storage, adapter: adapter, metrics: m, logger: l}

	var rbOpts []readbuffer.Option
	if m != nil {
		rbOpts = append(rbOpts, readbuffer.WithMetrics(m))
	}
	if cfg.ReadBufferPolicy == ReadPolicyFull2Q {
		rbOpts = append(rbOpts, readbuffer.WithA1InPercent(cfg.A1InPercSize, adapter.PageSize()+64))
	}

	var ghost *temporal.ReadGhostList
	if cfg.TemporalControlPolicy.ReadEnabled() {
		ghost = temporal.NewReadGhostList(cfg.ReadTemporalControlPerc, sizeSource{idx})
		rbOpts = append(rbOpts, readbuffer.WithGhostList(ghost))
	}
	idx.rb = readbuffer.New(cfg.ReadBufferPolicy, int(cfg.ReadBufferSize), rbOpts...)
	idx.ghost = ghost

	idx.wb = writebuffer.New(int(cfg.WriteBufferSize), adapter.IndexType(), log, m, l, readerAdapter{rb: idx.rb, adapter: adapter})

	var recency *temporal.WriteRecencyList
	var filter *temporal.WriteControl
	if cfg.TemporalControlPolicy.WriteEnabled() {
		recency = temporal.NewWriteRecencyList(int(cfg.FlushingUnitSize), int(cfg.WriteTemporalControlSize))
		filter = temporal.NewWriteControl(cfg.TemporalControlPolicy, recency,
			int(cfg.WriteTCMinimumDistance), int(cfg.WriteTCStride), int(cfg.FlushingUnitSize), m)
	}
	idx.recency = recency

	var flushOpts []flush.Option
	flushOpts = append(flushOpts, flush.WithReadBuffer(idx.rb))
	if ghost != nil {
		flushOpts = append(flushOpts, flush.WithReadGhost(ghost))
	}
	if filter != nil {
		flushOpts = append(flushOpts, flush.WithWriteFilter(filter))
	}
	if recency != nil {
		flushOpts = append(flushOpts, flush.WithRecency(recency))
	}
	if m != nil {
		flushOpts = append(flushOpts, flush.WithMetrics(m))
	}
	if l != nil {
		flushOpts = append(flushOpts, flush.WithLogger(l))
	}
	idx.flusher = flush.New(cfg.FlushingPolicy, int(cfg.FlushingUnitSize), cfg.TimestampPerc,
		idx.wb, log, storage, adapter, flushOpts...)
	idx.wb.SetFlusher(idx.flusher)

	if _, err := log.Recover(idx.wb); err != nil {
		log.Close()
		return nil, fmt.Errorf("efind: recover write buffer: %w", err)
	}

	return idx, nil
}

// CreateNode implements create_node (§4.5).
func (idx *Index) CreateNode(pageID PageId, height Height) error {
	return idx.wb.CreateNode(pageID, height)
}

// ModifyNode implements modify_node (§4.5).
func (idx *Index) ModifyNode(pageID PageId, height Height, delta page.Entry) error {
	return idx.wb.ModifyNode(pageID, height, delta)
}

// DeleteNode implements delete_node (§4.5).
func (idx *Index) DeleteNode(pageID PageId, height Height) error {
	return idx.wb.DeleteNode(pageID, height)
}

// RetrieveNode implements retrieve_node (§4.5): nil, nil for a Deleted
// buffered page, the merged write-buffer-over-read-buffer image
// otherwise.
func (idx *Index) RetrieveNode(pageID PageId, height Height) (*page.Page, error) {
	img, err := idx.wb.RetrieveNode(pageID, height)
	if err != nil || img == nil {
		return img, err
	}
	if idx.ghost != nil {
		idx.ghost.Add(pageID)
	}
	return img, nil
}

// Flush picks and writes exactly one flushing unit (§4.7).
func (idx *Index) Flush() (*flush.FlushResult, error) {
	return idx.flusher.Flush()
}

// FlushAll writes every buffered page and leaves the write buffer empty,
// the only operation a checkpoint/shutdown needs beyond Close (§4.7).
func (idx *Index) FlushAll() (*flush.FlushResult, error) {
	return idx.flusher.FlushAll()
}

// Close flushes every buffered page and closes the durability log.
func (idx *Index) Close() error {
	if _, err := idx.flusher.FlushAll(); err != nil {
		return err
	}
	return idx.log.Close()
}
