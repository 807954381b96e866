// Package flush implements the flushing manager (C7): candidate
// selection, scoring, the write-side temporal filter, I/O, and
// durability-log finalization for one flushing unit at a time (§4.7).
package flush

import (
	"sort"

	"github.com/nainya/efind/internal/logger"
	"github.com/nainya/efind/internal/metrics"
	"github.com/nainya/efind/pkg/efind/durlog"
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/modset"
	"github.com/nainya/efind/pkg/efind/page"
	"github.com/nainya/efind/pkg/efind/readbuffer"
	"github.com/nainya/efind/pkg/efind/writebuffer"
)

// Adapter is the subset of the tree adapter the flushing manager needs:
// serialization and the per-entry/index accessors area accounting
// requires. efind.TreeAdapter satisfies this directly (its Bbox,
// PageId, Height, IndexKind are aliases of efindtypes').
type Adapter interface {
	SerializePage(p *page.Page, buf []byte) (int, error)
	EntryBbox(e page.Entry) *efindtypes.Bbox
	IndexType() efindtypes.IndexKind
	PageSize() int
}

// Storage is the subset of the page store the flushing manager writes
// through; efind.Storage satisfies this directly.
type Storage interface {
	WriteOnePage(pageID efindtypes.PageId, buf []byte) error
	WritePages(firstPageID efindtypes.PageId, buf []byte, n int) error
}

// ReadInstaller is temporal control's read-side hook, implemented by
// *temporal.ReadGhostList; nil when read temporal control is disabled.
// It takes the concrete read buffer rather than a local interface since
// *temporal.ReadGhostList already imports readbuffer directly (no cycle
// risk: readbuffer imports neither temporal nor flush).
type ReadInstaller interface {
	ForceIntoReadBufferOnFlush(cache *readbuffer.Cache, p efindtypes.PageId, height efindtypes.Height, img *page.Page) bool
}

// WriteFilter is temporal control's write-side candidate filter,
// implemented by *temporal.WriteControl; nil when disabled.
type WriteFilter interface {
	Filter(candidates []efindtypes.PageId) []efindtypes.PageId
}

// RecencyRecorder is the write recency list W; nil when write temporal
// control is disabled.
type RecencyRecorder interface {
	Append(p efindtypes.PageId)
}

// Manager is the flushing manager: it owns no buffered state itself,
// only the policy and the collaborators it orchestrates on each flush.
type Manager struct {
	policy           efindtypes.FlushingPolicy
	flushingUnitSize int
	timestampPerc    float64

	wb      *writebuffer.Buffer
	rb      *readbuffer.Cache
	ghost   ReadInstaller
	filter  WriteFilter
	recency RecencyRecorder

	log     *durlog.Log
	storage Storage
	adapter Adapter
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// Option configures optional collaborators at construction.
type Option func(*Manager)

func WithReadBuffer(rb *readbuffer.Cache) Option { return func(m *Manager) { m.rb = rb } }
func WithReadGhost(g ReadInstaller) Option       { return func(m *Manager) { m.ghost = g } }
func WithWriteFilter(f WriteFilter) Option       { return func(m *Manager) { m.filter = f } }
func WithRecency(r RecencyRecorder) Option       { return func(m *Manager) { m.recency = r } }
func WithMetrics(m2 *metrics.Metrics) Option     { return func(m *Manager) { m.metrics = m2 } }
func WithLogger(l *logger.Logger) Option         { return func(m *Manager) { m.logger = l } }

// New returns a flushing manager for one index instance.
func New(policy efindtypes.FlushingPolicy, flushingUnitSize int, timestampPerc float64,
	wb *writebuffer.Buffer, log *durlog.Log, storage Storage, adapter Adapter, opts ...Option) *Manager {
	m := &Manager{
		policy:           policy,
		flushingUnitSize: flushingUnitSize,
		timestampPerc:    timestampPerc,
		wb:               wb,
		log:              log,
		storage:          storage,
		adapter:          adapter,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// scored is one candidate with its normalized per-candidate metrics
// (§4.7 step 2) and raw modification set, carried through selection.
type scored struct {
	pageID      efindtypes.PageId
	height      efindtypes.Height
	status      efindtypes.NodeStatus
	nofmod      int
	rawArea     float64
	rawOv       float64
	area        float64
	ov          float64
}

// candidates returns the flushing-policy candidate set (§4.7 step 1):
// all buffered pages for policy M, or a timestamp-oldest slice
// otherwise. timestamp_perc = 0 under a non-M policy is treated as
// equivalent to M (an explicit resolution of an open spec question):
// a zero percentage would otherwise shrink the slice to exactly
// flushing_unit_size regardless of buffer size, silently discarding
// scoring diversity the policy is supposed to have.
func (m *Manager) candidates() []writebuffer.Candidate {
	var all []writebuffer.Candidate
	m.wb.Each(func(c writebuffer.Candidate) { all = append(all, c) })

	if m.policy == efindtypes.PolicyM || m.timestampPerc == 0 {
		return all
	}

	sort.Slice(all, func(i, j int) bool { return all[i].LastModifiedMs < all[j].LastModifiedMs })
	n := len(all)
	take := m.flushingUnitSize
	if pct := int(ceilDiv(n*int(m.timestampPerc), 100)); pct > take {
		take = pct
	}
	if take > n {
		take = n
	}
	return all[:take]
}

func ceilDiv(num, den int) int64 {
	if den == 0 {
		return 0
	}
	q := num / den
	if num%den != 0 {
		q++
	}
	return int64(q)
}

// score computes nofmod/height/area/ov_area for every candidate and
// normalizes area/ov_area against the candidate set's own maxima
// (§4.7 step 2).
func (m *Manager) score(cs []writebuffer.Candidate) []scored {
	out := make([]scored, len(cs))
	maxArea, maxOv := 0.0, 0.0
	for i, c := range cs {
		var entries []page.Entry
		c.Mods.Each(func(d modset.EntryDelta) { entries = append(entries, d.Entry) })

		var area, ov float64
		if c.Status == efindtypes.StatusDeleted {
			area = 1.0
		} else {
			area = modifiedArea(entries, m.adapter)
			ov = selfOverlapArea(entries, m.adapter)
		}

		out[i] = scored{
			pageID:  c.PageID,
			height:  c.Height,
			status:  c.Status,
			nofmod:  c.ModifyCount,
			rawArea: area,
			rawOv:   ov,
		}
		if area > maxArea {
			maxArea = area
		}
		if ov > maxOv {
			maxOv = ov
		}
	}
	for i := range out {
		out[i].area = normalize(out[i].rawArea, maxArea)
		out[i].ov = normalize(out[i].rawOv, maxOv)
	}
	return out
}

func normalize(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	v /= max
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// modifiedArea and selfOverlapArea delegate to page's bbox-union and
// self-overlap helpers over entries the adapter says carry area.
func modifiedArea(entries []page.Entry, adapter Adapter) float64 {
	withBbox := make([]page.Entry, 0, len(entries))
	for _, e := range entries {
		e.Bbox = adapter.EntryBbox(e)
		withBbox = append(withBbox, e)
	}
	return page.ModifiedArea(withBbox)
}

func selfOverlapArea(entries []page.Entry, adapter Adapter) float64 {
	withBbox := make([]page.Entry, 0, len(entries))
	for _, e := range entries {
		e.Bbox = adapter.EntryBbox(e)
		withBbox = append(withBbox, e)
	}
	return page.SelfOverlapArea(withBbox)
}
