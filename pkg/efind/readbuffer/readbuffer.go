// Package readbuffer implements the read buffer (C4): a variable-size
// page cache keyed by page id, with pluggable replacement policies
// (LRU, HLRU, Simplified 2Q, Full 2Q). Recency ordering is an arena of
// nodes linked by integer prev/next indices rather than container/list
// or map-embedded back-pointers (§9 design notes).
package readbuffer

import (
	"github.com/nainya/efind/internal/metrics"
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
)

const nilIdx = -1

// GhostList is the read temporal-control list R (C6), reused here as
// the out-region for S2Q and Full2Q so neither the buffer nor temporal
// control keeps its own second copy of the same ghost membership.
type GhostList interface {
	Contains(id efindtypes.PageId) bool
	Remove(id efindtypes.PageId)
	Add(id efindtypes.PageId)
}

// Adapter is the subset of the tree adapter the read buffer needs on a
// miss: loading the on-storage image.
type Adapter interface {
	ReadNode(pageID efindtypes.PageId, height efindtypes.Height) (*page.Page, error)
}

type node struct {
	inUse  bool
	inA1in bool // Full2Q only: which region this arena slot belongs to
	pageID efindtypes.PageId
	height efindtypes.Height
	image  *page.Page
	size   int
	prev   int
	next   int
}

// Cache is the read buffer's common contract over all four policies.
// Am (the LRU/frequent region) and A1in (Full2Q's FIFO region) are two
// independently byte-budgeted sub-lists over one arena.
type Cache struct {
	policy efindtypes.ReadBufferPolicy

	arena     []node
	freeSlots []int
	index     map[efindtypes.PageId]int

	amHead, amTail     int
	amUsedBytes        int
	amCapBytes         int
	a1inHead, a1inTail int
	a1inUsedBytes      int
	a1inCapBytes       int // Full2Q only

	capacityBytes int
	treeHeight    efindtypes.Height // HLRU only

	ghost   GhostList // S2Q, Full2Q only
	metrics *metrics.Metrics
}

// Option configures a Cache at construction.
type Option func(*Cache)

// WithGhostList supplies the shared read-ghost list for S2Q/Full2Q.
func WithGhostList(g GhostList) Option {
	return func(c *Cache) { c.ghost = g }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithA1InPercent sets Full2Q's A1in byte sub-budget as a percentage of
// capacityBytes, floored at minPageBytes (one page plus overhead).
func WithA1InPercent(pct float64, minPageBytes int) Option {
	return func(c *Cache) {
		cap := int(float64(c.capacityBytes) * pct / 100)
		if cap < minPageBytes {
			cap = minPageBytes
		}
		c.a1inCapBytes = cap
	}
}

// New returns an empty Cache of the given policy and byte capacity.
func New(policy efindtypes.ReadBufferPolicy, capacityBytes int, opts ...Option) *Cache {
	c := &Cache{
		policy:        policy,
		capacityBytes: capacityBytes,
		amCapBytes:    capacityBytes,
		index:         make(map[efindtypes.PageId]int),
		amHead:        nilIdx, amTail: nilIdx,
		a1inHead: nilIdx, a1inTail: nilIdx,
	}
	for _, o := range opts {
		o(c)
	}
	if c.policy == efindtypes.ReadPolicyFull2Q {
		if c.a1inCapBytes == 0 {
			c.a1inCapBytes = c.capacityBytes / 4
		}
		c.amCapBytes = c.capacityBytes - c.a1inCapBytes
	}
	return c
}

// SetTreeHeight updates the height HLRU compares resident entries
// against; call whenever the tree grows or shrinks.
func (c *Cache) SetTreeHeight(h efindtypes.Height) { c.treeHeight = h }

// Len returns the number of resident pages, across both sub-regions.
func (c *Cache) Len() int { return len(c.index) }

// Destroy discards all resident state.
func (c *Cache) Destroy() {
	c.arena = nil
	c.freeSlots = nil
	c.index = make(map[efindtypes.PageId]int)
	c.amHead, c.amTail = nilIdx, nilIdx
	c.a1inHead, c.a1inTail = nilIdx, nilIdx
	c.amUsedBytes, c.a1inUsedBytes = 0, 0
}

func entrySize(p *page.Page) int {
	const fixedOverhead = 24
	return fixedOverhead + p.Size()
}

func (c *Cache) allocSlot() int {
	if n := len(c.freeSlots); n > 0 {
		idx := c.freeSlots[n-1]
		c.freeSlots = c.freeSlots[:n-1]
		return idx
	}
	c.arena = append(c.arena, node{})
	return len(c.arena) - 1
}

func (c *Cache) releaseSlot(idx int) {
	c.arena[idx] = node{}
	c.freeSlots = append(c.freeSlots, idx)
}

func (c *Cache) listRemove(headP, tailP *int, idx int) {
	n := &c.arena[idx]
	if n.prev != nilIdx {
		c.arena[n.prev].next = n.next
	} else {
		*headP = n.next
	}
	if n.next != nilIdx {
		c.arena[n.next].prev = n.prev
	} else {
		*tailP = n.prev
	}
	n.prev, n.next = nilIdx, nilIdx
}

func (c *Cache) listPushFront(headP, tailP *int, idx int) {
	n := &c.arena[idx]
	n.prev = nilIdx
	n.next = *headP
	if *headP != nilIdx {
		c.arena[*headP].prev = idx
	}
	*headP = idx
	if *tailP == nilIdx {
		*tailP = idx
	}
}

// promoteAm moves idx to the front of Am (most recently used). LRU and
// HLRU share this on every hit; HLRU differs only in eviction order.
func (c *Cache) promoteAm(idx int) {
	c.listRemove(&c.amHead, &c.amTail, idx)
	c.listPushFront(&c.amHead, &c.amTail, idx)
}

func (c *Cache) evictNode(idx int) {
	n := c.arena[idx]
	delete(c.index, n.pageID)
	if n.inA1in {
		c.listRemove(&c.a1inHead, &c.a1inTail, idx)
		c.a1inUsedBytes -= n.size
	} else {
		c.listRemove(&c.amHead, &c.amTail, idx)
		c.amUsedBytes -= n.size
	}
	c.releaseSlot(idx)
}
