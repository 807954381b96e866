// Package efindtypes holds the value types shared across every eFIND
// package: page/node identity, status, and the policy enums. It exists
// so that page, modset, readbuffer, writebuffer, temporal, flush, and
// durlog can all depend on these definitions without importing the
// top-level efind package that wires them together.
package efindtypes

// PageId identifies a page. Non-negative, dense, assigned by the tree's
// own free list — eFIND never allocates page ids itself.
type PageId uint64

// Height is the tree level of a node. 0 is a leaf.
type Height uint32

// NodeStatus is the lifecycle state of a buffered page.
type NodeStatus uint8

const (
	// StatusNew means the page was created in this buffer and has no
	// meaningful on-storage image yet.
	StatusNew NodeStatus = iota
	// StatusModified means the page exists on storage and has buffered
	// modifications layered on top of it.
	StatusModified
	// StatusDeleted means the page was deleted; mods must be empty.
	StatusDeleted
)

func (s NodeStatus) String() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusModified:
		return "Modified"
	case StatusDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// EntryKey is the tree-defined identity of an entry within a node: the
// pointer field for leaf R-tree entries, the child page id for Hilbert
// internal entries, or whatever comparable key the tree adapter supplies.
type EntryKey string

// IndexKind names the enclosing tree family; the core needs it only to
// pick leaf-vs-internal variant rules when accounting modified area.
type IndexKind uint8

const (
	IndexRTree IndexKind = iota
	IndexRStarTree
	IndexHilbertRTree
)

// FlushingPolicy selects the scoring function the flushing manager uses
// to rank candidate flushing units.
type FlushingPolicy uint8

const (
	PolicyM     FlushingPolicy = iota // modifications only
	PolicyMT                          // + timestamp-ordered candidate slice
	PolicyMTH                         // + height weight
	PolicyMTHA                        // + modified-area weight
	PolicyMTHAO                       // + self-overlap-area weight
)

// TemporalControlPolicy selects which of the read/write temporal-control
// lists are active.
type TemporalControlPolicy uint8

const (
	TemporalNone TemporalControlPolicy = iota
	TemporalRead
	TemporalWrite
	TemporalReadWrite
)

// ReadEnabled reports whether the read ghost list is active under p.
func (p TemporalControlPolicy) ReadEnabled() bool {
	return p == TemporalRead || p == TemporalReadWrite
}

// WriteEnabled reports whether the write recency list is active under p.
func (p TemporalControlPolicy) WriteEnabled() bool {
	return p == TemporalWrite || p == TemporalReadWrite
}

// ReadBufferPolicy selects the read-buffer replacement policy.
type ReadBufferPolicy uint8

const (
	ReadPolicyNone ReadBufferPolicy = iota
	ReadPolicyLRU
	ReadPolicyHLRU
	ReadPolicyS2Q
	ReadPolicyFull2Q
)

// MinGhostListSize is the floor on the read ghost list's dynamic bound.
const MinGhostListSize = 10

// Bbox is an axis-aligned bounding box in the tree's coordinate space,
// used only for modified-area accounting (MTHA/MTHAO). Nil means an
// entry contributes no area (e.g. a deletion marker).
type Bbox struct {
	Low, High []float64
}

// Area returns the box's hyper-rectangle area, or 0 for a degenerate or
// nil box.
func (b *Bbox) Area() float64 {
	if b == nil || len(b.Low) == 0 || len(b.Low) != len(b.High) {
		return 0
	}
	area := 1.0
	for i := range b.Low {
		side := b.High[i] - b.Low[i]
		if side < 0 {
			return 0
		}
		area *= side
	}
	return area
}

// UnionBbox returns the smallest box containing both a and b. Either may be
// nil, in which case the other is returned unchanged.
func UnionBbox(a, b *Bbox) *Bbox {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	dims := len(a.Low)
	low := make([]float64, dims)
	high := make([]float64, dims)
	for i := 0; i < dims; i++ {
		low[i] = min(a.Low[i], b.Low[i])
		high[i] = max(a.High[i], b.High[i])
	}
	return &Bbox{Low: low, High: high}
}

// Overlap returns the intersection box of a and b, or nil if they do not
// overlap on every dimension.
func Overlap(a, b *Bbox) *Bbox {
	if a == nil || b == nil {
		return nil
	}
	dims := len(a.Low)
	if dims != len(b.Low) {
		return nil
	}
	low := make([]float64, dims)
	high := make([]float64, dims)
	for i := 0; i < dims; i++ {
		low[i] = max(a.Low[i], b.Low[i])
		high[i] = min(a.High[i], b.High[i])
		if low[i] > high[i] {
			return nil
		}
	}
	return &Bbox{Low: low, High: high}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
