// Package page is the adapter's opaque view over a tree node (C1): size,
// clone, copy, and per-entry iteration, expressed as a tagged sum type
// over entry kinds rather than a class hierarchy (§4.1, §9 design notes).
package page

import (
	"sort"

	"github.com/nainya/efind/pkg/efind/efindtypes"
)

// EntryKind tags which variant an Entry carries. R-tree and R*-tree
// leaves and internals, and Hilbert R-tree leaves, share one shape;
// Hilbert internals carry an extra largest-Hilbert-value field.
type EntryKind uint8

const (
	EntryUniform         EntryKind = iota // R-tree/R*-tree leaf+internal, Hilbert leaf
	EntryHilbertInternal                  // Hilbert internal: carries LHV
)

// Entry is one node entry. Exactly the fields relevant to Kind are
// meaningful: Child and Payload always are, LHV only under
// EntryHilbertInternal.
type Entry struct {
	Kind    EntryKind
	Key     efindtypes.EntryKey
	Bbox    *efindtypes.Bbox
	Child   efindtypes.PageId // internal entries: child page pointer
	LHV     uint64            // EntryHilbertInternal only: largest Hilbert value among descendants
	Payload []byte            // tree-defined serialized entry body
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	clone := e
	if e.Bbox != nil {
		clone.Bbox = &efindtypes.Bbox{
			Low:  append([]float64(nil), e.Bbox.Low...),
			High: append([]float64(nil), e.Bbox.High...),
		}
	}
	clone.Payload = append([]byte(nil), e.Payload...)
	return clone
}

// Size is the entry's accounted byte size: payload plus the fixed
// pointer/LHV fields plus its bounding box coordinates, if any.
func (e Entry) Size() int {
	const fixedOverhead = 16 // Key discriminant + Child/LHV
	size := fixedOverhead + len(e.Payload)
	if e.Bbox != nil {
		size += 16 * len(e.Bbox.Low) // two float64 per dimension
	}
	return size
}

// Page is the adapter's view over one tree node: its identity, tree
// level, enclosing index family, and ordered entries.
type Page struct {
	PageID  efindtypes.PageId
	Height  efindtypes.Height
	Index   efindtypes.IndexKind
	Entries []Entry
}

// New returns an empty page of the given identity, height, and index
// family — the base a New-status WriteEntry merges its mods onto.
func New(id efindtypes.PageId, height efindtypes.Height, kind efindtypes.IndexKind) *Page {
	return &Page{PageID: id, Height: height, Index: kind}
}

// Clone returns a deep copy, the adapter's clone() operation (§4.1).
func (p *Page) Clone() *Page {
	clone := &Page{PageID: p.PageID, Height: p.Height, Index: p.Index}
	if p.Entries != nil {
		clone.Entries = make([]Entry, len(p.Entries))
		for i, e := range p.Entries {
			clone.Entries[i] = e.Clone()
		}
	}
	return clone
}

// CopyFrom overwrites p's contents with a deep copy of src, the
// adapter's copy(dst, src) operation.
func (p *Page) CopyFrom(src *Page) {
	p.PageID = src.PageID
	p.Height = src.Height
	p.Index = src.Index
	p.Entries = make([]Entry, len(src.Entries))
	for i, e := range src.Entries {
		p.Entries[i] = e.Clone()
	}
}

// Size is the adapter's size() operation: the sum of every entry's size.
func (p *Page) Size() int {
	size := 0
	for _, e := range p.Entries {
		size += e.Size()
	}
	return size
}

// Put replaces the entry whose Key matches e.Key, or appends e if no
// entry with that key is present (§4.5 merge algorithm, step 2).
func (p *Page) Put(e Entry) {
	for i := range p.Entries {
		if p.Entries[i].Key == e.Key {
			p.Entries[i] = e
			return
		}
	}
	p.Entries = append(p.Entries, e)
}

// Remove deletes the entry with the given key, if present.
func (p *Page) Remove(key efindtypes.EntryKey) {
	for i := range p.Entries {
		if p.Entries[i].Key == key {
			p.Entries = append(p.Entries[:i], p.Entries[i+1:]...)
			return
		}
	}
}

// SortHilbert re-establishes Hilbert order after a merge. R-tree and
// R*-tree pages never call this (§4.5 merge algorithm, step 3).
func (p *Page) SortHilbert() {
	sort.Slice(p.Entries, func(i, j int) bool {
		return p.hilbertKey(i) < p.hilbertKey(j)
	})
}

func (p *Page) hilbertKey(i int) uint64 {
	e := p.Entries[i]
	if e.Kind == EntryHilbertInternal {
		return e.LHV
	}
	return uint64(e.Child)
}

// ModifiedArea is the union-bbox area of entries, normalized by the
// caller against a cross-buffer maximum (§4.7 step 2).
func ModifiedArea(entries []Entry) float64 {
	var union *efindtypes.Bbox
	for _, e := range entries {
		union = efindtypes.UnionBbox(union, e.Bbox)
	}
	return union.Area()
}

// SelfOverlapArea is the total pairwise overlap area among entries'
// bounding boxes (§4.7 ov_area).
func SelfOverlapArea(entries []Entry) float64 {
	var total float64
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			total += efindtypes.Overlap(entries[i].Bbox, entries[j].Bbox).Area()
		}
	}
	return total
}
