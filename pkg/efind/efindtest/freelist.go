// Package efindtest provides in-memory test doubles for the interfaces
// the eFIND core consumes from its enclosing tree (TreeAdapter) and the
// page store (Storage), plus a minimal page-id allocator, so package
// tests can exercise create/modify/delete/retrieve/flush without a real
// spatial index or disk file.
package efindtest

import "github.com/nainya/efind/pkg/efind"

// FreeList hands out page ids the way a tree's own free list would:
// monotonically increasing, with freed ids recycled before new ones are
// minted.
type FreeList struct {
	next  uint64
	freed []efind.PageId
}

// NewFreeList returns an empty allocator.
func NewFreeList() *FreeList {
	return &FreeList{}
}

// Alloc returns a freed id if one is available, else the next unused id.
func (f *FreeList) Alloc() efind.PageId {
	if n := len(f.freed); n > 0 {
		id := f.freed[n-1]
		f.freed = f.freed[:n-1]
		return id
	}
	id := efind.PageId(f.next)
	f.next++
	return id
}

// Free returns id to the pool for reuse by a later Alloc.
func (f *FreeList) Free(id efind.PageId) {
	f.freed = append(f.freed, id)
}
