package readbuffer

import (
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
)

// evictAmUntil evicts from Am's LRU tail until amUsedBytes+required fits
// amCapBytes, or Am is empty. Used by LRU, S2Q (which has no A1in), and
// Full2Q's Am admission.
func (c *Cache) evictAmUntil(required int) bool {
	for c.amUsedBytes+required > c.amCapBytes && c.amTail != nilIdx {
		c.evictNode(c.amTail)
	}
	return c.amUsedBytes+required <= c.amCapBytes
}

// evictableHLRU implements §4.4's rule: an entry e at or below the
// current tree height is evictable for a candidate c iff
// c.height >= e.height. An entry above the tree height (a stale root) is
// retained regardless of recency, and is evictable only for a candidate
// whose height also exceeds the tree height.
func evictableHLRU(candidateHeight, entryHeight, treeHeight efindtypes.Height) bool {
	if entryHeight > treeHeight {
		return candidateHeight > treeHeight
	}
	return candidateHeight >= entryHeight
}

// evictHLRUUntil walks Am from its LRU tail toward the head, evicting
// the first entry evictable for candidateHeight, repeating until enough
// room is free. It gives up if a full pass finds nothing evictable.
func (c *Cache) evictHLRUUntil(required int, candidateHeight efindtypes.Height) bool {
	for c.amUsedBytes+required > c.amCapBytes {
		idx := c.amTail
		found := false
		for idx != nilIdx {
			n := &c.arena[idx]
			if evictableHLRU(candidateHeight, n.height, c.treeHeight) {
				c.evictNode(idx)
				found = true
				break
			}
			idx = n.prev
		}
		if !found {
			return false
		}
	}
	return true
}

func (c *Cache) ensureAmRoom(required int, candidateHeight efindtypes.Height) bool {
	if c.policy == efindtypes.ReadPolicyHLRU {
		return c.evictHLRUUntil(required, candidateHeight)
	}
	return c.evictAmUntil(required)
}

// admitAm installs img into Am (the LRU/frequent region), evicting as
// needed. Used directly by LRU/HLRU, and by S2Q/Full2Q's ghost-driven
// promotion path.
func (c *Cache) admitAm(img *page.Page, pageID efindtypes.PageId, height efindtypes.Height) bool {
	required := entrySize(img)
	if !c.ensureAmRoom(required, height) {
		return false
	}
	idx := c.allocSlot()
	c.arena[idx] = node{inUse: true, pageID: pageID, height: height, image: img.Clone(), size: required, prev: nilIdx, next: nilIdx}
	c.index[pageID] = idx
	c.amUsedBytes += required
	c.listPushFront(&c.amHead, &c.amTail, idx)
	return true
}

// evictA1inTailToGhost evicts A1in's oldest entry, enqueuing its id into
// the shared ghost list (A1in's overflow becomes A1out membership, §4.4
// Full 2Q).
func (c *Cache) evictA1inTailToGhost() {
	idx := c.a1inTail
	if idx == nilIdx {
		return
	}
	id := c.arena[idx].pageID
	c.evictNode(idx)
	if c.ghost != nil {
		c.ghost.Add(id)
	}
}

// admitA1in installs img into Full2Q's FIFO region, evicting its oldest
// entries into the ghost list as needed to stay within a1inCapBytes.
func (c *Cache) admitA1in(img *page.Page, pageID efindtypes.PageId, height efindtypes.Height) bool {
	required := entrySize(img)
	for c.a1inUsedBytes+required > c.a1inCapBytes && c.a1inTail != nilIdx {
		c.evictA1inTailToGhost()
	}
	if c.a1inUsedBytes+required > c.a1inCapBytes {
		return false
	}
	idx := c.allocSlot()
	c.arena[idx] = node{inUse: true, inA1in: true, pageID: pageID, height: height, image: img.Clone(), size: required, prev: nilIdx, next: nilIdx}
	c.index[pageID] = idx
	c.a1inUsedBytes += required
	c.listPushFront(&c.a1inHead, &c.a1inTail, idx)
	return true
}
