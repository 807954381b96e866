package readbuffer

import (
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
)

// Get returns a clone of page_id's cached image, fetching and
// installing it via adapter on a miss (§4.4).
func (c *Cache) Get(pageID efindtypes.PageId, height efindtypes.Height, adapter Adapter) (*page.Page, error) {
	if c.policy == efindtypes.ReadPolicyNone {
		return adapter.ReadNode(pageID, height)
	}

	if idx, ok := c.index[pageID]; ok {
		n := &c.arena[idx]
		if !n.inA1in {
			c.promoteAm(idx)
		}
		if c.metrics != nil {
			c.metrics.ReadBufferHitsTotal.Inc()
		}
		return n.image.Clone(), nil
	}

	if c.metrics != nil {
		c.metrics.ReadBufferMissesTotal.Inc()
	}
	img, err := adapter.ReadNode(pageID, height)
	if err != nil {
		return nil, err
	}

	switch c.policy {
	case efindtypes.ReadPolicyLRU, efindtypes.ReadPolicyHLRU:
		c.admitAm(img, pageID, height)
	case efindtypes.ReadPolicyS2Q:
		if c.ghost != nil && c.ghost.Contains(pageID) {
			c.ghost.Remove(pageID)
			c.admitAm(img, pageID, height)
		} else if c.ghost != nil {
			c.ghost.Add(pageID)
		}
	case efindtypes.ReadPolicyFull2Q:
		if c.ghost != nil && c.ghost.Contains(pageID) {
			c.ghost.Remove(pageID)
			c.admitAm(img, pageID, height)
		} else {
			c.admitA1in(img, pageID, height)
		}
	}

	if c.metrics != nil {
		c.metrics.ReadBufferEntries.Set(float64(c.Len()))
	}
	return img, nil
}

// Put installs or refreshes page_id's image. force bypasses the
// ghost-membership gating S2Q/Full2Q otherwise apply on a first sight
// of a page — used by the flushing manager's force-into-read-buffer
// path (§4.6 force_into_read_buffer_on_flush), as opposed to the
// best-effort installation Get's miss path performs.
func (c *Cache) Put(img *page.Page, pageID efindtypes.PageId, height efindtypes.Height, force bool) bool {
	if c.policy == efindtypes.ReadPolicyNone {
		return false
	}

	required := entrySize(img)
	if required > c.capacityBytes {
		if c.metrics != nil {
			c.metrics.CacheTooSmallTotal.Inc()
		}
		return false
	}

	if idx, ok := c.index[pageID]; ok {
		n := &c.arena[idx]
		delta := required - n.size
		fits := delta <= 0
		if !fits {
			if n.inA1in {
				fits = c.a1inUsedBytes+delta <= c.a1inCapBytes
			} else {
				fits = c.ensureAmRoom(delta, height)
			}
		}
		if fits {
			if n.inA1in {
				c.a1inUsedBytes += delta
			} else {
				c.amUsedBytes += delta
			}
			n.image = img.Clone()
			n.height = height
			n.size = required
			if !n.inA1in {
				c.promoteAm(idx)
			}
			return true
		}
		c.evictNode(idx)
	}

	var ok bool
	switch c.policy {
	case efindtypes.ReadPolicyFull2Q:
		if force {
			ok = c.admitAm(img, pageID, height)
			break
		}
		if c.ghost != nil && c.ghost.Contains(pageID) {
			c.ghost.Remove(pageID)
			ok = c.admitAm(img, pageID, height)
		} else {
			ok = c.admitA1in(img, pageID, height)
		}
	case efindtypes.ReadPolicyS2Q:
		if force {
			ok = c.admitAm(img, pageID, height)
			break
		}
		if c.ghost != nil && c.ghost.Contains(pageID) {
			c.ghost.Remove(pageID)
			ok = c.admitAm(img, pageID, height)
		} else if c.ghost != nil {
			c.ghost.Add(pageID)
		}
	default: // LRU, HLRU
		ok = c.admitAm(img, pageID, height)
	}

	if ok && c.metrics != nil {
		c.metrics.ReadBufferEntries.Set(float64(c.Len()))
	}
	return ok
}

// UpdateIfNeeded refreshes a resident image in place, without moving it
// in recency order — the flushing manager's fallback when
// force_into_read_buffer_on_flush did not install the page itself
// (§4.7 step 6a).
func (c *Cache) UpdateIfNeeded(pageID efindtypes.PageId, height efindtypes.Height, flushedImage *page.Page) {
	idx, ok := c.index[pageID]
	if !ok {
		return
	}
	n := &c.arena[idx]
	required := entrySize(flushedImage)
	delta := required - n.size
	if delta > 0 {
		var fits bool
		if n.inA1in {
			fits = c.a1inUsedBytes+delta <= c.a1inCapBytes
		} else {
			fits = c.amUsedBytes+delta <= c.amCapBytes
		}
		if !fits {
			c.evictNode(idx)
			return
		}
	}
	if n.inA1in {
		c.a1inUsedBytes += delta
	} else {
		c.amUsedBytes += delta
	}
	n.image = flushedImage.Clone()
	n.height = height
	n.size = required
}
