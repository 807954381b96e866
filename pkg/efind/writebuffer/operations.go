package writebuffer

import (
	"github.com/nainya/efind/pkg/efind/efinderr"
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/modset"
	"github.com/nainya/efind/pkg/efind/page"
)

// CreateNode installs a fresh New entry for page_id, or resets an
// existing Deleted entry back to New. Fails with ErrBadUsage if an
// entry is already present in any other status (§4.5 create_node).
func (b *Buffer) CreateNode(pageID efindtypes.PageId, height efindtypes.Height) error {
	if e, ok := b.entries[pageID]; ok {
		if e.status != efindtypes.StatusDeleted {
			return efinderr.ErrBadUsage
		}
		e.status = efindtypes.StatusNew
		e.height = height
		e.modifyCount = 1
		e.lastModifiedMs = now()
		if err := b.log.AppendCreate(uint32(pageID), uint32(height)); err != nil {
			return err
		}
		b.syncGauge()
		return nil
	}

	if err := b.ensureCapacity(fixedEntryOverhead); err != nil {
		return err
	}
	b.entries[pageID] = &writeEntry{
		status:         efindtypes.StatusNew,
		height:         height,
		mods:           modset.New(),
		modifyCount:    1,
		lastModifiedMs: now(),
	}
	b.currentBytes += fixedEntryOverhead
	if err := b.log.AppendCreate(uint32(pageID), uint32(height)); err != nil {
		return err
	}
	b.syncGauge()
	return nil
}

// ModifyNode merges delta into page_id's modification set. The entry
// must already be present and not Deleted. A flushed-away target (the
// flushing manager chose this exact page while the overflow flush ran)
// is recreated as a fresh Modified entry holding just this delta, since
// its prior state is already durable on storage.
func (b *Buffer) ModifyNode(pageID efindtypes.PageId, height efindtypes.Height, delta page.Entry) error {
	e, ok := b.entries[pageID]
	if !ok {
		return efinderr.ErrBadUsage
	}
	if e.status == efindtypes.StatusDeleted {
		return efinderr.ErrBadUsage
	}

	key := delta.Key
	netAdded := delta.Size()
	if old, found := e.mods.Get(key); found {
		netAdded -= old.Entry.Size()
	}
	if netAdded > 0 {
		if err := b.ensureCapacity(netAdded); err != nil {
			return err
		}
		e, ok = b.entries[pageID]
		if !ok {
			e = &writeEntry{status: efindtypes.StatusModified, height: height, mods: modset.New(), modifyCount: 0}
			if err := b.ensureCapacity(fixedEntryOverhead); err != nil {
				return err
			}
			b.entries[pageID] = e
			b.currentBytes += fixedEntryOverhead
		}
	}

	added := e.mods.Insert(modset.EntryDelta{Key: key, Entry: delta})
	e.modsBytes += added
	b.currentBytes += added
	e.modifyCount++
	e.lastModifiedMs = now()

	if err := b.log.AppendMod(uint32(pageID), uint32(height), encodeEntry(delta)); err != nil {
		return err
	}
	b.syncGauge()
	return nil
}

// DeleteNode marks page_id Deleted and frees its buffered mods. Valid
// regardless of prior state, including absence (§4.5 delete_node).
func (b *Buffer) DeleteNode(pageID efindtypes.PageId, height efindtypes.Height) error {
	e, ok := b.entries[pageID]
	if !ok {
		e = &writeEntry{status: efindtypes.StatusDeleted, height: height, mods: modset.New()}
		b.entries[pageID] = e
		b.currentBytes += fixedEntryOverhead
	}

	freed := e.mods.DestroyAll()
	e.modsBytes = 0
	b.currentBytes -= freed
	e.status = efindtypes.StatusDeleted
	e.height = height
	e.modifyCount++
	e.lastModifiedMs = now()

	if err := b.log.AppendDel(uint32(pageID), uint32(height)); err != nil {
		return err
	}
	b.syncGauge()
	return nil
}

// RetrieveNode returns page_id's current logical image: the read
// buffer's (or storage's) image with buffered mods merged on top. It
// returns (nil, nil) — eFIND's Option<Page> — when the resident entry
// is Deleted (§4.5 retrieve_node).
func (b *Buffer) RetrieveNode(pageID efindtypes.PageId, height efindtypes.Height) (*page.Page, error) {
	return b.retrieve(pageID, height, false)
}

// RetrieveForFlush is RetrieveNode's flushing-manager variant: a
// Deleted entry still yields an empty tombstone image instead of nil,
// so the flushing manager always has something to serialize and write
// for every selected candidate (§4.5: "None iff ... caller is not
// flushing").
func (b *Buffer) RetrieveForFlush(pageID efindtypes.PageId, height efindtypes.Height) (*page.Page, error) {
	return b.retrieve(pageID, height, true)
}

func (b *Buffer) retrieve(pageID efindtypes.PageId, height efindtypes.Height, forFlush bool) (*page.Page, error) {
	e, ok := b.entries[pageID]
	if !ok {
		if b.reader == nil {
			return page.New(pageID, height, b.kind), nil
		}
		return b.reader.Get(pageID, height)
	}

	switch e.status {
	case efindtypes.StatusDeleted:
		if !forFlush {
			return nil, nil
		}
		return page.New(pageID, height, b.kind), nil
	case efindtypes.StatusNew:
		base := page.New(pageID, height, b.kind)
		return mergeMods(base, e.mods, b.kind), nil
	default: // Modified
		var base *page.Page
		var err error
		if b.reader != nil {
			base, err = b.reader.Get(pageID, height)
			if err != nil {
				return nil, err
			}
		} else {
			base = page.New(pageID, height, b.kind)
		}
		return mergeMods(base.Clone(), e.mods, b.kind), nil
	}
}

// mergeMods applies every delta in key order onto base, replacing or
// appending by key, then re-sorts by Hilbert order if the index family
// requires it (§4.5 merge algorithm).
func mergeMods(base *page.Page, mods *modset.ModSet, kind efindtypes.IndexKind) *page.Page {
	mods.Each(func(d modset.EntryDelta) {
		base.Put(d.Entry)
	})
	if kind == efindtypes.IndexHilbertRTree {
		base.SortHilbert()
	}
	return base
}

// ReplayCreate, ReplayMod, and ReplayDel implement durlog.Replayer,
// reconstructing write-buffer state from the live log records recovery
// selects (§8 invariant 5).
func (b *Buffer) ReplayCreate(pageID, height uint32) error {
	id, h := efindtypes.PageId(pageID), efindtypes.Height(height)
	b.entries[id] = &writeEntry{
		status:         efindtypes.StatusNew,
		height:         h,
		mods:           modset.New(),
		modifyCount:    1,
		lastModifiedMs: now(),
	}
	b.currentBytes += fixedEntryOverhead
	b.syncGauge()
	return nil
}

func (b *Buffer) ReplayMod(pageID, height uint32, entryBytes []byte) error {
	id, h := efindtypes.PageId(pageID), efindtypes.Height(height)
	e, ok := b.entries[id]
	if !ok {
		e = &writeEntry{status: efindtypes.StatusModified, height: h, mods: modset.New()}
		b.entries[id] = e
		b.currentBytes += fixedEntryOverhead
	}
	entry, err := decodeEntry(entryBytes)
	if err != nil {
		return err
	}
	added := e.mods.Insert(modset.EntryDelta{Key: entry.Key, Entry: entry})
	e.modsBytes += added
	b.currentBytes += added
	e.modifyCount++
	e.lastModifiedMs = now()
	e.height = h
	b.syncGauge()
	return nil
}

func (b *Buffer) ReplayDel(pageID, height uint32) error {
	id, h := efindtypes.PageId(pageID), efindtypes.Height(height)
	e, ok := b.entries[id]
	if !ok {
		e = &writeEntry{status: efindtypes.StatusDeleted, height: h, mods: modset.New()}
		b.entries[id] = e
		b.currentBytes += fixedEntryOverhead
	}
	freed := e.mods.DestroyAll()
	e.modsBytes = 0
	b.currentBytes -= freed
	e.status = efindtypes.StatusDeleted
	e.height = h
	e.modifyCount++
	e.lastModifiedMs = now()
	b.syncGauge()
	return nil
}
