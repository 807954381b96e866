package efind

import "github.com/nainya/efind/pkg/efind/page"

// TreeAdapter is the interface the core requires from the enclosing
// tree (C8): it owns node algorithms, page ids, and codecs, and hands
// the core just enough to merge, score, and serialize pages the core
// never interprets on its own.
type TreeAdapter interface {
	// ReadNode loads page_id's on-storage image, through the tree's own
	// caching if any. Called only on a read-buffer miss.
	ReadNode(pageID PageId, height Height) (*page.Page, error)

	// SerializePage writes p's on-storage form into buf, returning the
	// number of bytes used. buf is at least PageSize() bytes.
	SerializePage(p *page.Page, buf []byte) (int, error)

	// DeserializePage parses a page previously written by SerializePage.
	DeserializePage(buf []byte, pageID PageId, height Height) (*page.Page, error)

	// EntrySize, EntryKey, and EntryBbox expose the per-entry accessors
	// the write buffer and flushing manager need without interpreting
	// entry payloads themselves. EntryBbox may return nil when an entry
	// contributes no area (e.g. a deletion marker).
	EntrySize(e page.Entry) int
	EntryKey(e page.Entry) EntryKey
	EntryBbox(e page.Entry) *Bbox

	// IndexType picks leaf-vs-internal variant rules in area accounting.
	IndexType() IndexKind

	// PageSize is the fixed on-storage page size in bytes.
	PageSize() int
}

// Storage is the page-addressable block store interface the core
// consumes directly for flush I/O (§6), independent of the tree
// adapter's own read path.
type Storage interface {
	ReadOnePage(pageID PageId, buf []byte) error
	WriteOnePage(pageID PageId, buf []byte) error
	WritePages(firstPageID PageId, buf []byte, n int) error
}
