package efind

import "github.com/nainya/efind/pkg/efind/blockstore"

// BlockStorage adapts a *blockstore.Store to Storage, converting
// between PageId and the raw uint64 offsets blockstore works in terms
// of. It is the default on-disk Storage implementation for an Index;
// a tree adapter that manages its own page file may supply a different
// Storage implementation instead.
type BlockStorage struct {
	store *blockstore.Store
}

// OpenBlockStorage opens or creates the block file at path as an
// Index's Storage, in the given I/O mode (§6 alignment rule).
func OpenBlockStorage(path string, pageSize int, mode blockstore.IOMode) (*BlockStorage, error) {
	store, err := blockstore.Open(path, pageSize, mode)
	if err != nil {
		return nil, err
	}
	return &BlockStorage{store: store}, nil
}

func (b *BlockStorage) ReadOnePage(pageID PageId, buf []byte) error {
	return b.store.ReadOnePage(uint64(pageID), buf)
}

func (b *BlockStorage) WriteOnePage(pageID PageId, buf []byte) error {
	return b.store.WriteOnePage(uint64(pageID), buf)
}

func (b *BlockStorage) WritePages(firstPageID PageId, buf []byte, n int) error {
	return b.store.WritePages(uint64(firstPageID), buf, n)
}

// PageSize returns the block store's fixed page size.
func (b *BlockStorage) PageSize() int { return b.store.PageSize() }

// Close closes the underlying block file.
func (b *BlockStorage) Close() error { return b.store.Close() }
