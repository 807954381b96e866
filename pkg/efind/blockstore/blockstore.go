// Package blockstore implements the page-addressable storage interface
// the eFIND core consumes (§6): single-page and multi-page positioned
// reads/writes, with optional direct I/O and the page-aligned buffer
// allocation that direct I/O requires.
package blockstore

import (
	"fmt"
	"os"
	"path"
	"syscall"
)

// IOMode selects between buffered and direct I/O (§6 alignment rule).
type IOMode uint8

const (
	IOBuffered IOMode = iota
	IODirect
)

// Store is one open block file. It has no page cache of its own — that
// is the read buffer's job — and no concept of page contents: callers
// pass already-serialized page images.
type Store struct {
	path     string
	fd       *os.File
	pageSize int
	mode     IOMode
}

// Open opens or creates the block file at path. pageSize must match the
// size every ReadOnePage/WriteOnePage/WritePages call uses.
func Open(path string, pageSize int, mode IOMode) (*Store, error) {
	flags := os.O_RDWR | os.O_CREATE
	if mode == IODirect {
		flags |= directFlag
	}
	fd, err := openWithDirSync(path, flags)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, fd: fd, pageSize: pageSize, mode: mode}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.fd.Close()
}

// PageSize returns the store's fixed page size.
func (s *Store) PageSize() int { return s.pageSize }

// ReadOnePage reads exactly one page into buf at its storage offset.
// buf must be pageSize bytes, and page_size-aligned when the store was
// opened with IODirect.
func (s *Store) ReadOnePage(pageID uint64, buf []byte) error {
	if len(buf) != s.pageSize {
		return fmt.Errorf("blockstore: read buffer is %d bytes, want %d", len(buf), s.pageSize)
	}
	if s.mode == IODirect && !isAligned(buf, s.pageSize) {
		return fmt.Errorf("blockstore: read buffer is not page-aligned for direct I/O")
	}
	off := int64(pageID) * int64(s.pageSize)
	n, err := syscall.Pread(int(s.fd.Fd()), buf, off)
	if err != nil {
		return fmt.Errorf("blockstore: pread page %d: %w", pageID, err)
	}
	if n != s.pageSize {
		return fmt.Errorf("blockstore: short read of page %d: got %d of %d bytes", pageID, n, s.pageSize)
	}
	return nil
}

// WriteOnePage writes exactly one page at its storage offset.
func (s *Store) WriteOnePage(pageID uint64, buf []byte) error {
	if len(buf) != s.pageSize {
		return fmt.Errorf("blockstore: write buffer is %d bytes, want %d", len(buf), s.pageSize)
	}
	if s.mode == IODirect && !isAligned(buf, s.pageSize) {
		return fmt.Errorf("blockstore: write buffer is not page-aligned for direct I/O")
	}
	off := int64(pageID) * int64(s.pageSize)
	n, err := syscall.Pwrite(int(s.fd.Fd()), buf, off)
	if err != nil {
		return fmt.Errorf("blockstore: pwrite page %d: %w", pageID, err)
	}
	if n != s.pageSize {
		return fmt.Errorf("blockstore: short write of page %d: wrote %d of %d bytes", pageID, n, s.pageSize)
	}
	return nil
}

// WritePages issues one contiguous, positioned write of n pages starting
// at firstPageID — the single sequential I/O the flushing manager relies
// on for a flushing unit (§4.7 step 7). buf must be exactly n*pageSize
// bytes and page_size-aligned when the store is in direct-I/O mode.
func (s *Store) WritePages(firstPageID uint64, buf []byte, n int) error {
	want := n * s.pageSize
	if len(buf) != want {
		return fmt.Errorf("blockstore: batch buffer is %d bytes, want %d for %d pages", len(buf), want, n)
	}
	if s.mode == IODirect && !isAligned(buf, s.pageSize) {
		return fmt.Errorf("blockstore: batch buffer is not page-aligned for direct I/O")
	}
	off := int64(firstPageID) * int64(s.pageSize)
	written, err := syscall.Pwrite(int(s.fd.Fd()), buf, off)
	if err != nil {
		return fmt.Errorf("blockstore: pwrite %d pages at %d: %w", n, firstPageID, err)
	}
	if written != want {
		return fmt.Errorf("blockstore: short batch write at page %d: wrote %d of %d bytes", firstPageID, written, want)
	}
	return nil
}

// openWithDirSync opens (creating if absent) the file at the given
// flags, and fsyncs its containing directory so the create itself is
// durable — the directory-entry half of a crash-safe file creation.
func openWithDirSync(file string, flags int) (*os.File, error) {
	fd, err := os.OpenFile(file, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("blockstore: open %s: %w", file, err)
	}

	dir, err := os.Open(path.Dir(file))
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("blockstore: open directory for %s: %w", file, err)
	}
	defer dir.Close()

	if err := dir.Sync(); err != nil {
		fd.Close()
		return nil, fmt.Errorf("blockstore: fsync directory for %s: %w", file, err)
	}

	return fd, nil
}
