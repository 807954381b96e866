package efindtest

import (
	"fmt"

	"github.com/nainya/efind/pkg/efind"
)

// FakeStorage is an in-memory Storage, recording every WriteOnePage and
// WritePages call so tests can assert the flushing manager issued one
// write per contiguous run of page ids.
type FakeStorage struct {
	PageSize int
	pages    map[efind.PageId][]byte
	Writes   []BatchWrite
}

// BatchWrite records one WriteOnePage or WritePages call for test
// assertions.
type BatchWrite struct {
	FirstPageID efind.PageId
	PageCount   int
}

// NewFakeStorage returns an empty store using PageSize-byte pages.
func NewFakeStorage(pageSize int) *FakeStorage {
	return &FakeStorage{PageSize: pageSize, pages: make(map[efind.PageId][]byte)}
}

func (s *FakeStorage) ReadOnePage(pageID efind.PageId, buf []byte) error {
	data, ok := s.pages[pageID]
	if !ok {
		return fmt.Errorf("efindtest: page %d never written", pageID)
	}
	if len(buf) != len(data) {
		return fmt.Errorf("efindtest: read buffer is %d bytes, page is %d", len(buf), len(data))
	}
	copy(buf, data)
	return nil
}

func (s *FakeStorage) WriteOnePage(pageID efind.PageId, buf []byte) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	s.pages[pageID] = cp
	s.Writes = append(s.Writes, BatchWrite{FirstPageID: pageID, PageCount: 1})
	return nil
}

func (s *FakeStorage) WritePages(firstPageID efind.PageId, buf []byte, n int) error {
	if len(buf) != n*s.PageSize {
		return fmt.Errorf("efindtest: batch buffer is %d bytes, want %d for %d pages", len(buf), n*s.PageSize, n)
	}
	for i := 0; i < n; i++ {
		cp := make([]byte, s.PageSize)
		copy(cp, buf[i*s.PageSize:(i+1)*s.PageSize])
		s.pages[firstPageID+efind.PageId(i)] = cp
	}
	s.Writes = append(s.Writes, BatchWrite{FirstPageID: firstPageID, PageCount: n})
	return nil
}
