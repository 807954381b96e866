package efindtest

import (
	"encoding/binary"
	"fmt"

	"github.com/nainya/efind/pkg/efind"
	"github.com/nainya/efind/pkg/efind/page"
)

// PageSize is the fixed page size FakeAdapter and FakeStorage agree on.
const PageSize = 4096

// FakeAdapter is a minimal TreeAdapter standing in for a real R-tree,
// R*-tree, or Hilbert R-tree: a simple length-prefixed wire format and
// an in-memory "on storage" map that ReadNode falls back to on a read-
// buffer miss.
type FakeAdapter struct {
	Kind   efind.IndexKind
	Misses int // incremented on every ReadNode call, for cache-residency assertions
	disk   map[efind.PageId]*page.Page
}

// NewFakeAdapter returns an adapter for the given index family with
// nothing yet on storage.
func NewFakeAdapter(kind efind.IndexKind) *FakeAdapter {
	return &FakeAdapter{Kind: kind, disk: make(map[efind.PageId]*page.Page)}
}

// Seed installs p as page_id's on-storage image, as if already flushed.
func (a *FakeAdapter) Seed(p *page.Page) {
	a.disk[p.PageID] = p.Clone()
}

// OnStorage returns the last image ReadNode would hand back for id.
func (a *FakeAdapter) OnStorage(id efind.PageId) (*page.Page, bool) {
	p, ok := a.disk[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (a *FakeAdapter) ReadNode(pageID efind.PageId, height efind.Height) (*page.Page, error) {
	a.Misses++
	if p, ok := a.disk[pageID]; ok {
		return p.Clone(), nil
	}
	return page.New(pageID, height, a.Kind), nil
}

// SerializePage also records p as the new on-storage image, mirroring
// what a real flush does once the bytes are durable.
func (a *FakeAdapter) SerializePage(p *page.Page, buf []byte) (int, error) {
	n := 4
	for _, e := range p.Entries {
		n += entrySize(e)
	}
	if n > len(buf) {
		return 0, fmt.Errorf("efindtest: page %d needs %d bytes, buffer has %d", p.PageID, n, len(buf))
	}

	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(p.Entries)))
	offset := 4
	for _, e := range p.Entries {
		offset += putEntry(buf[offset:], e)
	}

	a.disk[p.PageID] = p.Clone()
	return offset, nil
}

func (a *FakeAdapter) DeserializePage(buf []byte, pageID efind.PageId, height efind.Height) (*page.Page, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("efindtest: page %d buffer too short for header", pageID)
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	p := page.New(pageID, height, a.Kind)
	offset := 4
	for i := uint32(0); i < count; i++ {
		e, n, err := getEntry(buf[offset:])
		if err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, e)
		offset += n
	}
	return p, nil
}

func (a *FakeAdapter) EntrySize(e page.Entry) int { return e.Size() }
func (a *FakeAdapter) EntryKey(e page.Entry) efind.EntryKey { return e.Key }
func (a *FakeAdapter) EntryBbox(e page.Entry) *efind.Bbox   { return e.Bbox }
func (a *FakeAdapter) IndexType() efind.IndexKind           { return a.Kind }
func (a *FakeAdapter) PageSize() int                        { return PageSize }

// entrySize is the wire size putEntry/getEntry agree on: kind(1) +
// keylen(2)+key + child(8) + lhv(8) + haveBbox(1) [+ dims(1) +
// 16*dims] + payloadlen(4)+payload.
func entrySize(e page.Entry) int {
	n := 1 + 2 + len(e.Key) + 8 + 8 + 1
	if e.Bbox != nil {
		n += 1 + 16*len(e.Bbox.Low)
	}
	n += 4 + len(e.Payload)
	return n
}

func putEntry(buf []byte, e page.Entry) int {
	offset := 0
	buf[offset] = byte(e.Kind)
	offset++
	binary.LittleEndian.PutUint16(buf[offset:], uint16(len(e.Key)))
	offset += 2
	copy(buf[offset:], e.Key)
	offset += len(e.Key)
	binary.LittleEndian.PutUint64(buf[offset:], uint64(e.Child))
	offset += 8
	binary.LittleEndian.PutUint64(buf[offset:], e.LHV)
	offset += 8
	if e.Bbox != nil {
		buf[offset] = 1
		offset++
		buf[offset] = byte(len(e.Bbox.Low))
		offset++
		for _, v := range e.Bbox.Low {
			binary.LittleEndian.PutUint64(buf[offset:], mathFloatBits(v))
			offset += 8
		}
		for _, v := range e.Bbox.High {
			binary.LittleEndian.PutUint64(buf[offset:], mathFloatBits(v))
			offset += 8
		}
	} else {
		buf[offset] = 0
		offset++
	}
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(e.Payload)))
	offset += 4
	copy(buf[offset:], e.Payload)
	offset += len(e.Payload)
	return offset
}

func getEntry(buf []byte) (page.Entry, int, error) {
	if len(buf) < 1+2+8+8+1 {
		return page.Entry{}, 0, fmt.Errorf("efindtest: truncated entry")
	}
	offset := 0
	e := page.Entry{Kind: page.EntryKind(buf[offset])}
	offset++
	keyLen := int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2
	e.Key = efind.EntryKey(buf[offset : offset+keyLen])
	offset += keyLen
	e.Child = efind.PageId(binary.LittleEndian.Uint64(buf[offset:]))
	offset += 8
	e.LHV = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	haveBbox := buf[offset]
	offset++
	if haveBbox == 1 {
		dims := int(buf[offset])
		offset++
		low := make([]float64, dims)
		high := make([]float64, dims)
		for i := 0; i < dims; i++ {
			low[i] = mathFloatFromBits(binary.LittleEndian.Uint64(buf[offset:]))
			offset += 8
		}
		for i := 0; i < dims; i++ {
			high[i] = mathFloatFromBits(binary.LittleEndian.Uint64(buf[offset:]))
			offset += 8
		}
		e.Bbox = &efind.Bbox{Low: low, High: high}
	}
	payloadLen := int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	e.Payload = make([]byte, payloadLen)
	copy(e.Payload, buf[offset:offset+payloadLen])
	offset += payloadLen
	return e, offset, nil
}
