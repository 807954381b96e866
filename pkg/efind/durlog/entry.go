package durlog

import (
	"encoding/binary"
	"fmt"
)

// RecordKind tags the four durability-log record shapes (§6).
type RecordKind byte

const (
	RecordCreate RecordKind = 1
	RecordMod    RecordKind = 2
	RecordDel    RecordKind = 3
	RecordFlush  RecordKind = 4
)

func (k RecordKind) String() string {
	switch k {
	case RecordCreate:
		return "CREATE"
	case RecordMod:
		return "MOD"
	case RecordDel:
		return "DEL"
	case RecordFlush:
		return "FLUSH"
	default:
		return fmt.Sprintf("RecordKind(%d)", byte(k))
	}
}

// RecordHeaderSize is the on-disk size of the kind+length prefix that
// precedes every record's payload.
const RecordHeaderSize = 1 + 4

// Record is one durability-log entry. PageID and Height are carried as
// the wire format's i32 fields, widened to Go's page-id/height types at
// the call site; Entry and PageIDs are populated only for the record
// kinds that use them.
type Record struct {
	Kind    RecordKind
	PageID  uint32
	Height  uint32
	Entry   []byte   // RecordMod only: the serialized replacement entry
	PageIDs []uint32 // RecordFlush only
}

func newCreate(pageID, height uint32) Record {
	return Record{Kind: RecordCreate, PageID: pageID, Height: height}
}

func newMod(pageID, height uint32, entry []byte) Record {
	return Record{Kind: RecordMod, PageID: pageID, Height: height, Entry: entry}
}

func newDel(pageID, height uint32) Record {
	return Record{Kind: RecordDel, PageID: pageID, Height: height}
}

func newFlush(pageIDs []uint32) Record {
	return Record{Kind: RecordFlush, PageIDs: pageIDs}
}

// payload encodes everything after the kind+length prefix.
func (r Record) payload() []byte {
	switch r.Kind {
	case RecordCreate, RecordDel:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint32(buf[0:4], r.PageID)
		binary.LittleEndian.PutUint32(buf[4:8], r.Height)
		return buf
	case RecordMod:
		buf := make([]byte, 8+len(r.Entry))
		binary.LittleEndian.PutUint32(buf[0:4], r.PageID)
		binary.LittleEndian.PutUint32(buf[4:8], r.Height)
		copy(buf[8:], r.Entry)
		return buf
	case RecordFlush:
		buf := make([]byte, 4+4*len(r.PageIDs))
		binary.LittleEndian.PutUint32(buf[0:4], uint32(len(r.PageIDs)))
		for i, id := range r.PageIDs {
			binary.LittleEndian.PutUint32(buf[4+4*i:8+4*i], id)
		}
		return buf
	default:
		panic(fmt.Sprintf("durlog: unknown record kind %d", byte(r.Kind)))
	}
}

// encode returns the full on-disk representation of the record.
func (r Record) encode() []byte {
	p := r.payload()
	buf := make([]byte, RecordHeaderSize+len(p))
	buf[0] = byte(r.Kind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(p)))
	copy(buf[5:], p)
	return buf
}

// size is the number of bytes encode would produce, without building it.
func (r Record) size() int {
	switch r.Kind {
	case RecordCreate, RecordDel:
		return RecordHeaderSize + 8
	case RecordMod:
		return RecordHeaderSize + 8 + len(r.Entry)
	case RecordFlush:
		return RecordHeaderSize + 4 + 4*len(r.PageIDs)
	default:
		return RecordHeaderSize
	}
}

// decodeRecord parses a record's payload, given its kind and declared
// length. It never trusts the length beyond what len(payload) confirms.
func decodeRecord(kind RecordKind, payload []byte) (Record, error) {
	switch kind {
	case RecordCreate, RecordDel:
		if len(payload) != 8 {
			return Record{}, newCorrupt("%s payload is %d bytes, want 8", kind, len(payload))
		}
		return Record{
			Kind:   kind,
			PageID: binary.LittleEndian.Uint32(payload[0:4]),
			Height: binary.LittleEndian.Uint32(payload[4:8]),
		}, nil
	case RecordMod:
		if len(payload) < 8 {
			return Record{}, newCorrupt("MOD payload is %d bytes, want at least 8", len(payload))
		}
		entry := make([]byte, len(payload)-8)
		copy(entry, payload[8:])
		return Record{
			Kind:   kind,
			PageID: binary.LittleEndian.Uint32(payload[0:4]),
			Height: binary.LittleEndian.Uint32(payload[4:8]),
			Entry:  entry,
		}, nil
	case RecordFlush:
		if len(payload) < 4 {
			return Record{}, newCorrupt("FLUSH payload is %d bytes, want at least 4", len(payload))
		}
		n := binary.LittleEndian.Uint32(payload[0:4])
		want := 4 + 4*int(n)
		if len(payload) != want {
			return Record{}, newCorrupt("FLUSH declares %d page ids but payload is %d bytes, want %d", n, len(payload), want)
		}
		ids := make([]uint32, n)
		for i := range ids {
			ids[i] = binary.LittleEndian.Uint32(payload[4+4*i : 8+4*i])
		}
		return Record{Kind: kind, PageIDs: ids}, nil
	default:
		return Record{}, newCorrupt("unknown record kind %d", byte(kind))
	}
}
