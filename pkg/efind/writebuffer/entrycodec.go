package writebuffer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
)

// encodeEntry produces the durability log's serialized_entry_bytes for
// a MOD record: kind(1) + keylen(2)+key + child(8) + lhv(8) +
// haveBbox(1) [+ dims(1) + 2*dims*float64] + payloadlen(4)+payload.
// Independent of the tree adapter's SerializePage: the log never
// interprets whole pages, only single replacement entries.
func encodeEntry(e page.Entry) []byte {
	size := 1 + 2 + len(e.Key) + 8 + 8 + 1
	if e.Bbox != nil {
		size += 1 + 16*len(e.Bbox.Low)
	}
	size += 4 + len(e.Payload)

	buf := make([]byte, size)
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
			binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(v))
			offset += 8
		}
		for _, v := range e.Bbox.High {
			binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(v))
			offset += 8
		}
	} else {
		buf[offset] = 0
		offset++
	}
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(e.Payload)))
	offset += 4
	copy(buf[offset:], e.Payload)
	return buf
}

// decodeEntry parses an entry previously produced by encodeEntry, as
// read back from a MOD log record during recovery.
func decodeEntry(buf []byte) (page.Entry, error) {
	if len(buf) < 1+2+8+8+1 {
		return page.Entry{}, fmt.Errorf("writebuffer: truncated log entry")
	}
	offset := 0
	e := page.Entry{Kind: page.EntryKind(buf[offset])}
	offset++
	keyLen := int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2
	if offset+keyLen > len(buf) {
		return page.Entry{}, fmt.Errorf("writebuffer: truncated log entry key")
	}
	e.Key = efindtypes.EntryKey(buf[offset : offset+keyLen])
	offset += keyLen
	if offset+8+8+1 > len(buf) {
		return page.Entry{}, fmt.Errorf("writebuffer: truncated log entry fields")
	}
	e.Child = efindtypes.PageId(binary.LittleEndian.Uint64(buf[offset:]))
	offset += 8
	e.LHV = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	haveBbox := buf[offset]
	offset++
	if haveBbox == 1 {
		if offset >= len(buf) {
			return page.Entry{}, fmt.Errorf("writebuffer: truncated log entry bbox dims")
		}
		dims := int(buf[offset])
		offset++
		need := 16 * dims
		if offset+need > len(buf) {
			return page.Entry{}, fmt.Errorf("writebuffer: truncated log entry bbox coords")
		}
		low := make([]float64, dims)
		high := make([]float64, dims)
		for i := 0; i < dims; i++ {
			low[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset:]))
			offset += 8
		}
		for i := 0; i < dims; i++ {
			high[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[offset:]))
			offset += 8
		}
		e.Bbox = &efindtypes.Bbox{Low: low, High: high}
	}
	if offset+4 > len(buf) {
		return page.Entry{}, fmt.Errorf("writebuffer: truncated log entry payload length")
	}
	payloadLen := int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	if offset+payloadLen > len(buf) {
		return page.Entry{}, fmt.Errorf("writebuffer: truncated log entry payload")
	}
	e.Payload = make([]byte, payloadLen)
	copy(e.Payload, buf[offset:offset+payloadLen])
	return e, nil
}
