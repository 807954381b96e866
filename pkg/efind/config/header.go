package config

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/nainya/efind/pkg/efind/efindtypes"
)

// sig is the side-car header's 16-byte signature, the config header's
// analogue of the teacher's DB_SIG.
const sig = "EFINDCFG01\x00\x00\x00\x00\x00\x00"

// logFileFieldSize is the fixed width of the header's embedded log_file
// path, padded with zero bytes.
const logFileFieldSize = 256

// HeaderSize is the total encoded size of one config header.
const HeaderSize = 16 /*sig*/ + 8*2 /*write/read buffer size*/ + 1 + 7 /*read policy+pad*/ +
	8 /*a1in perc*/ + 1 + 7 /*temporal policy+pad*/ + 8 /*read tc perc*/ +
	4*3 /*write tc size/min dist/stride*/ + 8 /*timestamp perc*/ +
	4 /*flushing unit size*/ + 1 + 3 /*flushing policy+pad*/ +
	8 /*log size*/ + 4 /*page size*/ + 1 + 3 /*index kind+pad*/ +
	2 + 2 /*log file len+pad*/ + logFileFieldSize

func init() {
	if len(sig) != 16 {
		panic("config: sig must be exactly 16 bytes")
	}
}

// Encode writes c's fixed-layout header, the side-car equivalent of the
// teacher's saveMeta.
func (c Config) Encode() ([]byte, error) {
	if len(c.LogFile) > logFileFieldSize {
		return nil, errLogPathTooLong
	}

	buf := make([]byte, HeaderSize)
	copy(buf[:16], sig)
	off := 16

	binary.LittleEndian.PutUint64(buf[off:], uint64(c.WriteBufferSize))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(c.ReadBufferSize))
	off += 8

	buf[off] = byte(c.ReadBufferPolicy)
	off += 8 // 1 byte + 7 padding
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(c.A1InPercSize))
	off += 8

	buf[off] = byte(c.TemporalControlPolicy)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(c.ReadTemporalControlPerc))
	off += 8

	binary.LittleEndian.PutUint32(buf[off:], uint32(c.WriteTemporalControlSize))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(c.WriteTCMinimumDistance))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(c.WriteTCStride))
	off += 4

	binary.LittleEndian.PutUint64(buf[off:], math.Float64bits(c.TimestampPerc))
	off += 8

	binary.LittleEndian.PutUint32(buf[off:], uint32(c.FlushingUnitSize))
	off += 4
	buf[off] = byte(c.FlushingPolicy)
	off += 4

	binary.LittleEndian.PutUint64(buf[off:], uint64(c.LogSize))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(c.PageSize))
	off += 4
	buf[off] = byte(c.IndexKind)
	off += 4

	binary.LittleEndian.PutUint16(buf[off:], uint16(len(c.LogFile)))
	off += 4 // 2 bytes + 2 padding
	copy(buf[off:off+logFileFieldSize], c.LogFile)
	off += logFileFieldSize

	if off != HeaderSize {
		panic(fmt.Sprintf("config: encode wrote %d bytes, want %d", off, HeaderSize))
	}
	return buf, nil
}

// Decode parses a header previously produced by Encode, the side-car
// equivalent of the teacher's loadMeta/readMeta.
func Decode(buf []byte) (Config, error) {
	if len(buf) < HeaderSize {
		return Config{}, errShortHeader
	}
	if string(buf[:16]) != sig {
		return Config{}, errBadSignature
	}

	var c Config
	off := 16

	c.WriteBufferSize = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	c.ReadBufferSize = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8

	c.ReadBufferPolicy = efindtypes.ReadBufferPolicy(buf[off])
	off += 8
	c.A1InPercSize = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8

	c.TemporalControlPolicy = efindtypes.TemporalControlPolicy(buf[off])
	off += 8
	c.ReadTemporalControlPerc = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8

	c.WriteTemporalControlSize = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	c.WriteTCMinimumDistance = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	c.WriteTCStride = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	c.TimestampPerc = math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8

	c.FlushingUnitSize = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	c.FlushingPolicy = efindtypes.FlushingPolicy(buf[off])
	off += 4

	c.LogSize = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	c.PageSize = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	c.IndexKind = efindtypes.IndexKind(buf[off])
	off += 4

	pathLen := binary.LittleEndian.Uint16(buf[off:])
	off += 4
	if int(pathLen) > logFileFieldSize {
		return Config{}, errLogPathTooLong
	}
	c.LogFile = string(buf[off : off+int(pathLen)])
	off += logFileFieldSize

	return c, nil
}

// Save encodes c and writes it to path, truncating any prior contents —
// the side-car equivalent of the teacher's writeMeta, minus the B+Tree's
// copy-on-write revert path (the header is rewritten wholesale, not
// updated in place under a two-phase commit, since it changes only at
// index-open time, never mid-operation, per §6 design notes).
func (c Config) Save(path string) error {
	buf, err := c.Encode()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return f.Sync()
}

// Load reads and decodes the header at path.
func Load(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Decode(buf)
}
