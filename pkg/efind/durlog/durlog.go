package durlog

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/nainya/efind/internal/logger"
	"github.com/nainya/efind/internal/metrics"
)

// Log is the append-only durability log consumed by the write buffer and
// flushing manager. The core is single-threaded cooperative (§5), so Log
// carries no locking of its own: callers must not interleave Append and
// Compact from more than one goroutine.
type Log struct {
	path string
	fd   *os.File

	sizeThreshold int64 // compaction trigger; §6 log_size
	curLogSize    int64

	offsetLastElem int64
	sizeLastElem   int64

	compactionNum int

	log     *logger.Logger
	metrics *metrics.Metrics
}

// Open opens the log file at path, creating it if absent, and positions
// the write cursor at the end of any existing content.
func Open(path string, sizeThreshold int64, log *logger.Logger, m *metrics.Metrics) (*Log, error) {
	fd, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, newIoFailure("open", err)
	}
	stat, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, newIoFailure("stat", err)
	}
	return &Log{
		path:          path,
		fd:            fd,
		sizeThreshold: sizeThreshold,
		curLogSize:    stat.Size(),
		log:           log,
		metrics:       m,
	}, nil
}

// Append writes one record after the caller has already applied the
// corresponding mutation to in-memory state (§4.3 mutation protocol: the
// log records committed state, it does not gate it).
func (l *Log) Append(r Record) error {
	data := r.encode()
	n, err := l.fd.Write(data)
	if err != nil {
		return newIoFailure("append", err)
	}
	l.offsetLastElem = l.curLogSize
	l.sizeLastElem = int64(n)
	l.curLogSize += int64(n)
	if l.metrics != nil {
		l.metrics.LogAppendsTotal.Inc()
		l.metrics.LogSizeBytes.Set(float64(l.curLogSize))
	}
	return nil
}

// AppendCreate, AppendMod, AppendDel, and AppendFlush are the four
// mutation-protocol entry points the write buffer and flushing manager
// call directly, sparing callers from constructing Records by hand.
func (l *Log) AppendCreate(pageID, height uint32) error {
	return l.Append(newCreate(pageID, height))
}

func (l *Log) AppendMod(pageID, height uint32, entry []byte) error {
	return l.Append(newMod(pageID, height, entry))
}

func (l *Log) AppendDel(pageID, height uint32) error {
	return l.Append(newDel(pageID, height))
}

func (l *Log) AppendFlush(pageIDs []uint32) error {
	return l.Append(newFlush(pageIDs))
}

// CurLogSize reports the current on-disk size of the log.
func (l *Log) CurLogSize() int64 { return l.curLogSize }

// OffsetLastElem and SizeLastElem describe the most recently appended
// record (§4.3 observability fields).
func (l *Log) OffsetLastElem() int64 { return l.offsetLastElem }
func (l *Log) SizeLastElem() int64   { return l.sizeLastElem }

// CompactionNum is the number of compaction passes performed so far.
func (l *Log) CompactionNum() int { return l.compactionNum }

// NeedsCompaction reports whether cur_log_size has crossed log_size.
func (l *Log) NeedsCompaction() bool {
	return l.curLogSize > l.sizeThreshold
}

// Close closes the underlying file handle.
func (l *Log) Close() error {
	return l.fd.Close()
}

// readAllRecords reads every record in the log file from the start,
// in file order. A truncated trailing record (a crash mid-append) is
// treated as the end of the usable log, not an error: the incomplete
// record was never a committed mutation.
func readAllRecords(fd *os.File) ([]Record, error) {
	if _, err := fd.Seek(0, io.SeekStart); err != nil {
		return nil, newIoFailure("seek", err)
	}
	var records []Record
	header := make([]byte, RecordHeaderSize)
	for {
		if _, err := io.ReadFull(fd, header); err != nil {
			if err == io.EOF {
				break
			}
			if err == io.ErrUnexpectedEOF {
				break
			}
			return nil, newIoFailure("read header", err)
		}
		kind := RecordKind(header[0])
		length := binary.LittleEndian.Uint32(header[1:5])
		payload := make([]byte, length)
		if _, err := io.ReadFull(fd, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, newIoFailure("read payload", err)
		}
		rec, err := decodeRecord(kind, payload)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
