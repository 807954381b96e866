package durlog

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/natefinch/atomic"

	"github.com/nainya/efind/pkg/efind/efinderr"
)

// Compact rewrites the log to contain only records not superseded by a
// subsequent FLUSH for the same page (§4.3). The rewrite is staged in
// memory and handed to atomic.WriteFile, which does the temp-file +
// fsync + rename dance over the original, so a crash mid-compaction
// leaves the previous log intact.
//
// Compaction failure is recoverable: the caller's existing Log keeps
// working against the old, uncompacted file.
func (l *Log) Compact() error {
	start := time.Now()
	bytesBefore := l.curLogSize

	all, err := readAllRecords(l.fd)
	if err != nil {
		return l.compactFailed(start, bytesBefore, err)
	}
	live := liveRecords(all)

	var buf bytes.Buffer
	for _, rec := range live {
		buf.Write(rec.encode())
	}
	written := int64(buf.Len())

	if err := atomic.WriteFile(l.path, bytes.NewReader(buf.Bytes())); err != nil {
		return l.compactFailed(start, bytesBefore, err)
	}

	if err := l.fd.Close(); err != nil {
		return l.compactFailed(start, bytesBefore, err)
	}
	fd, err := os.OpenFile(l.path, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return l.compactFailed(start, bytesBefore, err)
	}

	l.fd = fd
	l.curLogSize = written
	l.offsetLastElem = 0
	l.sizeLastElem = 0
	l.compactionNum++

	if l.log != nil {
		l.log.LogCompaction(l.compactionNum, time.Since(start), bytesBefore, written, nil)
	}
	if l.metrics != nil {
		l.metrics.CompactionsTotal.Inc()
		l.metrics.CompactionDuration.Observe(time.Since(start).Seconds())
		l.metrics.LogSizeBytes.Set(float64(written))
	}
	return nil
}

func (l *Log) compactFailed(start time.Time, bytesBefore int64, cause error) error {
	err := fmt.Errorf("durlog: compaction: %w: %v", efinderr.ErrCompactionFailed, cause)
	if l.log != nil {
		l.log.LogCompaction(l.compactionNum, time.Since(start), bytesBefore, bytesBefore, err)
	}
	return err
}
