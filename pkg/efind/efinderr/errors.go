// Package efinderr enumerates the eFIND core's error kinds: fatal errors
// that must abort and surface the operation, recoverable errors the core
// handles locally, and silent conditions that are only ever counted.
package efinderr

import "errors"

// Fatal errors abort the operation and surface to the caller. State is
// left unchanged except where a spec section explicitly says otherwise.
var (
	// ErrBadUsage covers preconditions the caller violated: modify on a
	// page with no live entry, modify after delete without an
	// intervening create, or create on a page already buffered and not
	// deleted. A mutation that still does not fit after the overflow
	// flush fails with ErrBufferOverflow instead.
	ErrBadUsage = errors.New("efind: bad usage")

	// ErrIoFailure covers any failed read, write, or log append. State is
	// left unmodified.
	ErrIoFailure = errors.New("efind: io failure")

	// ErrCorruptLog covers a length-prefix inconsistency discovered
	// during durability-log recovery.
	ErrCorruptLog = errors.New("efind: corrupt log")
)

// ErrBufferOverflow covers a write-buffer mutation that still exceeds
// capacity_bytes after the one mandatory flush §4.5 allows.
var ErrBufferOverflow = errors.New("efind: write buffer overflow")

// ErrCompactionFailed is recoverable: the old log is retained and the
// caller may continue using it.
var ErrCompactionFailed = errors.New("efind: compaction failed")

// IsFatal reports whether err wraps one of the Fatal sentinels above.
func IsFatal(err error) bool {
	return errors.Is(err, ErrBadUsage) || errors.Is(err, ErrIoFailure) ||
		errors.Is(err, ErrCorruptLog) || errors.Is(err, ErrBufferOverflow)
}
