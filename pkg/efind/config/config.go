// Package config defines the configuration surface of one eFIND index
// instance (§6) and its on-disk side-car header, grounded on the
// teacher's meta-page pattern (signature + fixed-layout fields,
// save/load/read split) in pkg/storage/kv.go, adapted from a B+Tree
// meta page to a small self-describing config header file.
package config

import "github.com/nainya/efind/pkg/efind/efindtypes"

// Config is the full configuration surface an Index is constructed
// from (§6 "Configuration surface").
type Config struct {
	WriteBufferSize int64
	ReadBufferSize  int64

	ReadBufferPolicy efindtypes.ReadBufferPolicy
	A1InPercSize     float64 // Full2Q only

	TemporalControlPolicy    efindtypes.TemporalControlPolicy
	ReadTemporalControlPerc  float64
	WriteTemporalControlSize int32
	WriteTCMinimumDistance   int32
	WriteTCStride            int32

	TimestampPerc    float64
	FlushingUnitSize int32
	FlushingPolicy   efindtypes.FlushingPolicy

	LogSize int64
	LogFile string

	PageSize  int32
	IndexKind efindtypes.IndexKind
}

// Default returns a Config with the spec's baseline values: LRU read
// buffer, no temporal control, policy M flushing, one page per unit.
func Default(pageSize int32, kind efindtypes.IndexKind) Config {
	return Config{
		WriteBufferSize:  4 << 20,
		ReadBufferSize:   4 << 20,
		ReadBufferPolicy: efindtypes.ReadPolicyLRU,
		FlushingUnitSize: 1,
		FlushingPolicy:   efindtypes.PolicyM,
		LogSize:          16 << 20,
		LogFile:          "efind.log",
		PageSize:         pageSize,
		IndexKind:        kind,
	}
}

// Validate reports the first configuration precondition Config
// violates, or nil if it is usable as-is.
func (c Config) Validate() error {
	switch {
	case c.WriteBufferSize <= 0:
		return errWriteBufferSize
	case c.ReadBufferPolicy != efindtypes.ReadPolicyNone && c.ReadBufferSize <= 0:
		return errReadBufferSize
	case c.FlushingUnitSize <= 0:
		return errFlushingUnitSize
	case c.ReadBufferPolicy == efindtypes.ReadPolicyFull2Q && (c.A1InPercSize <= 0 || c.A1InPercSize >= 100):
		return errA1InPercSize
	case c.PageSize <= 0:
		return errPageSize
	case c.LogFile == "":
		return errLogFile
	default:
		return nil
	}
}
