// Package efind implements the eFIND flash-aware buffer and flushing core:
// the write buffer, flushing manager, read buffer, temporal control, and
// durability log that sit between a spatial tree's algorithmic logic and a
// page-addressable block store.
package efind

import "github.com/nainya/efind/pkg/efind/efindtypes"

// The types below are aliases onto efindtypes so that callers of this
// package never need to import the leaf package directly, while page,
// modset, readbuffer, writebuffer, temporal, and flush — which this
// package imports — depend only on efindtypes and never on efind itself.

type PageId = efindtypes.PageId
type Height = efindtypes.Height
type NodeStatus = efindtypes.NodeStatus
type EntryKey = efindtypes.EntryKey
type IndexKind = efindtypes.IndexKind
type FlushingPolicy = efindtypes.FlushingPolicy
type TemporalControlPolicy = efindtypes.TemporalControlPolicy
type ReadBufferPolicy = efindtypes.ReadBufferPolicy
type Bbox = efindtypes.Bbox

const (
	StatusNew      = efindtypes.StatusNew
	StatusModified = efindtypes.StatusModified
	StatusDeleted  = efindtypes.StatusDeleted
)

const (
	IndexRTree        = efindtypes.IndexRTree
	IndexRStarTree    = efindtypes.IndexRStarTree
	IndexHilbertRTree = efindtypes.IndexHilbertRTree
)

const (
	PolicyM     = efindtypes.PolicyM
	PolicyMT    = efindtypes.PolicyMT
	PolicyMTH   = efindtypes.PolicyMTH
	PolicyMTHA  = efindtypes.PolicyMTHA
	PolicyMTHAO = efindtypes.PolicyMTHAO
)

const (
	TemporalNone      = efindtypes.TemporalNone
	TemporalRead      = efindtypes.TemporalRead
	TemporalWrite     = efindtypes.TemporalWrite
	TemporalReadWrite = efindtypes.TemporalReadWrite
)

const (
	ReadPolicyNone   = efindtypes.ReadPolicyNone
	ReadPolicyLRU    = efindtypes.ReadPolicyLRU
	ReadPolicyHLRU   = efindtypes.ReadPolicyHLRU
	ReadPolicyS2Q    = efindtypes.ReadPolicyS2Q
	ReadPolicyFull2Q = efindtypes.ReadPolicyFull2Q
)

// MinGhostListSize is the floor on the read ghost list's dynamic bound
// (§3 Temporal control).
const MinGhostListSize = efindtypes.MinGhostListSize
