package temporal

import (
	"github.com/nainya/efind/internal/metrics"
	"github.com/nainya/efind/pkg/efind/efindtypes"
)

// WriteControl is the write-side flushing filter (§4.6): it reclassifies
// the flushing manager's raw candidate list against recent write
// locality, when doing so can still fill a flushing unit.
type WriteControl struct {
	policy           efindtypes.TemporalControlPolicy
	recency          *WriteRecencyList
	minimumDistance  int64
	stride           int64
	flushingUnitSize int
	metrics          *metrics.Metrics
}

// NewWriteControl returns a write-control filter over the given
// recency list and configuration parameters.
func NewWriteControl(policy efindtypes.TemporalControlPolicy, recency *WriteRecencyList, minimumDistance, stride, flushingUnitSize int, m *metrics.Metrics) *WriteControl {
	return &WriteControl{
		policy:           policy,
		recency:          recency,
		minimumDistance:  int64(minimumDistance),
		stride:           int64(stride),
		flushingUnitSize: flushingUnitSize,
		metrics:          m,
	}
}

func absDiff(a, b efindtypes.PageId) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		d = -d
	}
	return d
}

func dedupUnion(a, b []efindtypes.PageId) []efindtypes.PageId {
	seen := make(map[efindtypes.PageId]bool, len(a)+len(b))
	out := make([]efindtypes.PageId, 0, len(a)+len(b))
	for _, list := range [][]efindtypes.PageId{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Filter reclassifies candidates against W, returning the filtered
// list per §4.6's priority rule: S if it strictly dominates T and meets
// the unit size; else T if it meets the unit size; else S∪T if that
// meets the unit size; else candidates unchanged. When write temporal
// control is disabled or W is empty it returns candidates unchanged
// without classifying them.
func (wc *WriteControl) Filter(candidates []efindtypes.PageId) []efindtypes.PageId {
	if !wc.policy.WriteEnabled() || wc.recency.Len() == 0 {
		return candidates
	}

	w := wc.recency.Snapshot()
	var seq, stride []efindtypes.PageId
	for _, c := range candidates {
		isSeq, isStride := false, false
		for _, wi := range w {
			if wi == c {
				continue
			}
			d := absDiff(wi, c)
			if d <= wc.minimumDistance {
				isSeq = true
			}
			if d >= wc.stride {
				isStride = true
			}
		}
		switch {
		case isSeq:
			seq = append(seq, c)
		case isStride:
			stride = append(stride, c)
		}
	}

	switch {
	case len(seq) > len(stride) && len(seq) >= wc.flushingUnitSize:
		wc.inc(func(m *metrics.Metrics) { m.TemporalSeqTotal.Inc() })
		return seq
	case len(stride) >= wc.flushingUnitSize:
		wc.inc(func(m *metrics.Metrics) { m.TemporalStrideTotal.Inc() })
		return stride
	default:
		union := dedupUnion(seq, stride)
		if len(union) >= wc.flushingUnitSize {
			wc.inc(func(m *metrics.Metrics) { m.TemporalMixedTotal.Inc() })
			return union
		}
		wc.inc(func(m *metrics.Metrics) { m.TemporalFilledTotal.Inc() })
		return candidates
	}
}

func (wc *WriteControl) inc(f func(*metrics.Metrics)) {
	if wc.metrics != nil {
		f(wc.metrics)
	}
}
