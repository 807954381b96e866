package flush

import (
	"sort"

	"github.com/nainya/efind/pkg/efind/efindtypes"
)

// group is one candidate flushing unit: a contiguous (by sorted
// position, not necessarily by numeric page id) slice of scored
// candidates, plus its policy score (§4.7 step 4).
type group struct {
	members []scored
	score   float64
}

// buildGroups sorts surviving candidates by page_id ascending and
// splits them into consecutive groups of flushing_unit_size, scoring
// each per the configured policy.
func (m *Manager) buildGroups(cs []scored) []group {
	sort.Slice(cs, func(i, j int) bool { return cs[i].pageID < cs[j].pageID })

	var groups []group
	for i := 0; i < len(cs); i += m.flushingUnitSize {
		end := i + m.flushingUnitSize
		if end > len(cs) {
			end = len(cs)
		}
		members := cs[i:end]
		groups = append(groups, group{members: members, score: m.scoreGroup(members)})
	}
	return groups
}

func (m *Manager) scoreGroup(members []scored) float64 {
	var v float64
	for _, c := range members {
		nofmod := float64(c.nofmod)
		switch m.policy {
		case efindtypes.PolicyM, efindtypes.PolicyMT:
			v += nofmod
		case efindtypes.PolicyMTH:
			v += nofmod * float64(c.height+1)
		case efindtypes.PolicyMTHA:
			v += nofmod * float64(c.height+1) * c.area
		case efindtypes.PolicyMTHAO:
			v += nofmod * float64(c.height+1) * c.area * c.ov
		default:
			v += nofmod
		}
	}
	return v
}

// selectGroup picks the greatest-scoring group, ties broken by the
// ascending page-id order buildGroups already produced (§4.7 step 5).
func selectGroup(groups []group) group {
	best := groups[0]
	for _, g := range groups[1:] {
		if g.score > best.score {
			best = g
		}
	}
	return best
}

// applyWriteFilter applies the write-side temporal filter (§4.7 step
// 3) and returns the surviving scored candidates, preserving their
// computed metrics.
func (m *Manager) applyWriteFilter(cs []scored) []scored {
	if m.filter == nil {
		return cs
	}
	ids := make([]efindtypes.PageId, len(cs))
	byID := make(map[efindtypes.PageId]scored, len(cs))
	for i, c := range cs {
		ids[i] = c.pageID
		byID[c.pageID] = c
	}
	kept := m.filter.Filter(ids)
	out := make([]scored, 0, len(kept))
	for _, id := range kept {
		out = append(out, byID[id])
	}
	return out
}
