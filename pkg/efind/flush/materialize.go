package flush

import (
	"time"

	"github.com/nainya/efind/pkg/efind/blockstore"
	"github.com/nainya/efind/pkg/efind/efindtypes"
	"github.com/nainya/efind/pkg/efind/page"
)

// materializeAndWrite runs §4.7 steps 6-8 for one chosen set of
// members: merge each page's image, install/refresh it in the read
// buffer, append it to the write recency list, serialize it, write it
// to storage, append the FLUSH record, then remove it from the write
// buffer. Members are assumed already sorted by page_id ascending.
func (m *Manager) materializeAndWrite(members []scored, trigger string) (*FlushResult, error) {
	start := time.Now()
	live := make([]scored, 0, len(members))
	for _, c := range members {
		if !m.wb.Contains(c.pageID) {
			if m.metrics != nil {
				m.metrics.UnnecessaryFlushed.Inc()
			}
			continue
		}
		live = append(live, c)
	}
	if len(live) == 0 {
		return nil, nil
	}

	images := make([]*page.Page, len(live))
	for i, c := range live {
		img, err := m.wb.RetrieveForFlush(c.pageID, c.height)
		if err != nil {
			return nil, err
		}
		images[i] = img

		installed := false
		if m.ghost != nil && m.rb != nil {
			installed = m.ghost.ForceIntoReadBufferOnFlush(m.rb, c.pageID, c.height, img)
		}
		if !installed && m.rb != nil {
			m.rb.UpdateIfNeeded(c.pageID, c.height, img)
		}
		if m.recency != nil {
			m.recency.Append(c.pageID)
		}
	}

	pageSize := m.adapter.PageSize()
	if err := m.writeRuns(live, images, pageSize); err != nil {
		return nil, err
	}

	ids32 := make([]uint32, len(live))
	pageIDs := make([]efindtypes.PageId, len(live))
	totalBytes := 0
	for i, c := range live {
		ids32[i] = uint32(c.pageID)
		pageIDs[i] = c.pageID
	}
	if err := m.log.AppendFlush(ids32); err != nil {
		return nil, err
	}

	for _, c := range live {
		totalBytes += m.wb.RemoveEntry(c.pageID)
	}

	if m.metrics != nil {
		m.metrics.FlushesTotal.WithLabelValues(trigger).Inc()
		m.metrics.FlushPagesTotal.Add(float64(len(live)))
		m.metrics.FlushBytesTotal.Add(float64(totalBytes))
	}
	if m.logger != nil {
		m.logger.LogFlush(toUint64s(pageIDs), totalBytes, time.Since(start), nil)
	}

	return &FlushResult{PageIDs: pageIDs, Bytes: totalBytes}, nil
}

// writeRuns splits live (sorted by page_id ascending) into maximal
// numerically-contiguous runs and issues one WritePages (or
// WriteOnePage for a singleton) per run, matching flush_all's stated
// "possibly multiple contiguous batches if ids are non-contiguous".
func (m *Manager) writeRuns(live []scored, images []*page.Page, pageSize int) error {
	i := 0
	for i < len(live) {
		j := i + 1
		for j < len(live) && live[j].pageID == live[j-1].pageID+1 {
			j++
		}
		if err := m.writeRun(live[i:j], images[i:j], pageSize); err != nil {
			return err
		}
		i = j
	}
	return nil
}

func (m *Manager) writeRun(run []scored, images []*page.Page, pageSize int) error {
	if len(run) == 1 {
		buf := blockstore.AlignedBuffer(pageSize, pageSize)
		if _, err := m.adapter.SerializePage(images[0], buf); err != nil {
			return err
		}
		return m.storage.WriteOnePage(run[0].pageID, buf)
	}

	batch := blockstore.AlignedBuffer(pageSize*len(run), pageSize)
	for i, img := range images {
		if _, err := m.adapter.SerializePage(img, batch[i*pageSize:(i+1)*pageSize]); err != nil {
			return err
		}
	}
	return m.storage.WritePages(run[0].pageID, batch, len(run))
}

func toUint64s(ids []efindtypes.PageId) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}
