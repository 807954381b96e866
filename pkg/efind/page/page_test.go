package page

import (
	"testing"

	"github.com/nainya/efind/pkg/efind/efindtypes"
)

func TestPutReplacesExistingKey(t *testing.T) {
	p := New(1, 0, efindtypes.IndexRTree)
	p.Put(Entry{Key: "a", Payload: []byte("v1")})
	p.Put(Entry{Key: "a", Payload: []byte("v2")})

	if len(p.Entries) != 1 {
		t.Fatalf("expected 1 entry after replace, got %d", len(p.Entries))
	}
	if string(p.Entries[0].Payload) != "v2" {
		t.Errorf("expected later insertion to supersede, got %q", p.Entries[0].Payload)
	}
}

func TestPutAppendsNewKey(t *testing.T) {
	p := New(1, 0, efindtypes.IndexRTree)
	p.Put(Entry{Key: "a", Payload: []byte("v1")})
	p.Put(Entry{Key: "b", Payload: []byte("v2")})

	if len(p.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(p.Entries))
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := New(1, 0, efindtypes.IndexRTree)
	p.Put(Entry{Key: "a", Bbox: &efindtypes.Bbox{Low: []float64{0, 0}, High: []float64{1, 1}}, Payload: []byte("v1")})

	clone := p.Clone()
	clone.Entries[0].Payload[0] = 'X'
	clone.Entries[0].Bbox.High[0] = 99

	if p.Entries[0].Payload[0] == 'X' {
		t.Error("mutating clone payload affected original")
	}
	if p.Entries[0].Bbox.High[0] == 99 {
		t.Error("mutating clone bbox affected original")
	}
}

func TestSortHilbertOrdersByLHV(t *testing.T) {
	p := New(1, 1, efindtypes.IndexHilbertRTree)
	p.Put(Entry{Kind: EntryHilbertInternal, Key: "c", LHV: 30})
	p.Put(Entry{Kind: EntryHilbertInternal, Key: "a", LHV: 10})
	p.Put(Entry{Kind: EntryHilbertInternal, Key: "b", LHV: 20})

	p.SortHilbert()

	want := []efindtypes.EntryKey{"a", "b", "c"}
	for i, k := range want {
		if p.Entries[i].Key != k {
			t.Errorf("entry %d: got key %q, want %q", i, p.Entries[i].Key, k)
		}
	}
}

func TestModifiedAreaUnionsBboxes(t *testing.T) {
	entries := []Entry{
		{Bbox: &efindtypes.Bbox{Low: []float64{0, 0}, High: []float64{1, 1}}},
		{Bbox: &efindtypes.Bbox{Low: []float64{1, 1}, High: []float64{2, 2}}},
	}
	got := ModifiedArea(entries)
	if got != 4 {
		t.Errorf("expected union area 4, got %v", got)
	}
}

func TestModifiedAreaNoBboxIsZero(t *testing.T) {
	entries := []Entry{{Payload: []byte("del")}}
	if got := ModifiedArea(entries); got != 0 {
		t.Errorf("expected 0 area for bbox-less entries, got %v", got)
	}
}

func TestSelfOverlapArea(t *testing.T) {
	entries := []Entry{
		{Bbox: &efindtypes.Bbox{Low: []float64{0, 0}, High: []float64{2, 2}}},
		{Bbox: &efindtypes.Bbox{Low: []float64{1, 1}, High: []float64{3, 3}}},
	}
	got := SelfOverlapArea(entries)
	if got != 1 {
		t.Errorf("expected overlap area 1, got %v", got)
	}
}

func TestSizeAccountsPayloadAndBbox(t *testing.T) {
	withBbox := Entry{Payload: []byte("1234"), Bbox: &efindtypes.Bbox{Low: []float64{0, 0}, High: []float64{1, 1}}}
	withoutBbox := Entry{Payload: []byte("1234")}

	if withBbox.Size() <= withoutBbox.Size() {
		t.Error("entry with a bbox should account more bytes than one without")
	}
}
