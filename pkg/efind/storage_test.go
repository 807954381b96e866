package efind_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/nainya/efind/pkg/efind"
	"github.com/nainya/efind/pkg/efind/blockstore"
)

func TestBlockStorageRoundTripsOneAndManyPages(t *testing.T) {
	const pageSize = 512
	path := filepath.Join(t.TempDir(), "pages.bin")

	store, err := efind.OpenBlockStorage(path, pageSize, blockstore.IOBuffered)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	page5 := bytes.Repeat([]byte{0xAB}, pageSize)
	if err := store.WriteOnePage(5, page5); err != nil {
		t.Fatalf("write one page: %v", err)
	}
	got := make([]byte, pageSize)
	if err := store.ReadOnePage(5, got); err != nil {
		t.Fatalf("read one page: %v", err)
	}
	if !bytes.Equal(got, page5) {
		t.Fatal("read-back of a single written page did not match")
	}

	batch := append(bytes.Repeat([]byte{0x01}, pageSize), bytes.Repeat([]byte{0x02}, pageSize)...)
	if err := store.WritePages(10, batch, 2); err != nil {
		t.Fatalf("write pages: %v", err)
	}
	p10 := make([]byte, pageSize)
	p11 := make([]byte, pageSize)
	if err := store.ReadOnePage(10, p10); err != nil {
		t.Fatalf("read page 10: %v", err)
	}
	if err := store.ReadOnePage(11, p11); err != nil {
		t.Fatalf("read page 11: %v", err)
	}
	if !bytes.Equal(p10, batch[:pageSize]) || !bytes.Equal(p11, batch[pageSize:]) {
		t.Fatal("batch write did not land each page at its own offset")
	}
}

func TestBlockStoragePageSizeMatchesConstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.bin")
	store, err := efind.OpenBlockStorage(path, 4096, blockstore.IOBuffered)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if store.PageSize() != 4096 {
		t.Fatalf("page size = %d, want 4096", store.PageSize())
	}
}
