// Package durlog implements the eFIND durability log: an append-only
// record stream of write-buffer mutations, with compaction and
// crash recovery (§4.3).
package durlog

import (
	"fmt"

	"github.com/nainya/efind/pkg/efind/efinderr"
)

func newCorrupt(format string, args ...interface{}) error {
	return fmt.Errorf("durlog: %s: %w", fmt.Sprintf(format, args...), efinderr.ErrCorruptLog)
}

func newIoFailure(op string, err error) error {
	return fmt.Errorf("durlog: %s: %w: %v", op, efinderr.ErrIoFailure, err)
}
