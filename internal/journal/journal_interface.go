package journal

import (
	"context"

	"citrine/internal/common"
)

// Record is one pre-write page image read back from the journal.
type Record struct {
	PgNo  common.PageNo
	Image []byte
}

// Journal persists the original image of every page a transaction touches,
// so the transaction can be undone after a rollback or a crash.
type Journal interface {
	Append(ctx context.Context, pgno common.PageNo, image []byte) error
	Iterator(ctx context.Context) (Iterator, error)
	RecordCount() (int, error)
	PageSize() uint32
	OrigPageCount() uint32
	Close() error
	// Remove closes the journal and deletes it from disk. Deleting the
	// file is what makes a commit durable.
	Remove() error
}

// Iterator walks records recovered from the journal.
// Next returns false with a nil error when the journal ends; a torn final
// record counts as the end.
type Iterator interface {
	Next() (Record, bool, error)
	Close() error
}
