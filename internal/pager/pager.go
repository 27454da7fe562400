package pager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"citrine/internal/bitvec"
	"citrine/internal/common"
	"citrine/internal/journal"
	"citrine/internal/mem"
	"citrine/internal/pagestore"
	"citrine/internal/strhash"
)

var (
	ErrClosed         = errors.New("pager: closed")
	ErrInTransaction  = errors.New("pager: transaction already active")
	ErrNoTransaction  = errors.New("pager: no active transaction")
	ErrNoSavepoint    = errors.New("pager: no such savepoint")
	ErrPageOutOfRange = errors.New("pager: page number out of range")
)

// Pager mediates all access to a page-structured database file. Writes
// inside a transaction stage in memory behind a synced rollback journal;
// deleting the journal is what commits, so a crash at any point leaves a
// file the next Open can restore.
type Pager struct {
	mu   sync.Mutex
	path string
	file *os.File

	pageSize  uint32
	pageCount uint32
	budget    *mem.Budget

	clean pagestore.Store // committed images, read cache
	dirty pagestore.Store // staged transaction images

	freelist []common.PageNo

	inTxn         bool
	spilled       bool // the file holds writes from the open transaction
	origPageCount uint32
	origFreelist  []common.PageNo
	jrnl          journal.Journal
	inJournal     bitvec.Bitvec // pages whose pre-transaction image is journaled
	staleContent  bitvec.Bitvec // pages freed this transaction; their disk bytes are dead
	undo          []undoRecord
	savepoints    []*savepoint
	spNames       *strhash.Hash
}

// undoRecord is one pre-write page image kept for savepoint rollback, the
// in-memory equivalent of a sub-journal record.
type undoRecord struct {
	pgno  common.PageNo
	image []byte
}

// Open opens or creates the database at path. A hot journal left behind by
// a crashed transaction is replayed and removed before Open returns.
func Open(path string, optFns ...Option) (*Pager, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.PageSize == 0 {
		return nil, fmt.Errorf("pager: page size must be positive")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	p := &Pager{
		path:     path,
		file:     f,
		pageSize: opts.PageSize,
		budget:   opts.Budget,
		clean:    pagestore.NewMapStore(opts.Budget),
		dirty:    pagestore.NewMapStore(opts.Budget),
		spNames:  strhash.NewHash(),
	}

	jpath := common.JournalPath(path)
	if _, err := os.Stat(jpath); err == nil {
		if err := p.recover(jpath); err != nil {
			f.Close()
			return nil, fmt.Errorf("pager: journal recovery failed: %w", err)
		}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size()%int64(opts.PageSize) != 0 {
		f.Close()
		return nil, fmt.Errorf("pager: %s is %d bytes, not a multiple of the %d byte page size", path, info.Size(), opts.PageSize)
	}
	p.pageCount = uint32(info.Size() / int64(opts.PageSize))

	common.Logf("pager: opened %s (%d pages of %d bytes)\n", path, p.pageCount, p.pageSize)
	return p, nil
}

// recover replays a hot journal into the database file and deletes it.
func (p *Pager) recover(jpath string) error {
	jrnl, err := journal.Open(jpath)
	if errors.Is(err, journal.ErrBadMagic) {
		common.Logf("pager: removing unreadable journal %s\n", jpath)
		return os.Remove(jpath)
	}
	if err != nil {
		return err
	}
	n, err := p.applyJournal(jrnl)
	if err != nil {
		jrnl.Close()
		return err
	}
	if err := jrnl.Remove(); err != nil {
		return err
	}
	common.Logf("pager: recovered %d pages from %s\n", n, jpath)
	return nil
}

// applyJournal writes every intact journal record back into the file and
// restores the original file size. A damaged record ends the replay; the
// records before it are already applied.
func (p *Pager) applyJournal(jrnl journal.Journal) (int, error) {
	iter, err := jrnl.Iterator(context.Background())
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	n := 0
	for {
		rec, ok, err := iter.Next()
		if errors.Is(err, journal.ErrChecksum) {
			common.Logf("pager: journal damaged after %d records, stopping replay\n", n)
			break
		}
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		off := (int64(rec.PgNo) - 1) * int64(jrnl.PageSize())
		if _, err := p.file.WriteAt(rec.Image, off); err != nil {
			return n, err
		}
		n++
	}

	if err := p.file.Truncate(int64(jrnl.OrigPageCount()) * int64(jrnl.PageSize())); err != nil {
		return n, err
	}
	if err := p.file.Sync(); err != nil {
		return n, err
	}
	return n, nil
}

// Close rolls back any open transaction and releases the file handle.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	if p.inTxn {
		if err := p.rollbackLocked(); err != nil {
			return err
		}
	}
	err := p.file.Close()
	p.file = nil
	return err
}

// Read returns the current content of a page: staged content inside a
// transaction, committed content otherwise.
func (p *Pager) Read(pgno common.PageNo) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil, ErrClosed
	}
	if pgno == 0 || uint32(pgno) > p.pageCount {
		return nil, fmt.Errorf("pager: read page %d of %d: %w", pgno, p.pageCount, ErrPageOutOfRange)
	}
	return p.readLocked(pgno)
}

func (p *Pager) readLocked(pgno common.PageNo) ([]byte, error) {
	if img, ok := p.dirty.Get(pgno); ok {
		return img, nil
	}
	if img, ok := p.clean.Get(pgno); ok {
		return img, nil
	}
	img := make([]byte, p.pageSize)
	// A short read at the end of the file leaves the tail zeroed, which
	// is exactly what a never-written page should look like.
	if _, err := p.file.ReadAt(img, p.pageOffset(pgno)); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	// Cache only content known to be committed.
	if !p.inTxn || (uint32(pgno) <= p.origPageCount && !p.inJournal.Test(uint32(pgno))) {
		_ = p.clean.Put(pgno, img) // cache fill is best effort
	}
	return img, nil
}

func (p *Pager) pageOffset(pgno common.PageNo) int64 {
	return (int64(pgno) - 1) * int64(p.pageSize)
}

// PageSize reports the configured page size.
func (p *Pager) PageSize() uint32 {
	return p.pageSize
}

// PageCount reports the current page count, including pages allocated by
// the open transaction.
func (p *Pager) PageCount() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageCount
}

// Stats is a point-in-time snapshot of pager state.
type Stats struct {
	Path           string
	PageSize       uint32
	PageCount      uint32
	InTransaction  bool
	DirtyPages     int
	CachedPages    int
	FreePages      int
	Savepoints     int
	JournalRecords int
	BudgetUsed     int64
	BudgetLimit    int64
}

func (p *Pager) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{
		Path:          p.path,
		PageSize:      p.pageSize,
		PageCount:     p.pageCount,
		InTransaction: p.inTxn,
		DirtyPages:    p.dirty.Len(),
		CachedPages:   p.clean.Len(),
		FreePages:     len(p.freelist),
		Savepoints:    len(p.savepoints),
		BudgetUsed:    p.budget.Used(),
		BudgetLimit:   p.budget.Limit(),
	}
	if p.inTxn {
		if n, err := p.jrnl.RecordCount(); err == nil {
			s.JournalRecords = n
		}
	}
	return s
}
