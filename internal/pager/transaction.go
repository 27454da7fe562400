package pager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"citrine/internal/bitvec"
	"citrine/internal/common"
	"citrine/internal/journal"
	"citrine/internal/mem"
)

// Begin starts a transaction. The journal is created eagerly with the
// current page count, so even a transaction that crashes before its first
// write is recoverable.
func (p *Pager) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	if p.inTxn {
		return ErrInTransaction
	}

	jrnl, err := journal.Create(common.JournalPath(p.path), p.pageSize, p.pageCount)
	if err != nil {
		return err
	}
	inJournal, err := bitvec.New(p.pageCount, bitvec.WithBudget(p.budget))
	if err != nil {
		jrnl.Remove()
		return err
	}

	p.inTxn = true
	p.jrnl = jrnl
	p.inJournal = inJournal
	p.origPageCount = p.pageCount
	p.origFreelist = append([]common.PageNo(nil), p.freelist...)
	common.Logf("pager: begin (%d pages)\n", p.pageCount)
	return nil
}

// Write stages new content for a page. The first write to any page in a
// transaction journals its old image; the first write after a savepoint
// snapshots it for partial rollback.
func (p *Pager) Write(pgno common.PageNo, image []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	if !p.inTxn {
		return ErrNoTransaction
	}
	if pgno == 0 || uint32(pgno) > p.pageCount {
		return fmt.Errorf("pager: write page %d of %d: %w", pgno, p.pageCount, ErrPageOutOfRange)
	}
	if uint32(len(image)) != p.pageSize {
		return fmt.Errorf("pager: image is %d bytes, want %d", len(image), p.pageSize)
	}
	return p.writeLocked(pgno, image)
}

func (p *Pager) writeLocked(pgno common.PageNo, image []byte) error {
	if err := p.journalPage(pgno); err != nil {
		return err
	}
	if err := p.captureUndo(pgno); err != nil {
		return err
	}
	return p.stagePage(pgno, image)
}

// journalPage saves the pre-transaction image of pgno once. Pages created
// by this transaction have nothing to restore and are skipped.
func (p *Pager) journalPage(pgno common.PageNo) error {
	if uint32(pgno) > p.origPageCount || p.inJournal.Test(uint32(pgno)) {
		return nil
	}
	img, err := p.readLocked(pgno)
	if err != nil {
		return err
	}
	if err := p.jrnl.Append(context.Background(), pgno, img); err != nil {
		return err
	}
	return p.inJournal.Set(uint32(pgno))
}

// stagePage puts image in the dirty store, relieving memory pressure first
// by dropping the read cache and then by spilling dirty pages to the file.
func (p *Pager) stagePage(pgno common.PageNo, image []byte) error {
	err := p.dirty.Put(pgno, image)
	if !errors.Is(err, mem.ErrNoMem) {
		return err
	}
	p.clean.Clear()
	err = p.dirty.Put(pgno, image)
	if !errors.Is(err, mem.ErrNoMem) {
		return err
	}
	if err := p.spillLocked(); err != nil {
		return err
	}
	return p.dirty.Put(pgno, image)
}

// spillLocked writes every dirty page into the database file and drops it
// from memory. The file then holds uncommitted data; the synced journal is
// what makes that reversible.
func (p *Pager) spillLocked() error {
	pages := p.dirty.Pages()
	for _, pgno := range pages {
		img, ok := p.dirty.Get(pgno)
		if !ok {
			continue
		}
		if _, err := p.file.WriteAt(img, p.pageOffset(pgno)); err != nil {
			return err
		}
		p.clean.Delete(pgno)
	}
	p.dirty.Clear()
	if len(pages) > 0 {
		p.spilled = true
		common.Logf("pager: spilled %d pages under memory pressure\n", len(pages))
	}
	return nil
}

// Allocate extends the database by one page, or revives a freed one. The
// returned page reads as zeros until written.
func (p *Pager) Allocate() (common.PageNo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return 0, ErrClosed
	}
	if !p.inTxn {
		return 0, ErrNoTransaction
	}

	if n := len(p.freelist); n > 0 {
		pgno := p.freelist[n-1]
		p.freelist = p.freelist[:n-1]
		if p.isStale(pgno) {
			// Freed by this transaction, so the dead bytes are still
			// in place; scrub them. Pages freed by an earlier
			// transaction were zeroed when it committed.
			if err := p.writeLocked(pgno, make([]byte, p.pageSize)); err != nil {
				p.freelist = append(p.freelist, pgno)
				return 0, err
			}
		}
		common.Logf("pager: reusing free page %d\n", pgno)
		return pgno, nil
	}

	p.pageCount++
	common.Logf("pager: extending to page %d\n", p.pageCount)
	return common.PageNo(p.pageCount), nil
}

// Free marks a page reusable. Its image is journaled first, because commit
// may scrub or truncate it away, and the page is marked stale so reuse and
// commit know the on-disk bytes are dead.
func (p *Pager) Free(pgno common.PageNo) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	if !p.inTxn {
		return ErrNoTransaction
	}
	if pgno == 0 || uint32(pgno) > p.pageCount {
		return fmt.Errorf("pager: free page %d of %d: %w", pgno, p.pageCount, ErrPageOutOfRange)
	}
	for _, f := range p.freelist {
		if f == pgno {
			return fmt.Errorf("pager: page %d is already free", pgno)
		}
	}

	if err := p.journalPage(pgno); err != nil {
		return err
	}
	if err := p.markStale(pgno); err != nil {
		return err
	}
	p.freelist = append(p.freelist, pgno)
	common.Logf("pager: freed page %d\n", pgno)
	return nil
}

// markStale records that pgno's on-disk content is dead. The set is created
// lazily, sized at the page count of the moment; later pages cannot be
// recorded and isStale treats them as stale, the conservative direction.
func (p *Pager) markStale(pgno common.PageNo) error {
	if p.staleContent == nil {
		bv, err := bitvec.New(p.pageCount, bitvec.WithBudget(p.budget))
		if err != nil {
			return err
		}
		p.staleContent = bv
	}
	if uint32(pgno) <= p.staleContent.Size() {
		return p.staleContent.Set(uint32(pgno))
	}
	return nil
}

func (p *Pager) isStale(pgno common.PageNo) bool {
	return p.staleContent != nil && (uint32(pgno) > p.staleContent.Size() || p.staleContent.Test(uint32(pgno)))
}

// Commit makes the transaction durable: scrub newly freed pages, flush
// staged pages, size the file, sync, then delete the journal. Deleting the
// journal is the commit point; a crash anywhere earlier rolls the
// transaction back on the next Open.
func (p *Pager) Commit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	if !p.inTxn {
		return ErrNoTransaction
	}
	start := time.Now()

	p.dropSavepointsLocked(0)

	// Freed tail pages just shorten the file.
	for {
		trimmed := false
		for i, pgno := range p.freelist {
			if uint32(pgno) == p.pageCount {
				p.freelist = append(p.freelist[:i], p.freelist[i+1:]...)
				p.dirty.Delete(pgno)
				p.clean.Delete(pgno)
				p.pageCount--
				trimmed = true
				break
			}
		}
		if !trimmed {
			break
		}
	}

	// Scrub surviving pages freed by this transaction, so reusing them
	// later needs no write at all.
	for _, pgno := range p.freelist {
		if p.isStale(pgno) {
			if err := p.writeLocked(pgno, make([]byte, p.pageSize)); err != nil {
				return err
			}
		}
	}

	flushed := p.dirty.Len()
	// From here on the file diverges from its committed state. Should the
	// commit fail below, rollback must replay the journal.
	p.spilled = true
	for _, pgno := range p.dirty.Pages() {
		img, ok := p.dirty.Get(pgno)
		if !ok {
			continue
		}
		if _, err := p.file.WriteAt(img, p.pageOffset(pgno)); err != nil {
			return err
		}
	}
	if err := p.file.Truncate(int64(p.pageCount) * int64(p.pageSize)); err != nil {
		return err
	}
	if err := p.file.Sync(); err != nil {
		return err
	}
	if err := p.jrnl.Remove(); err != nil {
		return err
	}

	// Committed: the staged images become the cache's truth. Any cached
	// pre-transaction image must go even if the budget refuses the new one.
	for _, pgno := range p.dirty.Pages() {
		img, ok := p.dirty.Get(pgno)
		if !ok {
			continue
		}
		p.clean.Delete(pgno)
		_ = p.clean.Put(pgno, img)
	}
	p.dirty.Clear()
	p.endTransactionLocked()
	common.LogDuration(start, "committed %d pages (%d in file)", flushed, p.pageCount)
	return nil
}

// Rollback discards the transaction. Staged pages vanish; if any reached
// the file, through a spill or a failed commit's flush, the journal
// replays the old images back over them.
func (p *Pager) Rollback() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	if !p.inTxn {
		return ErrNoTransaction
	}
	return p.rollbackLocked()
}

func (p *Pager) rollbackLocked() error {
	start := time.Now()
	if p.spilled {
		n, err := p.applyJournal(p.jrnl)
		if err != nil {
			return err
		}
		common.Logf("pager: restored %d pages from the journal\n", n)
	}
	if err := p.jrnl.Remove(); err != nil {
		return err
	}
	p.dirty.Clear()
	p.pageCount = p.origPageCount
	p.freelist = p.origFreelist
	p.endTransactionLocked()
	common.LogDuration(start, "rolled back to %d pages", p.pageCount)
	return nil
}

// endTransactionLocked destroys all per-transaction bookkeeping.
func (p *Pager) endTransactionLocked() {
	p.dropSavepointsLocked(0)
	if p.inJournal != nil {
		p.inJournal.Free()
		p.inJournal = nil
	}
	if p.staleContent != nil {
		p.staleContent.Free()
		p.staleContent = nil
	}
	p.undo = nil
	p.origFreelist = nil
	p.jrnl = nil
	p.inTxn = false
	p.spilled = false
}
