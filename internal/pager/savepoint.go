package pager

import (
	"fmt"

	"citrine/internal/bitvec"
	"citrine/internal/common"
)

// savepoint marks a point a transaction can partially roll back to.
type savepoint struct {
	name      string
	shadowed  *savepoint // same-named savepoint this one hides
	undoLen   int
	pageCount uint32
	freelist  []common.PageNo
	captured  bitvec.Bitvec // pages with an undo image since this savepoint
}

// Savepoint opens a named savepoint. Names are case-insensitive and may
// repeat; operations resolve to the innermost match.
func (p *Pager) Savepoint(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	if !p.inTxn {
		return ErrNoTransaction
	}

	captured, err := bitvec.New(p.pageCount, bitvec.WithBudget(p.budget))
	if err != nil {
		return err
	}
	sp := &savepoint{
		name:      name,
		undoLen:   len(p.undo),
		pageCount: p.pageCount,
		freelist:  append([]common.PageNo(nil), p.freelist...),
		captured:  captured,
	}
	if prev := p.spNames.Insert(name, sp); prev != nil {
		sp.shadowed = prev.(*savepoint)
	}
	p.savepoints = append(p.savepoints, sp)
	common.Logf("pager: savepoint %q (%d open)\n", name, len(p.savepoints))
	return nil
}

// Release closes a savepoint and everything nested inside it. Its staged
// changes survive, merged into the enclosing scope.
func (p *Pager) Release(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	if !p.inTxn {
		return ErrNoTransaction
	}
	pos := p.findSavepointLocked(name)
	if pos < 0 {
		return fmt.Errorf("pager: release %q: %w", name, ErrNoSavepoint)
	}
	p.dropSavepointsLocked(pos)
	common.Logf("pager: released savepoint %q\n", name)
	return nil
}

// RollbackTo undoes every page write, allocation, and free since the named
// savepoint, which stays open. Savepoints nested inside it are closed.
func (p *Pager) RollbackTo(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return ErrClosed
	}
	if !p.inTxn {
		return ErrNoTransaction
	}
	pos := p.findSavepointLocked(name)
	if pos < 0 {
		return fmt.Errorf("pager: rollback to %q: %w", name, ErrNoSavepoint)
	}
	sp := p.savepoints[pos]
	p.dropSavepointsLocked(pos + 1)

	// Newest undo images first, so a page captured twice lands on its
	// oldest state.
	for i := len(p.undo) - 1; i >= sp.undoLen; i-- {
		rec := p.undo[i]
		if err := p.stagePage(rec.pgno, rec.image); err != nil {
			return err
		}
		sp.captured.Clear(uint32(rec.pgno))
	}
	p.undo = p.undo[:sp.undoLen]

	for _, pgno := range p.dirty.Pages() {
		if uint32(pgno) > sp.pageCount {
			p.dirty.Delete(pgno)
		}
	}

	// Frees since the savepoint are undone: the pages leave the freelist
	// and shed their stale mark.
	wasFree := make(map[common.PageNo]bool, len(sp.freelist))
	for _, pgno := range sp.freelist {
		wasFree[pgno] = true
	}
	if p.staleContent != nil {
		for _, pgno := range p.freelist {
			if !wasFree[pgno] {
				p.staleContent.Clear(uint32(pgno))
			}
		}
	}
	p.freelist = append([]common.PageNo(nil), sp.freelist...)
	p.pageCount = sp.pageCount

	// Pages allocated after the savepoint may have been spilled into the
	// file. Cut them off, or reallocating the same numbers would read the
	// spilled images instead of zeros. In-range pages are covered: the
	// undo replay above re-staged every one the savepoint captured.
	if p.spilled {
		if err := p.file.Truncate(int64(p.pageCount) * int64(p.pageSize)); err != nil {
			return err
		}
	}

	common.Logf("pager: rolled back to savepoint %q\n", name)
	return nil
}

// captureUndo stashes the current image of pgno for every open savepoint
// that has not seen it yet. One image serves them all: rolling back to an
// outer savepoint replays the inner captures on the way down.
func (p *Pager) captureUndo(pgno common.PageNo) error {
	need := false
	for _, sp := range p.savepoints {
		if uint32(pgno) <= sp.pageCount && !sp.captured.Test(uint32(pgno)) {
			need = true
			break
		}
	}
	if !need {
		return nil
	}

	img, err := p.readLocked(pgno)
	if err != nil {
		return err
	}
	p.undo = append(p.undo, undoRecord{pgno: pgno, image: img})

	for _, sp := range p.savepoints {
		if uint32(pgno) <= sp.pageCount && !sp.captured.Test(uint32(pgno)) {
			if err := sp.captured.Set(uint32(pgno)); err != nil {
				return err
			}
		}
	}
	return nil
}

// findSavepointLocked resolves name to the innermost matching savepoint's
// stack position, or -1.
func (p *Pager) findSavepointLocked(name string) int {
	v := p.spNames.Find(name)
	if v == nil {
		return -1
	}
	sp := v.(*savepoint)
	for i := len(p.savepoints) - 1; i >= 0; i-- {
		if p.savepoints[i] == sp {
			return i
		}
	}
	return -1
}

// dropSavepointsLocked closes savepoints from stack position from outward,
// innermost first, restoring whatever name each one shadowed.
func (p *Pager) dropSavepointsLocked(from int) {
	for i := len(p.savepoints) - 1; i >= from; i-- {
		sp := p.savepoints[i]
		sp.captured.Free()
		if sp.shadowed != nil {
			p.spNames.Insert(sp.name, sp.shadowed)
		} else {
			p.spNames.Insert(sp.name, nil)
		}
	}
	p.savepoints = p.savepoints[:from]
}
