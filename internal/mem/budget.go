package mem

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrNoMem is returned when a reservation would exceed the budget.
var ErrNoMem = errors.New("mem: allocation budget exhausted")

// Budget caps the bytes outstanding across every structure charged to it.
// A nil *Budget is valid and enforces no limit, so callers never need a nil
// check before reserving.
type Budget struct {
	sem   *semaphore.Weighted
	used  atomic.Int64
	limit int64
}

// NewBudget returns a budget allowing at most limit bytes outstanding.
func NewBudget(limit int64) *Budget {
	return &Budget{
		sem:   semaphore.NewWeighted(limit),
		limit: limit,
	}
}

// Reserve takes n bytes from the budget. It never blocks: when the budget
// cannot cover n it returns ErrNoMem and reserves nothing.
func (b *Budget) Reserve(n int64) error {
	if b == nil || n <= 0 {
		return nil
	}
	if !b.sem.TryAcquire(n) {
		return ErrNoMem
	}
	b.used.Add(n)
	return nil
}

// Release returns n bytes to the budget. Releasing more than was reserved
// is a contract violation and panics in the underlying semaphore.
func (b *Budget) Release(n int64) {
	if b == nil || n <= 0 {
		return
	}
	b.sem.Release(n)
	b.used.Add(-n)
}

// Used reports the bytes currently reserved.
func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used.Load()
}

// Limit reports the configured cap. A nil budget reports 0 (unlimited).
func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}
