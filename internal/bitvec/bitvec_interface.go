package bitvec

import "citrine/internal/mem"

// Bitvec is a fixed-size set of integers between 1 and Size, inclusive.
// All operations are unsynchronized; the owner serializes access.
type Bitvec interface {
	// Test reports whether i is a member. Out-of-range indexes (0, or
	// greater than Size) report false rather than failing, so callers may
	// probe with unvalidated values.
	Test(i uint32) bool

	// Set records i as a member. i must be in [1, Size]; violating that is
	// a contract error and panics. The only failure is mem.ErrNoMem, when
	// backing storage for a sub-bitmap cannot be reserved; in that case the
	// member may or may not have been recorded, and Test tells the truth
	// either way.
	Set(i uint32) error

	// Clear removes i from the set. Out-of-range indexes are ignored.
	Clear(i uint32)

	// Size returns the fixed capacity the bitvec was created with.
	Size() uint32

	// Free releases the bitvec and every sub-bitmap back to its budget.
	// A freed bitvec reports every index absent. Free is idempotent.
	Free()
}

// Options configure a bitvec.
type Options struct {
	// Budget is charged for the instance and every lazily created
	// sub-bitmap. nil means allocation never fails.
	Budget *mem.Budget
}

// DefaultOptions has no budget: creation and Set cannot fail.
var DefaultOptions = Options{}

type Option func(*Options)

func WithBudget(b *mem.Budget) Option {
	return func(o *Options) {
		o.Budget = b
	}
}
