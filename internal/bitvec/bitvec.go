// Package bitvec implements a fixed-size set of page numbers used to track
// per-page state during a transaction: which pages have been journalled,
// which pages had their old content moved to the free list, which pages a
// savepoint has already preserved.
//
// Members are numbered starting with 1 and the size is fixed at creation.
// Most instances stay sparse with low cardinality (a handful of Set calls
// per transaction), but an operation like dropping a large table can touch
// nearly every page in the file, so dense high-cardinality instances have
// to perform just as well. Test calls outnumber Set calls by roughly two
// orders of magnitude and clears are rare. The three internal
// representations are tuned for exactly that mix: a flat bitmap for small
// sizes, an open-addressed hash table for large sparse instances, and a
// lazily subdivided tree of sub-bitmaps once a hash table would get too
// full.
package bitvec

import (
	"fmt"

	"citrine/internal/mem"
)

const (
	// instanceBytes is the storage footprint of a single bitvec. All three
	// representations are sized from this one figure so every instance
	// lands in the same allocator size class.
	instanceBytes = 512

	// bitmapBytes is the byte length of the flat bitmap's array, and also
	// the largest size the constructor serves with a flat bitmap.
	bitmapBytes = instanceBytes - 4

	// hashSlots is the slot count of the hash representation.
	hashSlots = (instanceBytes - 8) / 4

	// maxHashLoad is the occupancy at which a colliding insert subdivides
	// the set instead of letting probe chains grow.
	maxHashLoad = hashSlots / 2

	// numChildren is the fan-out of the recursive representation.
	numChildren = (instanceBytes - 8) / 8
)

// storage is the active representation behind a bitvec. Exactly one
// storage value exists per instance at any time; the only transition,
// hash to recursive, replaces the value wholesale inside Set.
type storage interface {
	// test and clear take zero-based indexes already validated against size.
	test(i uint32) bool
	clear(i uint32)
}

type bitvecImpl struct {
	size   uint32
	budget *mem.Budget
	store  storage
}

var _ Bitvec = (*bitvecImpl)(nil)

// New creates a bitvec able to record members between 1 and size. It fails
// only when a budget is configured and cannot cover the instance.
func New(size uint32, optFns ...Option) (Bitvec, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	v, err := newBitvec(size, opts.Budget)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// newBitvec is shared by New and by the recursive store's lazy child
// allocation, which charges children to the parent's budget.
func newBitvec(size uint32, budget *mem.Budget) (*bitvecImpl, error) {
	if err := budget.Reserve(instanceBytes); err != nil {
		return nil, err
	}
	v := &bitvecImpl{size: size, budget: budget}
	if size <= bitmapBytes {
		v.store = &bitmapStore{}
	} else {
		v.store = &hashStore{}
	}
	return v, nil
}

func (v *bitvecImpl) Test(i uint32) bool {
	if i == 0 || i > v.size {
		return false
	}
	return v.store.test(i - 1)
}

func (v *bitvecImpl) Set(i uint32) error {
	if i == 0 || i > v.size {
		panic(fmt.Sprintf("bitvec: set index %d out of range [1, %d]", i, v.size))
	}
	i--

	switch s := v.store.(type) {
	case *bitmapStore:
		s.set(i)
		return nil

	case *hashStore:
		if s.insert(i + 1) {
			return v.subdivide(s, i+1)
		}
		return nil

	case *recursiveStore:
		bin := i / s.divisor
		if s.children[bin] == nil {
			child, err := newBitvec(s.divisor, v.budget)
			if err != nil {
				return err
			}
			s.children[bin] = child
		}
		return s.children[bin].Set(i%s.divisor + 1)

	default:
		panic("bitvec: unknown storage")
	}
}

// subdivide replaces a too-full hash store with a recursive store and
// re-inserts w plus every previously hashed value. Re-insertion keeps
// going past failures so that every member that can land does; the first
// error is the one reported.
func (v *bitvecImpl) subdivide(s *hashStore, w uint32) error {
	old := s.slots
	v.store = &recursiveStore{
		divisor: uint32((uint64(v.size) + numChildren - 1) / numChildren),
	}

	err := v.Set(w)
	for _, val := range old {
		if val == 0 {
			continue
		}
		if e := v.Set(val); err == nil {
			err = e
		}
	}
	return err
}

func (v *bitvecImpl) Clear(i uint32) {
	if i == 0 || i > v.size {
		return
	}
	v.store.clear(i - 1)
}

func (v *bitvecImpl) Size() uint32 {
	return v.size
}

func (v *bitvecImpl) Free() {
	if v == nil || v.store == nil {
		return
	}
	if s, ok := v.store.(*recursiveStore); ok {
		for _, child := range s.children {
			child.Free()
		}
	}
	v.store = nil
	v.size = 0
	v.budget.Release(instanceBytes)
	v.budget = nil
}
