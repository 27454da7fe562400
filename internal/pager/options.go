package pager

import (
	"citrine/internal/common"
	"citrine/internal/mem"
)

type Options struct {
	// PageSize is the unit of journaling and I/O. It is configuration,
	// not persisted: reopening a database with a different page size
	// fails the geometry check in Open.
	PageSize uint32
	// Budget caps the memory held in page images and transaction
	// bookkeeping. Nil means unlimited.
	Budget *mem.Budget
}

var DefaultOptions = Options{
	PageSize: common.DefaultPageSize,
}

type Option func(*Options)

func WithPageSize(n uint32) Option {
	return func(o *Options) {
		o.PageSize = n
	}
}

func WithBudget(b *mem.Budget) Option {
	return func(o *Options) {
		o.Budget = b
	}
}
