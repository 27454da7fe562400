// Package pagestore keeps page images in memory. The pager runs two
// stores: one for the images a transaction has staged but not committed,
// and one as a cache of committed content so reads skip the disk.
package pagestore

import "citrine/internal/common"

// Store defines the interface for a memory-backed page cache.
type Store interface {
	// Put stores a copy of image under pgno, replacing any previous copy.
	Put(pgno common.PageNo, image []byte) error
	// Delete does not error if the page is missing.
	Delete(pgno common.PageNo)
	Get(pgno common.PageNo) ([]byte, bool)
	Len() int
	// Pages returns the stored page numbers in ascending order.
	Pages() []common.PageNo
	// Clear drops every stored page.
	Clear()
}
