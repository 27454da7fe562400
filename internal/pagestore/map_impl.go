package pagestore

import (
	"sort"
	"sync"

	"citrine/internal/common"
	"citrine/internal/mem"
)

// mapStoreImpl is the baseline Go map-backed implementation. Stored images
// are charged against the budget for as long as they stay in the store.
type mapStoreImpl struct {
	mu     sync.RWMutex
	budget *mem.Budget
	pages  map[common.PageNo][]byte
}

var _ Store = (*mapStoreImpl)(nil)

// NewMapStore returns the default map-backed store. A nil budget means
// unlimited.
func NewMapStore(budget *mem.Budget) Store {
	return &mapStoreImpl{
		budget: budget,
		pages:  make(map[common.PageNo][]byte),
	}
}

// Put stores a copy of image under pgno, replacing any previous copy.
func (s *mapStoreImpl) Put(pgno common.PageNo, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.budget.Reserve(int64(len(image))); err != nil {
		return err
	}
	if old, ok := s.pages[pgno]; ok {
		s.budget.Release(int64(len(old)))
	}
	s.pages[pgno] = cloneImage(image)
	return nil
}

// Delete removes the image stored under pgno, if any.
func (s *mapStoreImpl) Delete(pgno common.PageNo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pages[pgno]; ok {
		s.budget.Release(int64(len(old)))
		delete(s.pages, pgno)
	}
}

// Get returns a copy of the image stored under pgno, if any.
func (s *mapStoreImpl) Get(pgno common.PageNo) ([]byte, bool) {
	s.mu.RLock()
	image, ok := s.pages[pgno]
	if !ok {
		s.mu.RUnlock()
		return nil, false
	}
	out := cloneImage(image)
	s.mu.RUnlock()
	return out, true
}

// Len reports the number of stored pages.
func (s *mapStoreImpl) Len() int {
	s.mu.RLock()
	n := len(s.pages)
	s.mu.RUnlock()
	return n
}

// Pages returns the stored page numbers in ascending order.
func (s *mapStoreImpl) Pages() []common.PageNo {
	s.mu.RLock()
	pgnos := make([]common.PageNo, 0, len(s.pages))
	for pgno := range s.pages {
		pgnos = append(pgnos, pgno)
	}
	s.mu.RUnlock()

	sort.Slice(pgnos, func(i, j int) bool { return pgnos[i] < pgnos[j] })
	return pgnos
}

// Clear drops every stored page and returns their budget charge.
func (s *mapStoreImpl) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, image := range s.pages {
		s.budget.Release(int64(len(image)))
	}
	s.pages = make(map[common.PageNo][]byte)
}

func cloneImage(src []byte) []byte {
	if src == nil {
		return nil
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out
}
