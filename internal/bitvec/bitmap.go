package bitvec

// bitmapStore is the flat bitmap representation: one bit per possible
// member. Bit k (zero-based) represents member k+1. It is only chosen at
// construction, for sizes small enough to fit the byte budget, and never
// changes afterwards.
type bitmapStore struct {
	bits [bitmapBytes]byte
}

func (s *bitmapStore) test(i uint32) bool {
	return s.bits[i>>3]&(1<<(i&7)) != 0
}

func (s *bitmapStore) set(i uint32) {
	s.bits[i>>3] |= 1 << (i & 7)
}

func (s *bitmapStore) clear(i uint32) {
	s.bits[i>>3] &^= 1 << (i & 7)
}
