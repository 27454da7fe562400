package bitvec

// recursiveStore splits the range across up to numChildren sub-bitmaps,
// each a full bitvec of size divisor. children[b] covers members
// b*divisor+1 through (b+1)*divisor, normalized so each child sees members
// starting at 1. Children are allocated on first Set in their range and
// kept until the parent is freed; a missing child means no member of its
// range was ever recorded.
type recursiveStore struct {
	divisor  uint32
	children [numChildren]*bitvecImpl
}

func (s *recursiveStore) test(i uint32) bool {
	child := s.children[i/s.divisor]
	if child == nil {
		return false
	}
	return child.Test(i%s.divisor + 1)
}

func (s *recursiveStore) clear(i uint32) {
	if child := s.children[i/s.divisor]; child != nil {
		child.Clear(i%s.divisor + 1)
	}
}
