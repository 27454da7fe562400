package bitvec

// hashStore is the open-addressed hash representation, the initial store
// for sizes too large for a flat bitmap. Slots hold member+1 so that 0 can
// mark an empty slot. count stays below len(slots) at all times: at least
// one empty slot must remain or probing would never terminate.
type hashStore struct {
	count uint32
	slots [hashSlots]uint32
}

// slotHash maps a zero-based member value to its home slot. A prime
// multiplier was tried here and produced no fewer collisions than the
// identity, so the identity stays.
func slotHash(x uint32) uint32 {
	return x % hashSlots
}

func (s *hashStore) test(i uint32) bool {
	h := slotHash(i)
	w := i + 1
	for s.slots[h] != 0 {
		if s.slots[h] == w {
			return true
		}
		h = (h + 1) % hashSlots
	}
	return false
}

// insert records stored value w, or reports full=true without touching the
// table when the insert must subdivide instead: either the occupancy has
// crossed maxHashLoad and w's home slot is taken, or the table is one slot
// away from filling completely.
func (s *hashStore) insert(w uint32) (full bool) {
	h := slotHash(w - 1)
	if s.slots[h] == 0 {
		// No collision. Unless this insert would completely fill the
		// table, take the slot without worrying about subdividing.
		if s.count < hashSlots-1 {
			s.count++
			s.slots[h] = w
			return false
		}
	} else {
		// Collision. Either the value is already in the table, or the
		// probe stops at the first free slot.
		for {
			if s.slots[h] == w {
				return false
			}
			h = (h + 1) % hashSlots
			if s.slots[h] == 0 {
				break
			}
		}
	}

	if s.count >= maxHashLoad {
		return true
	}
	s.count++
	s.slots[h] = w
	return false
}

// clear removes zero-based index i. Deleting a slot in place would break
// the probe chain of any entry that collided past it, so the whole table
// is rebuilt without the value. Clears are rare enough that the rebuild
// cost does not matter, and the scratch copy lives on the stack so this
// can never fail.
func (s *hashStore) clear(i uint32) {
	old := s.slots
	s.slots = [hashSlots]uint32{}
	s.count = 0

	w := i + 1
	for _, val := range old {
		if val == 0 || val == w {
			continue
		}
		h := slotHash(val - 1)
		s.count++
		for s.slots[h] != 0 {
			h = (h + 1) % hashSlots
		}
		s.slots[h] = val
	}
}
