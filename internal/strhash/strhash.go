// Package strhash implements a small hash table keyed by case-insensitive
// ASCII strings. All elements live on one doubly-linked list; buckets, when
// present, point into that list. Small tables skip the bucket array
// entirely, since a linear scan over a handful of elements beats managing
// buckets. The pager uses it to resolve savepoint names, which compare
// case-insensitively like the SQL identifiers they are.
package strhash

// Elem is one key/value pair. Elements form a single doubly-linked list in
// most-recently-inserted-first order; Next walks it.
type Elem struct {
	next, prev *Elem
	key        string
	value      interface{}
}

func (e *Elem) Key() string {
	return e.key
}

func (e *Elem) Value() interface{} {
	return e.value
}

// Next returns the element after e on the global list, or nil at the end.
func (e *Elem) Next() *Elem {
	return e.next
}

// bucket points at the run of elements sharing one hash: chain plus the
// next count-1 elements of the global list.
type bucket struct {
	count int
	chain *Elem
}

// Hash is the table. The zero value is empty and ready to use.
type Hash struct {
	count int
	first *Elem
	ht    []bucket
}

// NewHash returns an empty table.
func NewHash() *Hash {
	return &Hash{}
}

// Len reports the number of elements.
func (h *Hash) Len() int {
	return h.count
}

// First returns the head of the element list, or nil when empty.
func (h *Hash) First() *Elem {
	return h.first
}

// Clear empties the table.
func (h *Hash) Clear() {
	h.first = nil
	h.count = 0
	h.ht = nil
}

// Find returns the value stored under key, or nil.
func (h *Hash) Find(key string) interface{} {
	elem, _ := h.find(key)
	if elem == nil {
		return nil
	}
	return elem.value
}

// Insert stores value under key and returns the previous value, or nil if
// the key was absent. A nil value removes the key instead; removing the
// last element resets the table completely.
func (h *Hash) Insert(key string, value interface{}) interface{} {
	elem, hv := h.find(key)
	if elem != nil {
		old := elem.value
		if value == nil {
			h.remove(elem, hv)
		} else {
			elem.value = value
			elem.key = key
		}
		return old
	}
	if value == nil {
		return nil
	}

	e := &Elem{key: key, value: value}
	h.count++
	// Stay bucket-free while small; past that, keep the load factor under
	// two elements per bucket.
	if h.count >= 10 && h.count > 2*len(h.ht) {
		h.rehash(h.count * 2)
		hv = keyHash(key) % uint32(len(h.ht))
	}
	if len(h.ht) > 0 {
		h.link(&h.ht[hv], e)
	} else {
		h.link(nil, e)
	}
	return nil
}

// find locates key and reports the bucket index it hashed to (meaningful
// only while the bucket array exists).
func (h *Hash) find(key string) (*Elem, uint32) {
	var (
		elem  *Elem
		count int
		hv    uint32
	)
	if len(h.ht) > 0 {
		hv = keyHash(key) % uint32(len(h.ht))
		b := &h.ht[hv]
		elem, count = b.chain, b.count
	} else {
		elem, count = h.first, h.count
	}
	for ; count > 0; count-- {
		if keyEqual(elem.key, key) {
			return elem, hv
		}
		elem = elem.next
	}
	return nil, hv
}

// link puts e at the front of b's run (when b is non-nil) and onto the
// global list.
func (h *Hash) link(b *bucket, e *Elem) {
	var head *Elem
	if b != nil {
		if b.count > 0 {
			head = b.chain
		}
		b.count++
		b.chain = e
	}
	if head != nil {
		e.next = head
		e.prev = head.prev
		if head.prev != nil {
			head.prev.next = e
		} else {
			h.first = e
		}
		head.prev = e
	} else {
		e.next = h.first
		if h.first != nil {
			h.first.prev = e
		}
		e.prev = nil
		h.first = e
	}
}

func (h *Hash) remove(e *Elem, hv uint32) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		h.first = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if len(h.ht) > 0 {
		b := &h.ht[hv]
		if b.chain == e {
			b.chain = e.next
		}
		b.count--
	}
	h.count--
	if h.count == 0 {
		h.Clear()
	}
}

// rehash rebuilds the bucket array at the given size and relinks every
// element into its new bucket.
func (h *Hash) rehash(size int) {
	h.ht = make([]bucket, size)
	first := h.first
	h.first = nil
	for e := first; e != nil; {
		next := e.next
		hv := keyHash(e.key) % uint32(size)
		h.link(&h.ht[hv], e)
		e = next
	}
}

func keyHash(key string) uint32 {
	var h uint32
	for i := 0; i < len(key); i++ {
		h += uint32(lower(key[i]))
		h *= 0x9e3779b1
	}
	return h
}

func keyEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
