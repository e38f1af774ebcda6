package sparsearray

import (
	"fmt"
	"sort"
)

// l1Entry covers one contiguous, l1Span-aligned region of the virtual
// address space and owns exactly one L2 directory: a fixed-length array
// of optional page references. A nil slot means "no page" — the range it
// covers reads as all zero. The converse does not always hold: a page
// whose bytes are all zero stays allocated until Array.Zero reclaims it.
type l1Entry struct {
	base uint64
	l2   [][]byte // len == L2Size
}

// twoLevelIndex is the ordered directory of l1Entries: entries are kept
// in strict ascending order of base so lookups can binary search, while
// insertion remains a linear scan (amortised negligible, since the
// number of L1 entries is bounded by disk_size / l1Span).
type twoLevelIndex struct {
	entries []*l1Entry
	store   PageStore

	// debugf, when non-nil, receives trace strings. Observable only
	// when debug is enabled; not a stable API.
	debugf func(format string, args ...any)
}

func newTwoLevelIndex(store PageStore) *twoLevelIndex {
	if store == nil {
		store = heapPageStore{}
	}
	return &twoLevelIndex{store: store}
}

// search returns the l1Entry covering offset, or nil if none does.
func (idx *twoLevelIndex) search(offset uint64) *l1Entry {
	n := len(idx.entries)
	i := sort.Search(n, func(i int) bool {
		e := idx.entries[i]
		return offset < e.base+l1Span
	})
	if i < n && idx.entries[i].base <= offset {
		return idx.entries[i]
	}
	return nil
}

// insert adds entry to the directory, keeping it ordered by base. This is
// an O(n) linear scan, but the rate of inserts is bounded by
// ceil(disk_size/l1Span), so the total cost over the life of an Array is
// amortised negligible against infrequent, ordered structural updates.
func (idx *twoLevelIndex) insert(entry *l1Entry) {
	for i, e := range idx.entries {
		if entry.base < e.base {
			idx.entries = append(idx.entries, nil)
			copy(idx.entries[i+1:], idx.entries[i:])
			idx.entries[i] = entry
			if idx.debugf != nil {
				idx.debugf("inserted L1 entry for %d at position %d", entry.base, i)
			}
			return
		}
		if entry.base == e.base {
			// Each L1 entry is supposed to be unique; lookup always
			// searches before inserting, so this indicates a bug in
			// this package rather than in a caller.
			panic(fmt.Sprintf("sparsearray: duplicate L1 entry for base offset %d", entry.base))
		}
	}
	idx.entries = append(idx.entries, entry)
	if idx.debugf != nil {
		idx.debugf("inserted L1 entry for %d at position %d", entry.base, len(idx.entries)-1)
	}
}

// lookup resolves a virtual offset to a page.
//
// It returns the byte slice for the page covering offset (nil if the page
// is absent), the number of bytes remaining to the end of that page, and
// a handle to the owning L2 slot. The slot handle is non-nil whenever an
// L1 entry exists for offset, even if the page itself is absent — zero
// reclamation uses it to clear the slot without a second lookup.
//
// If create is true, lookup allocates whatever L1 entry, L2 directory,
// and page are missing so the caller can write through the returned
// slice. If create is false, lookup never allocates and the returned page
// is nil whenever the offset has never been written.
func (idx *twoLevelIndex) lookup(offset uint64, create bool) (page []byte, remaining uint32, slot *[]byte, err error) {
	remaining = PageSize - uint32(offset%PageSize)

	entry := idx.search(offset)
	if entry == nil {
		if !create {
			return nil, remaining, nil, nil
		}
		l2 := make([][]byte, L2Size)
		entry = &l1Entry{
			base: offset - offset%l1Span,
			l2:   l2,
		}
		idx.insert(entry)
	}

	slotIndex := (offset - entry.base) / PageSize
	slot = &entry.l2[slotIndex]
	if *slot == nil && create {
		p, err := idx.store.Alloc()
		if err != nil {
			return nil, remaining, slot, wrapError(ErrOutOfMemory, "allocate page", err)
		}
		*slot = p
	}
	if *slot == nil {
		return nil, remaining, slot, nil
	}
	pageOffset := offset % PageSize
	return (*slot)[pageOffset:], remaining, slot, nil
}

// freeSlot frees the page owned by slot, if any, and clears the slot so
// the range it covers reads as zero again. Callers must only invoke this
// through an L2 slot obtained from lookup on this same index.
func (idx *twoLevelIndex) freeSlot(slot *[]byte) {
	if *slot == nil {
		return
	}
	idx.store.Free(*slot)
	*slot = nil
}

// release frees every page and directory owned by the index. Called from
// Array.Close.
func (idx *twoLevelIndex) release() {
	for _, e := range idx.entries {
		for i := range e.l2 {
			if e.l2[i] != nil {
				idx.store.Free(e.l2[i])
				e.l2[i] = nil
			}
		}
	}
	idx.entries = nil
}
