package sparsearray

import "testing"

func TestIndexInsertKeepsEntriesOrdered(t *testing.T) {
	idx := newTwoLevelIndex(nil)

	bases := []uint64{3, 1, 4, 1, 5, 9, 2, 6}
	seen := map[uint64]bool{}
	for _, b := range bases {
		base := b * l1Span
		if seen[base] {
			continue
		}
		seen[base] = true
		idx.insert(&l1Entry{base: base, l2: make([][]byte, L2Size)})
	}

	for i := 1; i < len(idx.entries); i++ {
		if idx.entries[i-1].base >= idx.entries[i].base {
			t.Fatalf("entries not strictly ordered at %d: %d >= %d",
				i, idx.entries[i-1].base, idx.entries[i].base)
		}
	}
}

func TestIndexInsertDuplicateBasePanics(t *testing.T) {
	idx := newTwoLevelIndex(nil)
	idx.insert(&l1Entry{base: 0, l2: make([][]byte, L2Size)})

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic inserting a duplicate base offset")
		}
	}()
	idx.insert(&l1Entry{base: 0, l2: make([][]byte, L2Size)})
}

func TestIndexSearchFindsCoveringEntry(t *testing.T) {
	idx := newTwoLevelIndex(nil)
	idx.insert(&l1Entry{base: 0, l2: make([][]byte, L2Size)})
	idx.insert(&l1Entry{base: l1Span * 5, l2: make([][]byte, L2Size)})

	if e := idx.search(100); e == nil || e.base != 0 {
		t.Fatal("expected offset 100 to be covered by the base-0 entry")
	}
	if e := idx.search(l1Span * 5); e == nil || e.base != l1Span*5 {
		t.Fatal("expected exact base offset to match its own entry")
	}
	if e := idx.search(l1Span * 2); e != nil {
		t.Fatal("expected an uncovered offset to return nil")
	}
}

func TestIndexLookupCreateAllocatesOnDemand(t *testing.T) {
	idx := newTwoLevelIndex(nil)

	page, remaining, slot, err := idx.lookup(PageSize+10, true)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if page == nil {
		t.Fatal("expected a page to be allocated")
	}
	if remaining != PageSize-10 {
		t.Fatalf("remaining = %d, want %d", remaining, PageSize-10)
	}
	if *slot == nil {
		t.Fatal("expected the slot to hold the allocated page")
	}
}

func TestIndexLookupNoCreateReturnsNilForAbsentPage(t *testing.T) {
	idx := newTwoLevelIndex(nil)
	page, _, slot, err := idx.lookup(12345, false)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if page != nil {
		t.Fatal("expected nil page for an untouched offset with create=false")
	}
	if slot != nil {
		t.Fatal("expected nil slot when no L1 entry exists and create=false")
	}
}

func TestIndexFreeSlotReleasesPage(t *testing.T) {
	idx := newTwoLevelIndex(nil)
	_, _, slot, err := idx.lookup(0, true)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	idx.freeSlot(slot)
	if *slot != nil {
		t.Fatal("expected slot to be cleared after freeSlot")
	}
}
