package sparsearray

// Array is a sparse virtual disk: a 64-bit-addressable byte space backed
// by a TwoLevelIndex of lazily allocated pages. It is the public façade
// over the index and page store.
//
// Callers are responsible for ensuring offset+count does not overflow a
// 64-bit address; Array itself performs no bounds check against a
// nominal disk size because it has none — that policy, if wanted,
// belongs to the caller (or to package hostregistry).
//
// Array is not safe for concurrent use; see the package doc comment.
type Array struct {
	idx   *twoLevelIndex
	debug bool
}

// NewArray allocates an empty Array. If store is nil, pages are allocated
// on the Go heap; pass a custom PageStore (e.g. spillstore.Store) to back
// pages with some other arena. If debug is true, Array emits trace
// strings through SetDebugSink's sink (default: discarded).
func NewArray(debug bool, store PageStore) *Array {
	a := &Array{
		idx:   newTwoLevelIndex(store),
		debug: debug,
	}
	return a
}

// SetDebugSink installs the function that receives debug traces when the
// Array was constructed with debug=true. The zero value discards traces.
func (a *Array) SetDebugSink(sink func(format string, args ...any)) {
	if !a.debug {
		return
	}
	a.idx.debugf = sink
}

// Close releases every page and directory the Array owns. The Array must
// not be used afterwards.
func (a *Array) Close() {
	a.idx.release()
}

// Read copies len(buf) bytes starting at offset into buf, zero-filling any
// part of the range that was never written or has been zeroed. Read
// always succeeds and never allocates.
func (a *Array) Read(buf []byte, offset uint64) {
	count := uint32(len(buf))
	for count > 0 {
		page, remaining, _, _ := a.idx.lookup(offset, false)
		n := remaining
		if n > count {
			n = count
		}
		if page == nil {
			clear(buf[:n])
		} else {
			copy(buf[:n], page[:n])
		}
		buf = buf[n:]
		count -= n
		offset += uint64(n)
	}
}

// Write copies the len(buf) bytes of buf to offset, allocating pages as
// needed. On allocation failure the already-written prefix remains
// persisted (no rollback); the caller must treat the Array's state for
// the requested range as undefined past the point of failure.
func (a *Array) Write(buf []byte, offset uint64) error {
	count := uint32(len(buf))
	for count > 0 {
		page, remaining, _, err := a.idx.lookup(offset, true)
		if err != nil {
			return err
		}
		n := remaining
		if n > count {
			n = count
		}
		copy(page[:n], buf[:n])
		buf = buf[n:]
		count -= n
		offset += uint64(n)
	}
	return nil
}

// Fill writes count copies of byte c starting at offset, allocating pages
// as needed. Filling with c==0 delegates to Zero, which reclaims pages
// instead of allocating them.
func (a *Array) Fill(c byte, count uint32, offset uint64) error {
	if c == 0 {
		a.Zero(count, offset)
		return nil
	}
	for count > 0 {
		page, remaining, _, err := a.idx.lookup(offset, true)
		if err != nil {
			return err
		}
		n := remaining
		if n > count {
			n = count
		}
		fillByte(page[:n], c)
		count -= n
		offset += uint64(n)
	}
	return nil
}

func fillByte(b []byte, c byte) {
	for i := range b {
		b[i] = c
	}
}

// Zero clears count bytes starting at offset. Whenever a whole page ends
// up all zero — whether because the zeroed range spans it entirely or
// because the bytes outside the range already were zero — the page is
// freed and its L2 slot cleared: this is the garbage-collection rule, and
// Zero never leaves a page it touched allocated once that page is all
// zero. Write, Fill and Blit do not apply it, so a page they leave all
// zero stays allocated (Extents reports it as ZERO). Zero never
// allocates and cannot fail.
func (a *Array) Zero(count uint32, offset uint64) {
	for count > 0 {
		page, remaining, slot, _ := a.idx.lookup(offset, false)
		n := remaining
		if n > count {
			n = count
		}
		if page != nil {
			if n < PageSize {
				clear(page[:n])
			}
			if n >= PageSize || a.idx.store.IsAllZero(*slot) {
				if a.debug && a.idx.debugf != nil {
					a.idx.debugf("freeing zero page at offset %d", offset)
				}
				a.idx.freeSlot(slot)
			}
		}
		count -= n
		offset += uint64(n)
	}
}

// Blit copies count bytes from src at srcOffset to a (the destination)
// at dstOffset, allocating destination pages as needed and reading
// through src.Read — which means a blit from a hole copies zeros without
// ever materializing a source page, and a blit that lands entirely
// within an already-zero destination page can still end up allocating
// that page (its sparseness is not re-derived; only the source's is
// preserved via src.Read).
//
// If src == a and the two ranges overlap, behaviour is undefined; callers
// must not do this.
func (a *Array) Blit(src *Array, count uint32, srcOffset, dstOffset uint64) error {
	for count > 0 {
		page, remaining, _, err := a.idx.lookup(dstOffset, true)
		if err != nil {
			return err
		}
		n := remaining
		if n > count {
			n = count
		}
		src.Read(page[:n], srcOffset)
		count -= n
		srcOffset += uint64(n)
		dstOffset += uint64(n)
	}
	return nil
}

// Extents walks count bytes starting at offset and classifies each
// covered subrange as DATA, ZERO, or HOLE|ZERO, emitting the result into
// out via out.AddExtent. Extents never allocates and never touches page
// bytes beyond inspecting them for all-zero-ness.
func (a *Array) Extents(count uint32, offset uint64, out *ExtentList) error {
	for count > 0 {
		page, remaining, _, _ := a.idx.lookup(offset, false)
		n := remaining

		var typ ExtentType
		switch {
		case page == nil:
			typ = ExtentHole | ExtentZero
		case a.idx.store.IsAllZero(page):
			typ = ExtentZero
		default:
			typ = ExtentData
		}

		emitLen := n
		if emitLen > count {
			emitLen = count
		}
		if err := out.AddExtent(offset, uint64(emitLen), typ); err != nil {
			return err
		}

		count -= emitLen
		offset += uint64(emitLen)
	}
	return nil
}
