// Package sparsearray implements a sparse, in-memory virtual block store.
//
// It backs a virtual disk image of nominal size up to 2^63-1 bytes while
// allocating memory only for the regions that have actually been written
// with non-zero content. A two-level, page-table-like index (L1 directory
// of L2 directories of pages) keeps per-operation cost and memory overhead
// predictable across that whole address range. An accompanying ExtentList
// type reports, for any byte range, which subranges are holes (no page
// allocated: never written, or zeroed and reclaimed), allocated but all
// zero, or hold real data.
//
// Key properties:
//   - reads always succeed and never allocate
//   - writes allocate pages lazily, on demand
//   - zeroing a whole page reclaims it, preserving sparseness
//   - extent queries are strictly ordered, contiguous, and length-capped
//
// Basic usage:
//
//	a := sparsearray.NewArray(false, nil)
//	defer a.Close()
//
//	if err := a.Write([]byte("hello"), 1<<20); err != nil {
//	    log.Fatal(err)
//	}
//
//	buf := make([]byte, 5)
//	a.Read(buf, 1<<20)
//
//	exts, err := sparsearray.NewExtentList(0, 1<<30)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Extents(1<<20, 0, exts); err != nil {
//	    log.Fatal(err)
//	}
//
// The type is not safe for concurrent use. A caller embedding it behind a
// multi-threaded server must hold its own mutex across every operation,
// including Read and Extents — page reclamation during Zero can race with
// a concurrent reader. See package hostregistry for a thread-safe table of
// handles to several arrays owned by the same process; it serializes
// lookup of an Array by handle, not operations on the Array itself.
package sparsearray
