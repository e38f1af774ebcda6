package spillstore

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/nbdkit-go/sparsedisk/internal/diskmmap"
)

// DefaultSegmentSlots is the number of pages held by one segment.
const DefaultSegmentSlots = 1024

// DefaultMaxSegments bounds total capacity at
// DefaultMaxSegments*DefaultSegmentSlots*pageSize bytes of mmap'd arena.
const DefaultMaxSegments = 256

// segment is one mmap'd region of the store, divided into pageSize slots
// tracked by a bitmap.
type segment struct {
	region *diskmmap.Region
	bm     *bitmap
	base   uintptr
	end    uintptr
}

// Store is a PageStore backed by segmented, growable mmap arenas rather
// than the Go heap. It implements sparsearray.PageStore. Segments are
// never resized or remapped in place; once full, a new segment is added,
// so page slices handed out by Alloc stay valid for the lifetime of the
// Store regardless of later growth.
type Store struct {
	mu        sync.Mutex
	dir       string
	pageSize  uint32
	segSlots  uint32
	maxSegs   int
	segments  []*segment
	searchIdx int // segment to resume searching from
}

// New creates a Store whose pages are pageSize bytes, backed by temp
// files in dir (os.TempDir if dir == ""). The first segment is allocated
// immediately so Alloc never pays for segment creation on a cold Store.
func New(dir string, pageSize uint32) (*Store, error) {
	s := &Store{
		dir:      dir,
		pageSize: pageSize,
		segSlots: DefaultSegmentSlots,
		maxSegs:  DefaultMaxSegments,
	}
	if err := s.addSegment(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) addSegment() error {
	if len(s.segments) >= s.maxSegs {
		return fmt.Errorf("spillstore: max segments (%d) reached", s.maxSegs)
	}
	size := int64(s.segSlots) * int64(s.pageSize)
	region, err := diskmmap.Create(s.dir, size)
	if err != nil {
		return err
	}
	data := region.Bytes()
	base := uintptr(unsafe.Pointer(&data[0]))
	s.segments = append(s.segments, &segment{
		region: region,
		bm:     newBitmap(s.segSlots),
		base:   base,
		end:    base + uintptr(len(data)),
	})
	return nil
}

// Alloc returns a new zero-filled page. Pages are always zero on first
// use because the backing file is freshly truncated; pages returned from
// a freed slot are zeroed by Free before the slot is reused.
func (s *Store) Alloc() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < len(s.segments); i++ {
		idx := (s.searchIdx + i) % len(s.segments)
		seg := s.segments[idx]
		slot, ok := seg.bm.allocate()
		if !ok {
			continue
		}
		s.searchIdx = idx
		off := int64(slot) * int64(s.pageSize)
		return seg.region.Bytes()[off : off+int64(s.pageSize)], nil
	}

	if err := s.addSegment(); err != nil {
		return nil, err
	}
	seg := s.segments[len(s.segments)-1]
	slot, ok := seg.bm.allocate()
	if !ok {
		return nil, fmt.Errorf("spillstore: fresh segment reported full")
	}
	s.searchIdx = len(s.segments) - 1
	off := int64(slot) * int64(s.pageSize)
	return seg.region.Bytes()[off : off+int64(s.pageSize)], nil
}

// Free releases a page previously returned by Alloc back to its segment
// and zeroes it so the slot reads as a fresh page when reallocated.
func (s *Store) Free(page []byte) {
	if len(page) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(&page[0]))

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, seg := range s.segments {
		if addr < seg.base || addr >= seg.end {
			continue
		}
		slot := uint32((addr - seg.base) / uintptr(s.pageSize))
		clear(page[:s.pageSize])
		seg.bm.free(slot)
		if i < s.searchIdx {
			s.searchIdx = i
		}
		return
	}
	// A page not owned by this Store is a bug in the caller, not a
	// condition the store itself can recover from.
	panic("spillstore: Free called with a page this Store did not allocate")
}

// IsAllZero reports whether every byte of page is zero.
func (s *Store) IsAllZero(page []byte) bool {
	n := len(page)
	i := 0
	for ; i+8 <= n; i += 8 {
		if *(*uint64)(unsafe.Pointer(&page[i])) != 0 {
			return false
		}
	}
	for ; i < n; i++ {
		if page[i] != 0 {
			return false
		}
	}
	return true
}

// Close unmaps every segment. The Store must not be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, seg := range s.segments {
		if err := seg.region.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.segments = nil
	return firstErr
}

// Capacity returns the total number of page slots across all segments.
func (s *Store) Capacity() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint32(len(s.segments)) * s.segSlots
}

// Allocated returns the number of currently allocated slots.
func (s *Store) Allocated() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint32
	for _, seg := range s.segments {
		n += seg.bm.count()
	}
	return n
}
