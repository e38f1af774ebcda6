package sparsearray

import (
	"fmt"
	"math"
)

// ExtentType classifies an Extent. DATA is zero so a freshly zero-valued
// Extent reads as ordinary data. HOLE and ZERO are bitwise-combinable:
// a never-written subrange is reported as HOLE|ZERO.
type ExtentType uint32

const (
	// ExtentData marks a subrange holding real, non-zero content.
	ExtentData ExtentType = 0
	// ExtentHole marks a subrange with no page allocated behind it:
	// either never written, or zeroed and reclaimed.
	ExtentHole ExtentType = 1
	// ExtentZero marks a subrange that reads as zero. Alone it marks an
	// allocated page whose bytes are all zero; Array.Extents always
	// combines it with ExtentHole for an unallocated range.
	ExtentZero ExtentType = 2
)

// Extent is a contiguous classified subrange, as emitted by Array.Extents.
type Extent struct {
	Offset uint64
	Length uint64
	Type   ExtentType
}

// ExtentList is an append-only, window-clipped, coalescing sequence of
// Extents. Producers call AddExtent in strictly ascending, contiguous
// order; consumers read the result with Count and Get.
type ExtentList struct {
	start, end uint64
	extents    []Extent

	// next is where the next extent is expected to start. Set on every
	// AddExtent call, even when the extent is dropped rather than
	// stored, which is what lets us detect a producer skipping or
	// overlapping a range. hasNext == false means "no extent added
	// yet", in which case next is not meaningful.
	next    uint64
	hasNext bool
}

// NewExtentList creates an ExtentList covering the half-open window
// [start, end). end is one byte beyond the end of the range; start == end
// (an empty window) is allowed. Both bounds must fit in a signed 63-bit
// address (0 <= start <= end <= 2^63-1).
func NewExtentList(start, end uint64) (*ExtentList, error) {
	if start > math.MaxInt64 || end > math.MaxInt64 {
		return nil, NewError(ErrRange, fmt.Sprintf("start (%d) or end (%d) exceeds %d", start, end, uint64(math.MaxInt64)))
	}
	if start > end {
		return nil, NewError(ErrRange, fmt.Sprintf("start (%d) > end (%d)", start, end))
	}
	return &ExtentList{start: start, end: end}, nil
}

// Start returns the window's start offset.
func (l *ExtentList) Start() uint64 { return l.start }

// End returns the window's end offset (one byte beyond the last byte in
// the window).
func (l *ExtentList) End() uint64 { return l.end }

// Count returns the number of extents currently stored.
func (l *ExtentList) Count() int { return len(l.extents) }

// Get returns the i'th stored extent. It panics if i is out of range.
func (l *ExtentList) Get(i int) Extent {
	return l.extents[i]
}

// AddExtent adds offset, length, typ to the list, coalescing with the
// previous extent if it has the same type and dropping the extent
// entirely once MaxExtents has been reached or it falls wholly outside
// the window.
//
// Extents must be added in strictly ascending, contiguous order: once any
// extent has been added (even if dropped), the next offset must equal
// the previous call's offset+length. Violating this is a range error —
// it indicates a bug in the code walking the index, not a caller
// mistake a consumer of ExtentList can trigger.
func (l *ExtentList) AddExtent(offset, length uint64, typ ExtentType) error {
	if l.hasNext && l.next != offset {
		return NewError(ErrRange, "extents must be added in ascending, contiguous order")
	}
	l.next = offset + length
	l.hasNext = true

	if length == 0 {
		return nil
	}

	if offset >= l.end || len(l.extents) >= MaxExtents {
		return nil
	}

	if offset+length > l.end {
		length -= offset + length - l.end
	}

	if len(l.extents) == 0 {
		// If the new extent is entirely before start, ignore it.
		if offset+length <= l.start {
			return nil
		}
		// If it starts strictly after start, that's a producer bug:
		// the first emitted extent must cover start. An extent ending
		// exactly at start is silently accepted above; one starting
		// after it is a range error.
		if offset > l.start {
			return NewError(ErrRange, fmt.Sprintf("first extent must not be > start (%d)", l.start))
		}
		// Partial overlap with start: truncate so it begins at start.
		overlap := l.start - offset
		length -= overlap
		offset += overlap
	}

	if n := len(l.extents); n > 0 && l.extents[n-1].Type == typ {
		l.extents[n-1].Length += length
		return nil
	}
	l.extents = append(l.extents, Extent{Offset: offset, Length: length, Type: typ})
	return nil
}
