package sparsearray

// Page and directory geometry. These are fixed at build time: the layout
// of an Array is defined entirely in terms of them, and two Arrays built
// with different constants cannot Blit between each other.
const (
	// PageSize is the size in bytes of a single allocated page.
	PageSize = 32768

	// L2Size is the number of page slots in one L2 directory.
	L2Size = 4096

	// l1Span is the number of virtual address bytes covered by a single
	// L1 entry and its L2 directory: PageSize*L2Size, 128 MiB with the
	// constants above.
	l1Span = PageSize * L2Size
)

// MaxExtents caps how many extents a single ExtentList will ever hold,
// regardless of how many times AddExtent is called. This bounds both the
// memory used by one extent query and the size of any reply built from
// it.
const MaxExtents = 1 << 20
