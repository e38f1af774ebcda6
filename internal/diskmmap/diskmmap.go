// Package diskmmap memory-maps a temporary, page-aligned file to back the
// spill arena in package spillstore. It is deliberately narrow: unlike a
// general-purpose mmap wrapper it only ever creates a fresh, writable,
// private-use mapping and never leaves the backing file behind (on Unix
// it is unlinked as soon as it is mapped; on Windows it is deleted when
// the region is closed) —
// spillstore never needs to reopen or resize a mapping in place, because
// it grows by adding new segments instead (see spillstore.Store).
package diskmmap

// Region is one memory-mapped, file-backed arena.
type Region struct {
	data []byte
	path string
}

// Bytes returns the mapped memory. Its length is exactly the size
// requested from Create.
func (r *Region) Bytes() []byte {
	return r.data
}

// Error reports a failure from the underlying mmap/file syscalls.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "diskmmap: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
