//go:build unix

package diskmmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// Create creates a temporary file in dir (os.TempDir if dir == ""), sizes
// it to size bytes, and maps it read-write and shared. The file is
// unlinked as soon as it is mapped, so its name is gone from the
// filesystem before Create returns and its storage is released once the
// mapping is closed (or the process exits) without any explicit cleanup
// path.
func Create(dir string, size int64) (*Region, error) {
	f, err := os.CreateTemp(dir, "sparsedisk-spill-*")
	if err != nil {
		return nil, &Error{"create temp file", err}
	}
	path := f.Name()

	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, &Error{"truncate", err}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, &Error{"mmap", err}
	}

	// The fd is no longer needed once mapped; the mapping keeps the
	// pages alive independent of the file descriptor.
	f.Close()
	os.Remove(path)

	return &Region{data: data, path: path}, nil
}

// Close unmaps the region.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	return err
}
