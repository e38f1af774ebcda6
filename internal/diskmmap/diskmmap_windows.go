//go:build windows

package diskmmap

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Region additionally carries the Windows handles that must outlive the
// mapping; they have no meaning on Unix so they live only in this file.
type winHandles struct {
	file    windows.Handle
	mapping windows.Handle
}

var handles = map[*Region]winHandles{}

// Create creates a temporary file in dir (os.TempDir if dir == ""), sizes
// it to size bytes, and maps it read-write. FILE_FLAG_DELETE_ON_CLOSE
// means the file vanishes from the filesystem as soon as the handle (and
// therefore the mapping) is closed.
func Create(dir string, size int64) (*Region, error) {
	f, err := os.CreateTemp(dir, "sparsedisk-spill-*")
	if err != nil {
		return nil, &Error{"create temp file", err}
	}
	path := f.Name()
	f.Close()

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		os.Remove(path)
		return nil, &Error{"path conversion", err}
	}
	handle, err := windows.CreateFile(
		pathPtr,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_DELETE_ON_CLOSE,
		0,
	)
	if err != nil {
		os.Remove(path)
		return nil, &Error{"CreateFile", err}
	}

	sizeHigh := uint32(uint64(size) >> 32)
	sizeLow := uint32(size)
	mapping, err := windows.CreateFileMapping(handle, nil, windows.PAGE_READWRITE, sizeHigh, sizeLow, nil)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, &Error{"CreateFileMapping", err}
	}

	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(mapping)
		windows.CloseHandle(handle)
		return nil, &Error{"MapViewOfFile", err}
	}

	var data []byte
	sh := (*struct {
		Data uintptr
		Len  int
		Cap  int
	})(unsafe.Pointer(&data))
	sh.Data = addr
	sh.Len = int(size)
	sh.Cap = int(size)

	r := &Region{data: data, path: path}
	handles[r] = winHandles{file: handle, mapping: mapping}
	return r, nil
}

// Close unmaps the region and releases the underlying file handles.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&r.data[0]))
	err := windows.UnmapViewOfFile(addr)
	r.data = nil
	if h, ok := handles[r]; ok {
		windows.CloseHandle(h.mapping)
		windows.CloseHandle(h.file)
		delete(handles, r)
	}
	return err
}
