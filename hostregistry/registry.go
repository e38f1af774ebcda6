// Package hostregistry is a thread-safe table of integer handles to
// sparsearray.Array instances, for a host process that multiplexes many
// virtual disks through one set of connections (for example a debug CLI
// or a server core dispatching read/write calls by handle number).
//
// Unlike sparsearray.Array itself, Registry is safe for concurrent use:
// callers get a single lock around the table instead of having to build
// their own synchronization around a bare map.
package hostregistry

import (
	"sync"

	"github.com/nbdkit-go/sparsedisk"
)

type bucketState uint8

const (
	bucketEmpty bucketState = iota
	bucketUsed
	bucketTombstone
)

type bucket struct {
	key   uint32
	value *sparsearray.Array
	state bucketState
}

// fibHash32 is 2^32 divided by the golden ratio, used to spread
// sequential handle values across buckets.
const fibHash32 = 2654435769

// Registry maps uint32 handles to *sparsearray.Array using open
// addressing with linear probing and fibonacci hashing.
type Registry struct {
	mu      sync.Mutex
	buckets []bucket
	mask    uint32
	count   int
	used    int // used + tombstone, for grow/resize accounting
	next    uint32
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

func hash(key uint32) uint32 {
	return key * fibHash32
}

// Register allocates a new handle for a and stores it, returning the
// handle. Handles are assigned sequentially starting at 1 so that 0 can
// serve as a caller-side "no handle" sentinel.
func (r *Registry) Register(a *sparsearray.Array) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	handle := r.next
	r.insert(handle, a)
	return handle
}

// Get returns the Array for handle, or nil, false if no such handle is
// registered.
func (r *Registry) Get(handle uint32) (*sparsearray.Array, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.find(handle)
	if !ok {
		return nil, false
	}
	return r.buckets[idx].value, true
}

// Release removes handle from the table and returns the Array it pointed
// to, if any. The caller is responsible for calling Close on the
// returned Array; Release does not do it on their behalf, since a
// caller may want to keep using the Array under a different handle.
func (r *Registry) Release(handle uint32) (*sparsearray.Array, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.find(handle)
	if !ok {
		return nil, false
	}
	a := r.buckets[idx].value
	r.buckets[idx].value = nil
	r.buckets[idx].state = bucketTombstone
	r.count--
	return a, true
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *Registry) find(key uint32) (uint32, bool) {
	if len(r.buckets) == 0 {
		return 0, false
	}
	idx := hash(key) & r.mask
	for {
		b := &r.buckets[idx]
		switch b.state {
		case bucketEmpty:
			return 0, false
		case bucketUsed:
			if b.key == key {
				return idx, true
			}
		}
		idx = (idx + 1) & r.mask
	}
}

func (r *Registry) insert(key uint32, value *sparsearray.Array) {
	if len(r.buckets) == 0 {
		r.buckets = make([]bucket, 16)
		r.mask = 15
	} else if r.used >= len(r.buckets)*3/4 {
		r.grow()
	}

	idx := hash(key) & r.mask
	var firstTombstone uint32
	haveTombstone := false
	for {
		b := &r.buckets[idx]
		if b.state == bucketEmpty {
			if haveTombstone {
				idx = firstTombstone
			} else {
				r.used++
			}
			r.buckets[idx] = bucket{key: key, value: value, state: bucketUsed}
			r.count++
			return
		}
		if b.state == bucketTombstone && !haveTombstone {
			firstTombstone = idx
			haveTombstone = true
		}
		if b.state == bucketUsed && b.key == key {
			b.value = value
			return
		}
		idx = (idx + 1) & r.mask
	}
}

func (r *Registry) grow() {
	old := r.buckets
	newSize := len(old) * 2
	if newSize == 0 {
		newSize = 16
	}
	r.buckets = make([]bucket, newSize)
	r.mask = uint32(newSize - 1)
	r.count = 0
	r.used = 0

	for i := range old {
		if old[i].state == bucketUsed {
			r.insert(old[i].key, old[i].value)
		}
	}
}
