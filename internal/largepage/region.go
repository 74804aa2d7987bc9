package largepage

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

// hugePageSize is the allocation granularity used when asking the OS for
// memory. 2 MiB matches x86-64 and arm64 transparent huge pages.
const hugePageSize = 2 << 20

// maxSize bounds a single region so size rounding cannot overflow.
const maxSize = math.MaxInt &^ (hugePageSize - 1)

var (
	// ErrSize is returned for a non-positive or oversized request.
	ErrSize = errors.New("largepage: invalid size")
	// ErrAlloc is returned when neither the OS nor the heap can provide the memory.
	ErrAlloc = errors.New("largepage: allocation failed")
)

// Region is a zeroed block of memory obtained by Alloc.
type Region struct {
	data []byte
	free func([]byte) error
	mem  []byte // full mapping, data is a prefix of it
	huge bool
	heap bool
}

// Alloc returns a zeroed region of exactly size bytes, 8-byte aligned at
// least. It prefers huge-page backed OS memory and falls back to the heap.
func Alloc(size int) (*Region, error) {
	if size <= 0 || size > maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrSize, size)
	}

	rounded := roundUp(size, hugePageSize)
	mem, free, huge, osErr := osAlloc(rounded)
	if osErr == nil {
		return &Region{data: mem[:size:size], mem: mem, free: free, huge: huge}, nil
	}

	data, err := heapAlloc(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: os: %v: heap: %v", ErrAlloc, size, osErr, err)
	}
	return &Region{data: data, heap: true}, nil
}

// Bytes returns the region's memory. The slice is invalid after Free.
func (r *Region) Bytes() []byte {
	if r == nil {
		return nil
	}
	return r.data
}

// Len returns the usable size in bytes.
func (r *Region) Len() int {
	if r == nil {
		return 0
	}
	return len(r.data)
}

// Huge reports whether huge pages were requested successfully for the region.
func (r *Region) Huge() bool { return r != nil && r.huge }

// Heap reports whether the region fell back to the Go heap.
func (r *Region) Heap() bool { return r != nil && r.heap }

// Free releases the region. It is safe to call more than once and on nil.
func (r *Region) Free() error {
	if r == nil || r.data == nil {
		return nil
	}
	var err error
	if r.free != nil {
		err = r.free(r.mem)
	}
	r.data, r.mem, r.free = nil, nil, nil
	return err
}

func roundUp(n, to int) int {
	return (n + to - 1) &^ (to - 1)
}

// heapAlloc backs the region with a []uint64 for alignment. A request the
// runtime cannot satisfy panics inside make; that panic is turned into an
// error. A genuine out-of-memory condition still aborts the process.
func heapAlloc(size int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%v", r)
		}
	}()
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), size), nil
}
