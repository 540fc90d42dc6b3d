package backing

import "sync"
import "unsafe"

import "github.com/bnclabs/ringmalloc/api"

// Heap is a pure-Go backing allocator for hosts that cannot use cgo.
// It sources chunk storage from ordinary Go byte slices, keeping a
// live reference to each until Free is called so the garbage
// collector never reclaims memory the ring still considers live —
// nothing else holds a typed reference to the slice once its address
// escapes into a Chunk's raw base pointer.
type Heap struct {
	mu    sync.Mutex
	slabs map[unsafe.Pointer][]byte
}

// NewHeap returns a ready-to-use Heap backing allocator.
func NewHeap() *Heap {
	return &Heap{slabs: make(map[unsafe.Pointer][]byte)}
}

// Alloc implements api.Backing.
func (h *Heap) Alloc(n int64) (unsafe.Pointer, error) {
	if n <= 0 {
		n = 1
	}
	buf := make([]byte, n)
	ptr := unsafe.Pointer(&buf[0])

	h.mu.Lock()
	h.slabs[ptr] = buf
	h.mu.Unlock()

	return ptr, nil
}

// Free implements api.Backing.
func (h *Heap) Free(ptr unsafe.Pointer, n int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.slabs[ptr]; !ok {
		panic("backing: Free of unknown pointer")
	}
	delete(h.slabs, ptr)
}

var _ api.Backing = (*Heap)(nil)
