package backing

//#include <stdlib.h>
import "C"

import "unsafe"

import "github.com/bnclabs/ringmalloc/api"

// CGo is the default backing allocator: chunks are sourced directly
// from the C heap, the same way malloc/pool_flist.go and
// malloc/pool_fbit.go source their pool blocks.
type CGo struct{}

// Alloc implements api.Backing.
func (CGo) Alloc(n int64) (unsafe.Pointer, error) {
	ptr := C.malloc(C.size_t(n))
	if ptr == nil {
		return nil, api.ErrOutOfMemory
	}
	return unsafe.Pointer(ptr), nil
}

// Free implements api.Backing.
func (CGo) Free(ptr unsafe.Pointer, n int64) {
	C.free(ptr)
}

var _ api.Backing = CGo{}
