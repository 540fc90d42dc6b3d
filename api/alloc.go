// Package api defines the interfaces shared by every allocator-shaped
// package in this repository: the caller-facing Allocator contract and
// the Backing contract that supplies raw chunk storage.
package api

import "unsafe"

// Layout describes a requested allocation: Size bytes aligned to Align,
// which must be a power of two.
type Layout struct {
	Size  int64
	Align int64
}

// Allocator is the contract exposed to host containers by both the
// thread-confined and cross-thread facades.
type Allocator interface {
	// Allocate a block satisfying layout. Returns ErrOutOfMemory or
	// ErrLayoutOverflow on failure.
	Allocate(layout Layout) (unsafe.Pointer, error)

	// AllocateZeroed is Allocate followed by zeroing the returned bytes.
	AllocateZeroed(layout Layout) (unsafe.Pointer, error)

	// Deallocate a block previously returned by Allocate. Double-free
	// and foreign pointers are undefined behaviour, checked only in
	// debug builds.
	Deallocate(ptr unsafe.Pointer, layout Layout)

	// Grow may fall back to allocate+copy+deallocate, or extend in
	// place when ptr was the most recent allocation on its chunk.
	Grow(ptr unsafe.Pointer, oldLayout, newLayout Layout) (unsafe.Pointer, error)

	// Shrink may fall back to allocate+copy+deallocate, or truncate in
	// place under the same condition as Grow.
	Shrink(ptr unsafe.Pointer, oldLayout, newLayout Layout) (unsafe.Pointer, error)
}

// Backing supplies the raw chunk storage the ring carves blocks from.
// local.LocalAllocator calls Alloc/Free only from its owning goroutine.
// A Backing given to global.Allocator must be safe for concurrent use:
// all of its shards share the one Backing, and oversize blocks and
// orphaned chunks are freed from whichever goroutine deallocates them.
type Backing interface {
	// Alloc n bytes, returning a pointer to a region of at least n
	// bytes, or an error if the request cannot be satisfied.
	Alloc(n int64) (unsafe.Pointer, error)

	// Free a region previously returned by Alloc, of the same size n.
	Free(ptr unsafe.Pointer, n int64)
}
