// Package local exposes a single-goroutine allocator on top of a
// ring.Ring. It is the direct analogue of a thread-confined arena:
// Allocate/Deallocate/Grow/Shrink must only ever be called by the
// goroutine that owns the LocalAllocator, matching spec.md's
// requirement that per-thread state never cross a thread boundary.
// A LocalAllocator may be aliased via Clone; every alias shares one
// Ring through a reference-counted cell, and the last Close tears it
// down.
package local

import "fmt"
import "unsafe"

import s "github.com/prataprc/gosettings"

import "github.com/bnclabs/ringmalloc/api"
import "github.com/bnclabs/ringmalloc/ring"

// ringCell is the shared, reference-counted state behind every alias
// of a LocalAllocator. It plays the role of local.rs's Rings: a single
// Ring plus a plain (non-atomic) ref_cnt, since a LocalAllocator and
// all of its clones are confined to the goroutine(s) that already
// serialize access to them — the same "not safe for concurrent use"
// contract the original Cell<usize> ref count relies on.
type ringCell struct {
	r      *ring.Ring
	refcnt int64
}

// LocalAllocator wraps a shared ringCell with the api.Allocator
// surface. It is not safe for concurrent use; Clone hands back a
// second handle over the *same* Ring, bumping the cell's ref count,
// exactly as local.rs's RingAlloc::clone bumps Rings::ref_cnt without
// copying the Rings itself.
type LocalAllocator struct {
	name  string
	cell  *ringCell
	setts s.Settings

	closed bool
}

// New creates a LocalAllocator backed by cgo malloc/free.
func New(name string, setts s.Settings) (*LocalAllocator, error) {
	return NewIn(name, setts, defaultBacking())
}

// NewIn creates a LocalAllocator sourcing chunk storage from backing,
// letting hosts that cannot use cgo supply backing.NewHeap() instead.
func NewIn(name string, setts s.Settings, backing api.Backing) (*LocalAllocator, error) {
	setts = (s.Settings{}).Mixin(Defaultsettings(), setts)
	cfg := ring.ConfigFromSettings(setts)

	r, err := ring.NewRing(cfg, backing)
	if err != nil {
		return nil, err
	}

	cell := &ringCell{r: r, refcnt: 1}
	la := &LocalAllocator{name: name, cell: cell, setts: setts}
	infof("%v started ...\n", la.logprefix())
	return la, nil
}

func (la *LocalAllocator) logprefix() string {
	return fmt.Sprintf("local.LocalAllocator{%s}", la.name)
}

// Allocate implements api.Allocator.
func (la *LocalAllocator) Allocate(layout api.Layout) (unsafe.Pointer, error) {
	if la.closed {
		panic("local: use of closed allocator")
	}
	return la.cell.r.Allocate(layout.Size, layout.Align)
}

// AllocateZeroed implements api.Allocator.
func (la *LocalAllocator) AllocateZeroed(layout api.Layout) (unsafe.Pointer, error) {
	if la.closed {
		panic("local: use of closed allocator")
	}
	return la.cell.r.AllocateZeroed(layout.Size, layout.Align)
}

// Deallocate implements api.Allocator. Safe even after the block's
// originating ring has rotated past its chunk many times over, since
// resolution goes through the block's header, not through la.cell.r.
func (la *LocalAllocator) Deallocate(ptr unsafe.Pointer, layout api.Layout) {
	la.cell.r.Deallocate(ptr)
}

// Grow implements api.Allocator: extend in place when ptr is the
// trailing allocation on its chunk, otherwise allocate, copy, and
// deallocate the old block.
func (la *LocalAllocator) Grow(ptr unsafe.Pointer, oldLayout, newLayout api.Layout) (unsafe.Pointer, error) {
	if la.cell.r.TryGrowInPlace(ptr, oldLayout.Size, newLayout.Size) {
		return ptr, nil
	}
	fresh, err := la.cell.r.Allocate(newLayout.Size, newLayout.Align)
	if err != nil {
		return nil, err
	}
	copyBytes(fresh, ptr, oldLayout.Size)
	la.cell.r.Deallocate(ptr)
	return fresh, nil
}

// Shrink implements api.Allocator. Shrinking never fails and never
// needs to move the block: the extra tail bytes are simply left
// unused until the whole block is freed.
func (la *LocalAllocator) Shrink(ptr unsafe.Pointer, oldLayout, newLayout api.Layout) (unsafe.Pointer, error) {
	return ptr, nil
}

// Clone returns a second handle over this LocalAllocator's Ring,
// bumping the shared cell's reference count in O(1), matching
// local.rs's RingAlloc::clone (Rings::inc_ref then a copy of the same
// inner pointer). The clone and its origin are aliases: allocating
// through one and deallocating through the other is exactly as valid
// as doing both through the same handle.
func (la *LocalAllocator) Clone() (*LocalAllocator, error) {
	if la.closed {
		panic("local: use of closed allocator")
	}
	la.cell.refcnt++
	return &LocalAllocator{name: la.name + ".clone", cell: la.cell, setts: la.setts}, nil
}

// Close decrements the shared cell's reference count, matching
// local.rs's RingAlloc::drop (Rings::dec_ref). Only the last handle to
// close tears the Ring down; chunks still holding live blocks at that
// point cannot be handed to any other owner — there is no orphan pool
// at this layer — so Close logs a leak warning for each one instead of
// silently discarding it. Use global.Allocator when leaked chunks must
// be reclaimed once outstanding blocks are freed.
func (la *LocalAllocator) Close() {
	if la.closed {
		return
	}
	la.closed = true

	la.cell.refcnt--
	if la.cell.refcnt > 0 {
		infof("%v closed (%d alias(es) remain)\n", la.logprefix(), la.cell.refcnt)
		return
	}

	var leaked int
	la.cell.r.Drop(func(c *ring.Chunk) {
		leaked++
	})
	if leaked > 0 {
		warnf("%v closed with %d chunk(s) still holding live blocks; leaking\n", la.logprefix(), leaked)
	} else {
		infof("%v closed\n", la.logprefix())
	}
}

func copyBytes(dst, src unsafe.Pointer, n int64) {
	if n == 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), n)
	srcBuf := unsafe.Slice((*byte)(src), n)
	copy(d, srcBuf)
}

var _ api.Allocator = (*LocalAllocator)(nil)
