package ring

import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/ringmalloc/api"
import "github.com/bnclabs/ringmalloc/lib"

// Chunk is a contiguous span of memory carved by bump allocation. It
// is exported so global.Allocator can hold orphaned chunks in its
// process-wide pool; callers outside this repository have no
// business constructing one directly.
//
// Fields mirror spec.md's data model almost verbatim: base/capacity
// bound the usable region, cursor is the monotonic bump offset,
// inflight counts live blocks, next links the cyclic ring. reclaimed
// and onZero implement the exactly-once handoff a chunk needs when it
// is orphaned to a pool that may race with the final deallocation
// that would otherwise free it twice.
type Chunk struct {
	base     unsafe.Pointer
	capacity int64
	cursor   int64
	inflight counter
	next     *Chunk

	backing api.Backing

	reclaimed atomic.Bool
	onZero    atomic.Pointer[func(*Chunk)]
}

func newChunk(backing api.Backing, size int64, crossThread bool) (*Chunk, error) {
	base, err := backing.Alloc(size)
	if err != nil {
		return nil, api.ErrOutOfMemory
	}
	c := &Chunk{
		base:     base,
		capacity: size,
		backing:  backing,
	}
	if crossThread {
		c.inflight = &atomicCounter{}
	} else {
		c.inflight = &plainCounter{}
	}
	c.next = c
	return c, nil
}

// Reusable reports whether the chunk currently has no live blocks and
// may have its cursor reset.
func (c *Chunk) Reusable() bool {
	return c.inflight.load() == 0
}

// reset rewinds the bump cursor. Only the Ring calls this, and only
// after confirming the chunk is Reusable.
func (c *Chunk) reset() {
	if !c.Reusable() {
		panic("ring: reset of chunk with live blocks")
	}
	c.cursor = 0
}

// tryCarve attempts to bump-allocate size bytes aligned to align. It
// is total: on any overflow or capacity exhaustion it returns
// (nil, false) without mutating chunk state.
//
// Alignment is computed on the chunk's absolute base address, not on
// the cursor offset in isolation: backing.Alloc makes no promise that
// c.base itself lands on a multiple of align (cgo malloc, for
// instance, only guarantees a fixed platform alignment), so aligning
// an offset and adding it to an unaligned base can still hand back a
// misaligned address. allocateOversize's absolute-address math is the
// same fix applied to the bypass path.
func (c *Chunk) tryCarve(size, align int64) (unsafe.Pointer, bool) {
	base := uintptr(c.base)
	afterHeader, ok := lib.AlignUp(int64(base)+c.cursor+headerSize, headerAlign)
	if !ok {
		return nil, false
	}
	userAddr, ok := lib.AlignUp(afterHeader, effectiveAlign(align))
	if !ok {
		return nil, false
	}
	userOff := userAddr - int64(base)
	newCursor := userOff + size
	if newCursor < 0 || newCursor > c.capacity {
		return nil, false
	}

	hdr := headerAt(uintptr(userAddr))
	hdr.tagged = packChunk(c)
	hdr.size = 0

	c.cursor = newCursor
	c.inflight.add(1)

	return unsafe.Pointer(uintptr(userAddr)), true
}

// tryGrowInPlace extends the most recent allocation on this chunk
// when it is still the trailing allocation (cursor == old block end)
// and the chunk has room. This is the optional in-place grow spec.md's
// Design Notes describe: "trivial to detect via cursor == block_end".
func (c *Chunk) tryGrowInPlace(ptr unsafe.Pointer, oldSize, newSize int64) bool {
	userOff := int64(uintptr(ptr) - uintptr(c.base))
	if userOff+oldSize != c.cursor {
		return false
	}
	newCursor := userOff + newSize
	if newCursor < 0 || newCursor > c.capacity {
		return false
	}
	c.cursor = newCursor
	return true
}

// release decrements the in-flight count for a block carved from this
// chunk, reclaiming it exactly once if a reclaim hook has been armed
// and the count has reached zero.
func (c *Chunk) release() {
	n := c.inflight.add(-1)
	debugAssert(n >= 0, "double free detected")
	if n == 0 {
		c.maybeReclaim()
	}
}

// SetOnZero arms a callback invoked exactly once, the first time the
// chunk's in-flight count reaches (or is already at) zero after this
// call. global.Allocator uses this to hand an orphaned chunk back to
// the backing allocator without racing the deallocation that empties
// it — see global/orphan.go.
func (c *Chunk) SetOnZero(fn func(*Chunk)) {
	c.onZero.Store(&fn)
	if c.Reusable() {
		c.maybeReclaim()
	}
}

func (c *Chunk) maybeReclaim() {
	fnp := c.onZero.Load()
	if fnp == nil {
		return
	}
	if c.reclaimed.CompareAndSwap(false, true) {
		(*fnp)(c)
	}
}

// Free returns the chunk's storage to its backing allocator. Callers
// must have already established the chunk is Reusable (or are the
// exactly-once winner from maybeReclaim); Free never checks in-flight
// itself.
func (c *Chunk) Free() {
	c.backing.Free(c.base, c.capacity)
	c.base = nil
}
