// Package ring implements the chunk-ring engine: bump allocation from
// a front Chunk, rotation onto a reusable Chunk behind it, geometric
// growth when nothing is reusable, and an oversize bypass straight to
// the backing allocator. This is the core spec.md §4.2 describes.
package ring

import "unsafe"

import "github.com/bnclabs/ringmalloc/api"
import "github.com/bnclabs/ringmalloc/lib"

// Config are the tunables spec.md §6 enumerates. All fields have
// sane defaults from Defaultsettings; zero values are treated as
// "use the default" by NewRing.
type Config struct {
	MinChunkSize      int64
	MaxChunkSize      int64
	GrowthFactor      int64
	OversizeThreshold int64
	CrossThread       bool
}

// Ring is a cyclic list of at least one Chunk with a designated front.
// It is single-producer with respect to Allocate: exactly one
// goroutine may call Allocate/Drop at a time (enforced by the caller —
// local.LocalAllocator via single ownership, global.Allocator via
// sync.Pool checkout). Deallocate is safe from any goroutine once
// Config.CrossThread is true, since it only ever touches a Chunk's
// atomic in-flight counter through the block's header.
type Ring struct {
	front   *Chunk
	backing api.Backing
	cfg     Config

	lastChunkSize int64
	numChunks     int64
}

// NewRing creates a Ring with one initial chunk sized to
// cfg.MinChunkSize.
func NewRing(cfg Config, backing api.Backing) (*Ring, error) {
	cfg = withDefaults(cfg)
	r := &Ring{backing: backing, cfg: cfg}

	c, err := newChunk(backing, cfg.MinChunkSize, cfg.CrossThread)
	if err != nil {
		return nil, err
	}
	r.front = c
	r.lastChunkSize = cfg.MinChunkSize
	r.numChunks = 1
	return r, nil
}

func withDefaults(cfg Config) Config {
	d := Defaultsettings()
	if cfg.MinChunkSize == 0 {
		cfg.MinChunkSize = d.MinChunkSize
	}
	if cfg.MaxChunkSize == 0 {
		cfg.MaxChunkSize = d.MaxChunkSize
	}
	if cfg.GrowthFactor == 0 {
		cfg.GrowthFactor = d.GrowthFactor
	}
	if cfg.OversizeThreshold == 0 {
		cfg.OversizeThreshold = d.OversizeThreshold
	}
	return cfg
}

// NumChunks reports the current number of chunks in the ring. Exposed
// for the steady-state assertions spec.md §8 requires of tests.
func (r *Ring) NumChunks() int64 {
	return r.numChunks
}

// isOversize decides whether a request bypasses the ring entirely,
// per spec.md's oversize block definition.
func (r *Ring) isOversize(size, align int64) bool {
	return size > r.cfg.OversizeThreshold || align > r.cfg.MaxChunkSize
}

// Allocate returns an aligned address of size bytes, prefixed by a
// header identifying its source.
//
// Each of the three chunks it may carve from — the front reset in
// place, the reusable chunk behind it, and a freshly grown chunk — is
// tried at most once per call. A chunk that is Reusable but too small
// for the request would fail tryCarve on every subsequent attempt as
// well, so looping back onto it (as opposed to falling through to
// growth) never makes progress; sizing the grown chunk to the request
// via nextChunkSize is what actually guarantees termination.
func (r *Ring) Allocate(size, align int64) (unsafe.Pointer, error) {
	if !lib.IsPow2(align) {
		return nil, api.ErrLayoutOverflow
	}
	if size < 0 {
		return nil, api.ErrLayoutOverflow
	}

	if r.isOversize(size, align) {
		return r.allocateOversize(size, align)
	}

	// Reuse the front chunk in place once it has drained back to zero
	// in-flight blocks, mirroring chunk.rs's _allocate resetting its
	// cursor to base whenever freed == cursor. This is what lets a
	// chunk pinned by no live block cycle forever without ever
	// rotating onto a neighbor or growing the ring.
	if r.front.Reusable() {
		r.front.reset()
	}
	if ptr, ok := r.front.tryCarve(size, align); ok {
		return ptr, nil
	}

	// The front still holds live blocks (or the reset above wasn't
	// enough room for this request). Try the chunk immediately behind
	// it once.
	next := r.front.next
	if next != r.front && next.Reusable() {
		next.reset()
		r.front = next
		if ptr, ok := r.front.tryCarve(size, align); ok {
			return ptr, nil
		}
	}

	// Neither candidate can satisfy the request: grow, sizing the new
	// chunk to fit it.
	newSize := r.nextChunkSize(size, align)
	fresh, err := newChunk(r.backing, newSize, r.cfg.CrossThread)
	if err != nil {
		return nil, err
	}
	fresh.next = r.front.next
	r.front.next = fresh
	r.front = fresh
	r.numChunks++
	debugf("ring: grew to %d chunks, new chunk %d bytes", r.numChunks, newSize)

	ptr, ok := r.front.tryCarve(size, align)
	if !ok {
		return nil, api.ErrLayoutOverflow
	}
	return ptr, nil
}

// AllocateZeroed is Allocate followed by zeroing.
func (r *Ring) AllocateZeroed(size, align int64) (unsafe.Pointer, error) {
	ptr, err := r.Allocate(size, align)
	if err != nil {
		return nil, err
	}
	zero(ptr, size)
	return ptr, nil
}

func zero(ptr unsafe.Pointer, size int64) {
	if size == 0 {
		return
	}
	buf := unsafe.Slice((*byte)(ptr), size)
	for i := range buf {
		buf[i] = 0
	}
}

// nextChunkSize implements the geometric growth schedule of
// SPEC_FULL.md §4.2.1: double the previous new-chunk size, capped at
// MaxChunkSize, but never smaller than what the current request needs.
func (r *Ring) nextChunkSize(size, align int64) int64 {
	cand := r.lastChunkSize * r.cfg.GrowthFactor
	if cand < r.cfg.MinChunkSize {
		cand = r.cfg.MinChunkSize
	}
	if cand > r.cfg.MaxChunkSize {
		cand = r.cfg.MaxChunkSize
	}
	needed := headerSize + effectiveAlign(align) - 1 + size
	if cand < needed {
		cand = needed
	}
	r.lastChunkSize = cand
	return cand
}

// allocateOversize bypasses the ring, sourcing storage directly from
// the backing allocator and tagging the header's sentinel bit so
// Deallocate routes the block back here instead of to a Chunk.
func (r *Ring) allocateOversize(size, align int64) (unsafe.Pointer, error) {
	total := headerSize + effectiveAlign(align) - 1 + size
	raw, err := r.backing.Alloc(total)
	if err != nil {
		return nil, api.ErrOutOfMemory
	}
	base := uintptr(raw)

	aligned, ok := lib.AlignUp(int64(base)+headerSize, effectiveAlign(align))
	if !ok {
		r.backing.Free(raw, total)
		return nil, api.ErrLayoutOverflow
	}
	userAddr := uintptr(aligned)

	hdr := headerAt(userAddr)
	hdr.tagged = packOversize(base)
	hdr.size = total

	return unsafe.Pointer(userAddr), nil
}

// Deallocate a block previously returned by Allocate.
func (r *Ring) Deallocate(ptr unsafe.Pointer) {
	DeallocateBlock(ptr, r.backing)
}

// DeallocateBlock frees a block by resolving its header directly,
// without needing the Ring instance that produced it. Every ring-path
// block carries a back-pointer to its owning Chunk, so backing is only
// ever consulted for the oversize path — callers that only ever
// deallocate (global.Allocator, which checks out a different shard's
// Ring than the one that allocated a given block) can use this instead
// of keeping a Ring around solely to call Deallocate.
func DeallocateBlock(ptr unsafe.Pointer, backing api.Backing) {
	hdr := headerAt(uintptr(ptr))
	if isOversizeHeader(hdr) {
		backing.Free(unsafe.Pointer(hdr.oversizeBase()), hdr.size)
		return
	}
	hdr.chunk().release()
}

// TryGrowInPlace extends ptr from oldSize to newSize without moving it
// when ptr was the trailing allocation on its chunk. It returns false
// (never an error) when in-place growth isn't possible; the caller
// falls back to allocate+copy+deallocate.
func (r *Ring) TryGrowInPlace(ptr unsafe.Pointer, oldSize, newSize int64) bool {
	hdr := headerAt(uintptr(ptr))
	if isOversizeHeader(hdr) {
		return false
	}
	return hdr.chunk().tryGrowInPlace(ptr, oldSize, newSize)
}

// Drop walks every chunk in the ring exactly once. Chunks that are
// Reusable are freed to the backing allocator immediately; chunks
// still holding live blocks are handed to orphan, which must arrange
// for their eventual reclamation (global.Allocator pushes them into
// the process-wide orphan pool; local.LocalAllocator has no such pool
// and instead logs a leak warning — see local/local.go).
func (r *Ring) Drop(orphan func(c *Chunk)) {
	start := r.front
	c := start
	for {
		next := c.next
		if c.Reusable() {
			c.Free()
		} else {
			warnf("ring: orphaning chunk with live blocks")
			orphan(c)
		}
		if next == start {
			break
		}
		c = next
	}
	r.front = nil
}
