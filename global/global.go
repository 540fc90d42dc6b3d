// Package global exposes a cross-thread allocator: any goroutine may
// call Allocate or Deallocate on a shared *Allocator. Allocation
// checks out a private ring shard for the duration of the call;
// deallocation never needs a shard at all, since a block's header
// always resolves straight back to the chunk that carved it. This
// mirrors global.rs's split between thread-local allocation fast paths
// and a chunk header that makes cross-thread free always possible.
package global

import "fmt"
import "sync"
import "unsafe"

import s "github.com/prataprc/gosettings"

import "github.com/bnclabs/ringmalloc/api"
import "github.com/bnclabs/ringmalloc/backing"
import "github.com/bnclabs/ringmalloc/ring"

// Allocator is safe for concurrent use by any number of goroutines.
type Allocator struct {
	name    string
	pool    *sync.Pool
	backing api.Backing
	cfg     ring.Config

	mu     sync.Mutex
	closed bool
}

// New creates an Allocator backed by cgo malloc/free, sized from the
// host's free RAM via Defaultsettings.
func New(name string, setts s.Settings) (*Allocator, error) {
	return NewIn(name, setts, backing.CGo{})
}

// NewIn creates an Allocator sourcing chunk storage from b.
func NewIn(name string, setts s.Settings, b api.Backing) (*Allocator, error) {
	setts = mixSettings(setts)
	cfg := ring.ConfigFromSettings(setts)

	ga := &Allocator{
		name:    name,
		backing: b,
		cfg:     cfg,
	}
	ga.pool = newShardPool(cfg, b)

	infof("%v started ...\n", ga.logprefix())
	return ga, nil
}

func (ga *Allocator) logprefix() string {
	return fmt.Sprintf("global.Allocator{%s}", ga.name)
}

func (ga *Allocator) checkout() (*shard, *sync.Pool) {
	ga.mu.Lock()
	pool := ga.pool
	ga.mu.Unlock()
	if pool == nil {
		panic("global: use of closed allocator")
	}
	return pool.Get().(*shard), pool
}

// Allocate implements api.Allocator.
func (ga *Allocator) Allocate(layout api.Layout) (unsafe.Pointer, error) {
	sh, pool := ga.checkout()
	defer pool.Put(sh)
	return sh.r.Allocate(layout.Size, layout.Align)
}

// AllocateZeroed implements api.Allocator.
func (ga *Allocator) AllocateZeroed(layout api.Layout) (unsafe.Pointer, error) {
	sh, pool := ga.checkout()
	defer pool.Put(sh)
	return sh.r.AllocateZeroed(layout.Size, layout.Align)
}

// Deallocate implements api.Allocator. It never checks out a shard:
// the block's header names its owning chunk directly, and Chunk's
// in-flight counter is atomic whenever CrossThread is set, which
// newShardPool always does.
func (ga *Allocator) Deallocate(ptr unsafe.Pointer, layout api.Layout) {
	ring.DeallocateBlock(ptr, ga.backing)
}

// Grow implements api.Allocator. Unlike local.LocalAllocator, Grow
// never attempts an in-place extension: the chunk that owns ptr may
// currently be checked out by a different goroutine as another
// shard's front chunk, and bumping its cursor without that goroutine's
// exclusive ownership would race. Allocate-copy-free is always safe.
func (ga *Allocator) Grow(ptr unsafe.Pointer, oldLayout, newLayout api.Layout) (unsafe.Pointer, error) {
	fresh, err := ga.Allocate(newLayout)
	if err != nil {
		return nil, err
	}
	copyBytes(fresh, ptr, oldLayout.Size)
	ga.Deallocate(ptr, oldLayout)
	return fresh, nil
}

// Shrink implements api.Allocator.
func (ga *Allocator) Shrink(ptr unsafe.Pointer, oldLayout, newLayout api.Layout) (unsafe.Pointer, error) {
	return ptr, nil
}

// Close releases this Allocator's shard pool. sync.Pool exposes no way
// to enumerate or drain the shards it currently holds, so Close cannot
// reclaim them synchronously; instead it drops the pool reference,
// making every pooled shard unreachable so the garbage collector
// eventually runs finalizeShard on each one, which is the same path an
// evicted-under-memory-pressure shard already takes.
func (ga *Allocator) Close() {
	ga.mu.Lock()
	defer ga.mu.Unlock()
	if ga.closed {
		return
	}
	ga.closed = true
	ga.pool = nil
	infof("%v closed\n", ga.logprefix())
}

func copyBytes(dst, src unsafe.Pointer, n int64) {
	if n == 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), n)
	srcBuf := unsafe.Slice((*byte)(src), n)
	copy(d, srcBuf)
}

var _ api.Allocator = (*Allocator)(nil)
