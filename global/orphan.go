package global

import "sync"
import "sync/atomic"

import "github.com/bnclabs/ringmalloc/ring"

// orphans tracks every chunk a shard's finalizer could not immediately
// free because it still held live blocks at the time. Allocator.Close
// orphans nothing itself; it only makes the pooled shards unreachable
// so their finalizers run. Membership is removed by the exactly-once reclaim callback
// arisen from SetOnZero, which may fire from any goroutine holding the
// last live block on the chunk.
var orphans = struct {
	mu sync.Mutex
	m  map[*ring.Chunk]struct{}
}{m: make(map[*ring.Chunk]struct{})}

var orphanCount atomic.Int64

// handoff arms a chunk's exactly-once reclaim hook and tracks it until
// that hook fires. Chunks that are already Reusable reclaim
// immediately: SetOnZero invokes the hook synchronously in that case.
func handoff(c *ring.Chunk) {
	orphans.mu.Lock()
	orphans.m[c] = struct{}{}
	orphans.mu.Unlock()
	orphanCount.Add(1)

	c.SetOnZero(func(c *ring.Chunk) {
		orphans.mu.Lock()
		delete(orphans.m, c)
		orphans.mu.Unlock()
		orphanCount.Add(-1)

		c.Free()
		debugf("global: reclaimed orphaned chunk\n")
	})
}

// OrphanCount reports the number of chunks currently orphaned: released
// from their owning shard by its finalizer, but still holding at least
// one live block.
func OrphanCount() int64 {
	return orphanCount.Load()
}
