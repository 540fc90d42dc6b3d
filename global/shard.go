package global

import "runtime"
import "sync"

import s "github.com/prataprc/gosettings"

import "github.com/bnclabs/ringmalloc/api"
import "github.com/bnclabs/ringmalloc/ring"

// shard is a private ring checked out exclusively from a sync.Pool.
// Ownership of a shard is the checkout itself, not OS-thread identity:
// whichever goroutine holds the *shard returned by pool.Get is the
// only goroutine permitted to call its Ring's single-producer methods,
// for exactly as long as it holds it. This is the redesign spec.md's
// per-thread-local requirement takes in the absence of Go
// goroutine-local storage.
type shard struct {
	r *ring.Ring
}

func newShardPool(cfg ring.Config, backing api.Backing) *sync.Pool {
	cfg.CrossThread = true
	return &sync.Pool{
		New: func() interface{} {
			r, err := ring.NewRing(cfg, backing)
			if err != nil {
				panic(err)
			}
			sh := &shard{r: r}
			runtime.SetFinalizer(sh, finalizeShard)
			return sh
		},
	}
}

// finalizeShard is the closest Go analogue to a thread-exit hook: it
// runs when the garbage collector determines a shard evicted from its
// pool (or otherwise dropped) is unreachable, which happens on some
// later GC cycle rather than synchronously with any particular
// goroutine's exit. Drop frees every chunk on the shard's ring that has
// no live blocks and hands each remaining chunk to handoff, which
// reclaims it as soon as its last live block frees.
func finalizeShard(sh *shard) {
	sh.r.Drop(handoff)
}

func mixSettings(setts s.Settings) s.Settings {
	return (s.Settings{}).Mixin(Defaultsettings(), setts)
}
