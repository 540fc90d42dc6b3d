package ring

import "sync/atomic"

// counter tracks a chunk's in-flight block count. It is the idiomatic
// Go rendering of the original implementation's ImUsize trait, which
// is generic over Cell<usize> for the thread-confined path and
// AtomicUsize for the cross-thread path: two small implementations of
// one interface instead of a trait bound.
type counter interface {
	// add adjusts the count by delta and returns the new value.
	add(delta int64) int64
	// load reads the current value.
	load() int64
}

// plainCounter backs LocalAllocator chunks. It is a bare int64:
// correct only because a Ring's mutable state is touched by one
// goroutine at a time (see local.LocalAllocator).
type plainCounter struct {
	n int64
}

func (c *plainCounter) add(delta int64) int64 {
	c.n += delta
	return c.n
}

func (c *plainCounter) load() int64 {
	return c.n
}

// atomicCounter backs global.Allocator chunks, whose blocks may be
// deallocated from any goroutine. add uses a full read-modify-write,
// which on every Go-supported architecture gives the release-on-
// decrement / acquire-on-reset ordering the cross-thread facade
// requires.
type atomicCounter struct {
	n atomic.Int64
}

func (c *atomicCounter) add(delta int64) int64 {
	return c.n.Add(delta)
}

func (c *atomicCounter) load() int64 {
	return c.n.Load()
}
