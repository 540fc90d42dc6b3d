package ring

import "testing"
import "unsafe"

import "github.com/stretchr/testify/require"

import "github.com/bnclabs/ringmalloc/backing"

func testRing(t *testing.T, cfg Config) *Ring {
	r, err := NewRing(cfg, backing.NewHeap())
	require.NoError(t, err)
	return r
}

func TestSingleBlockRoundtrip(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	ptr, err := r.Allocate(64, 8)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.EqualValues(t, 0, uintptr(ptr)%8)

	r.Deallocate(ptr)
	require.True(t, r.front.Reusable())
}

func TestChurnStabilizesChunkCount(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	for i := 0; i < 10000; i++ {
		ptr, err := r.Allocate(32, 8)
		require.NoError(t, err)
		r.Deallocate(ptr)
	}

	require.LessOrEqual(t, r.NumChunks(), int64(2))
}

func TestPinnedBlockForcesGrowth(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 256, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	pinned, err := r.Allocate(32, 8)
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		ptr, err := r.Allocate(32, 8)
		require.NoError(t, err)
		r.Deallocate(ptr)
	}
	// The pin keeps its chunk permanently unreusable, forcing exactly
	// one growth; the new front then resets in place forever, so the
	// ring never grows past two chunks no matter how long churn runs.
	require.EqualValues(t, 2, r.NumChunks())

	r.Deallocate(pinned)

	for i := 0; i < 10000; i++ {
		ptr, err := r.Allocate(32, 8)
		require.NoError(t, err)
		r.Deallocate(ptr)
	}
	require.EqualValues(t, 2, r.NumChunks())
}

func TestOversizedRequestGrowsRingInsteadOfHanging(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1 << 20})

	// Larger than MinChunkSize (and below OversizeThreshold), on a
	// ring whose only existing chunk is Reusable: rotating onto — or
	// resetting in place — a chunk too small for the request must not
	// spin forever; the ring has to grow a chunk sized to fit it.
	ptr, err := r.Allocate(5000, 8)
	require.NoError(t, err)
	require.EqualValues(t, 2, r.NumChunks())

	r.Deallocate(ptr)
}

func TestOversizeBypassesRing(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 512})

	before := r.NumChunks()
	ptr, err := r.Allocate(4096, 8)
	require.NoError(t, err)
	require.Equal(t, before, r.NumChunks())

	r.Deallocate(ptr)
}

func TestZeroSizeAllocationSucceeds(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	ptr, err := r.Allocate(0, 8)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	r.Deallocate(ptr)
}

func TestNonPow2AlignmentRejected(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	_, err := r.Allocate(16, 3)
	require.Error(t, err)
}

func TestOversizeThresholdBoundary(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 512})

	require.False(t, r.isOversize(512, 8))
	require.True(t, r.isOversize(513, 8))
}

func TestAllocateZeroedClearsMemory(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	ptr, err := r.AllocateZeroed(256, 8)
	require.NoError(t, err)

	buf := unsafe.Slice((*byte)(ptr), 256)
	for _, b := range buf {
		require.Zero(t, b)
	}
}

func TestGrowInPlaceOnlyExtendsTrailingBlock(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	first, err := r.Allocate(32, 8)
	require.NoError(t, err)
	second, err := r.Allocate(32, 8)
	require.NoError(t, err)

	require.False(t, r.TryGrowInPlace(first, 32, 64))
	require.True(t, r.TryGrowInPlace(second, 32, 64))

	r.Deallocate(first)
	r.Deallocate(second)
}

func TestDropFreesReusableChunks(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	ptr, err := r.Allocate(64, 8)
	require.NoError(t, err)
	r.Deallocate(ptr)

	var orphaned int
	r.Drop(func(c *Chunk) { orphaned++ })
	require.Equal(t, 0, orphaned)
}

func TestDropOrphansChunksWithLiveBlocks(t *testing.T) {
	r := testRing(t, Config{MinChunkSize: 4096, MaxChunkSize: 4096, GrowthFactor: 2, OversizeThreshold: 1024})

	_, err := r.Allocate(64, 8)
	require.NoError(t, err)

	var orphaned int
	r.Drop(func(c *Chunk) { orphaned++ })
	require.Equal(t, 1, orphaned)
}
