package ring

import "unsafe"

// header is the fixed-size prefix written immediately before every
// reported address. tagged carries a pointer to the owning Chunk for
// ring-allocated blocks; Chunk values are always at least word
// aligned, so their low bit is free and used as the oversize sentinel
// spec.md names as one of the two legal encodings. size is only
// meaningful for oversize blocks, holding the total length handed
// back to the backing allocator on free.
type header struct {
	tagged uintptr
	size   int64
}

const headerSize = int64(unsafe.Sizeof(header{}))
const headerAlign = int64(unsafe.Alignof(header{}))

const oversizeBit = uintptr(1)

func packChunk(c *Chunk) uintptr {
	tagged := uintptr(unsafe.Pointer(c))
	if tagged&oversizeBit != 0 {
		panic("ring: chunk pointer not aligned")
	}
	return tagged
}

func packOversize(base uintptr) uintptr {
	return base | oversizeBit
}

// effectiveAlign raises a caller's requested alignment to at least
// headerAlign, so the header written just before every user address is
// always itself properly aligned. Since both are powers of two, the
// larger is always a multiple of the smaller, so this never violates
// the caller's original request.
func effectiveAlign(align int64) int64 {
	if align < headerAlign {
		return headerAlign
	}
	return align
}

func headerAt(userAddr uintptr) *header {
	return (*header)(unsafe.Pointer(userAddr - uintptr(headerSize)))
}

func isOversizeHeader(h *header) bool {
	return h.tagged&oversizeBit != 0
}

func (h *header) chunk() *Chunk {
	return (*Chunk)(unsafe.Pointer(h.tagged))
}

func (h *header) oversizeBase() uintptr {
	return h.tagged &^ oversizeBit
}
