package api

import "errors"

// ErrOutOfMemory is returned when the backing allocator refuses a
// chunk and no reusable chunk was available, or an oversize request
// was refused.
var ErrOutOfMemory = errors.New("ring.outofmemory")

// ErrLayoutOverflow is returned when the requested size and alignment
// would overflow an address.
var ErrLayoutOverflow = errors.New("ring.layoutoverflow")
