package ring

import "github.com/bnclabs/ringmalloc/api"

// ErrOutOfMemory and ErrLayoutOverflow are the same identities
// api.ErrOutOfMemory/api.ErrLayoutOverflow name, re-exported so callers
// who only import ring can still errors.Is against them directly.
var ErrOutOfMemory = api.ErrOutOfMemory
var ErrLayoutOverflow = api.ErrLayoutOverflow
