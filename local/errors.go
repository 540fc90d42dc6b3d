package local

import "github.com/bnclabs/ringmalloc/api"

// ErrOutOfMemory and ErrLayoutOverflow re-export the identities every
// other allocator-shaped package in this repository returns, so
// callers can errors.Is against one value regardless of which facade
// they used.
var ErrOutOfMemory = api.ErrOutOfMemory
var ErrLayoutOverflow = api.ErrLayoutOverflow
