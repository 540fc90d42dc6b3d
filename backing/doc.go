// Package backing supplies concrete api.Backing implementations: the
// default cgo malloc/free allocator gostore's malloc pools have always
// used, and a pure-Go heap-backed allocator for cgo-free hosts.
package backing
