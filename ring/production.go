//go:build !debug

package ring

// debugAssert is a no-op in production builds: double-free and
// foreign-pointer invariant violations are undefined behaviour by
// contract, per spec.md's error handling design.
func debugAssert(cond bool, msg string) {}
