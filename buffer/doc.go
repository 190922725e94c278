// Package buffer implements the single-owner byte buffer contract shared by
// every binding surface.
//
// # Lifecycle
//
// A buffer moves through three states and never back:
//
//	Unallocated -> Allocated (owned by exactly one caller) -> Released
//
// Release is guarded: the first Release frees the storage, any later
// Release is a no-op rather than undefined behavior, and View/CopyOut on a
// released buffer return an error instead of touching freed memory.
//
// # Failure vs empty success
//
// A nil *Buffer signals operation failure. A live buffer of length zero is
// a successful operation that produced no data. Surfaces that cannot carry
// Go pointers keep the distinction: the Table maps nil to the invalid
// handle 0, and a live zero-length buffer to a real handle.
//
// # Flavor projections
//
// The Table projects buffers into integer handles for wasm guests and C
// callers (the manual flavor: callers drop handles explicitly). The Session
// is the automatic-release flavor for Go callers: buffers tracked by a
// session are released together at scope exit via a deferred Close. Both
// are thin views over the same Buffer; allocation and release logic exists
// once.
package buffer
