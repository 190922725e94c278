// Package hostapi exposes the conversion catalog to wasm guests as host
// functions.
//
// Where wasmengine puts the codec inside the sandbox and drives it from
// native code, hostapi inverts the arrangement: the codec runs host-side
// and sandboxed guests call into it. The surface is registered as a host
// module under Namespace; guests import decode, encode and export
// alongside the buffer accessors.
//
// Results never cross into guest memory by themselves. A successful
// decode or encode parks its bytes in a host-side table and hands the
// guest an integer handle; the guest sizes a destination with buffer-len,
// copies with buffer-read, and returns ownership with buffer-drop.
// Dropping twice, or dropping a handle that never existed, is a no-op.
// Export bypasses the table entirely and reports a status code, since its
// product is a file on the host filesystem.
//
// Service carries the logic over the bcsvbridge.Memory seam, so the
// surface is testable without instantiating a runtime.
package hostapi
