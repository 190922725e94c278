// Package wasmengine adapts a wasm build of the conversion engine to the
// bcsvbridge.Engine interface using wazero.
//
// The guest exports its linear memory, an alloc/dealloc pair, and the three
// conversion entry points (see DefaultContract). For each call the adapter
// allocates argument regions and an 8-byte out-parameter in guest memory,
// invokes the entry point, and reads back a little-endian {ptr, len} pair:
// a null pointer is the operation's failure signal, a live pointer with
// zero length an empty success. The payload is copied host-side and every
// region the call touched (arguments, out-parameter, and the guest-
// allocated result) is returned to the guest allocator before the call
// ends, so ownership of guest memory never outlives a call.
//
// The compiled module is verified against a WIT contract at load time;
// arity or type drift fails the load instead of corrupting memory later.
//
// A single Engine serializes calls. Run one Engine per worker for
// parallelism; instances share nothing.
package wasmengine
