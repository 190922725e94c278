// Package wasmtest generates minimal wasm guests for integration tests:
// an engine build implementing the engine ABI contract, and a client that
// consumes the host-function catalog surface.
//
// The engine module is not a codec: each operation echoes its scalar
// parameters as a byte prefix and copies its input after them, which lets
// tests observe exactly what crossed the boundary. Two magic first bytes
// steer the result: FailByte produces the null failure pair, EmptyByte a
// zero-length success. Emitting the binaries directly keeps the test
// guests dependency-free and deterministic.
package wasmtest
