// Package enginetest provides an in-process reference engine for exercising
// the bridge without a wasm engine build.
//
// The engine implements bcsvbridge.Engine over a minimal table dialect (a
// count header plus 16-bit cells) rather than the production binary format.
// Its job is to make the boundary semantics observable in tests: byte-order
// sensitivity, signed rendering, delimiter isolation, mask restriction,
// empty success versus failure, and a real spreadsheet document from
// Export.
package enginetest
