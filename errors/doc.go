// Package errors provides structured error types for the bcsv-bridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes context: a path, the offending value,
// and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidInput).
//		Path("decode", "delimiter").
//		Detail("delimiter byte must be printable").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.EngineFailure(errors.PhaseDecode, "engine returned null buffer")
//	err := errors.OutOfBounds(errors.PhaseHost, path, 4096, 128)
//
// All errors implement the standard error interface and support errors.Is/As.
//
// Errors never cross the foreign-function boundary. Boundary-facing surfaces
// (hostapi, cbind) convert them into the per-operation failure signal: a null
// buffer for decode/encode, an explicit status for export.
package errors
