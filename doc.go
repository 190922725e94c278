// Package bcsvbridge is the boundary layer of a binary tabular-data codec.
//
// The codec itself (the "conversion engine") converts between a proprietary
// binary table format (BCSV), delimiter-separated text, and spreadsheet
// documents. This module does not implement that codec; it owns everything
// around it: the request model, the single-owner buffer contract for bytes
// crossing a foreign-function boundary, and the binding surfaces that project
// the three operations into different host memory-management idioms.
//
// # Architecture Overview
//
//	bcsvbridge/          Root package: Request, Endian, Mask, the Engine
//	                     collaborator interface, guest Memory/Allocator
//	├── catalog/         The three operations (decode, encode, export) over
//	│                    an Engine, with failure normalization and atomic
//	│                    export file commits
//	├── buffer/          Canonical one-shot buffer ownership: guarded
//	│                    release, view borrows, handle table, auto-release
//	│                    sessions
//	├── wasmengine/      Engine adapter that drives a wasm build of the
//	│                    conversion engine through wazero
//	├── hostapi/         Binding surface for wasm guests: catalog operations
//	│                    and buffer accessors as host functions
//	├── cbind/           Binding surface for C callers: c-shared exports
//	│                    with the classic ManagedBuffer ABI
//	├── enginetest/      In-process reference engine used by tests and
//	│                    embedders without a wasm engine build
//	└── errors/          Structured error types for debugging
//
// # Ownership Contract
//
// Every successful decode or encode hands the caller a buffer with exactly
// one live owner. Ownership transfers, never duplicates. Release happens
// exactly once, through the same binding flavor that produced the buffer;
// a second release is a guarded no-op, and reads after release fail rather
// than dereference freed storage. A nil buffer means the operation failed;
// a non-nil buffer of length zero is a successful operation that produced
// no data. The two are distinct everywhere.
//
// # Quick Start
//
// Run a decode against a wasm engine build:
//
//	eng, err := wasmengine.New(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	cat := catalog.New(eng)
//	sess := buffer.NewSession()
//	defer sess.Close()
//
//	buf := sess.Track(cat.Decode(ctx, bcsvbridge.Request{
//	    Data:   raw,
//	    Endian: bcsvbridge.EndianBig,
//	}))
//	if buf == nil {
//	    log.Fatal("decode failed")
//	}
//	text, _ := buf.View()
package bcsvbridge
