// Package catalog implements the three conversion operations over a
// pluggable engine.
//
// The catalog is the one place the operation semantics live; binding
// surfaces (hostapi, cbind, the Go API itself) only project its inputs and
// outputs into their flavor's shape:
//
//	Decode(binary, endian, signed, delimiter)    -> owned text buffer | nil
//	Encode(text, endian, delimiter, mask)        -> owned binary buffer | nil
//	Export(binary, endian, signed, output path)  -> error
//
// Every call is synchronous, stateless, and non-throwing: engine errors and
// panics surface as the per-operation failure signal, never as a panic or
// exception crossing a boundary. Endianness threads through all three
// operations unchanged; the column mask applies only to Encode; an omitted
// mask resolves to the all-fields sentinel before the engine sees the
// request.
//
// Export writes its spreadsheet through a temp-file-and-rename commit, so a
// failed export leaves nothing at the output path.
package catalog
