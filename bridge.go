package bcsvbridge

import "context"

// Endian selects the byte order the conversion engine uses for multi-byte
// numeric fields. The wire encoding matches the engine's convention:
// 0 = big-endian, 1 = little-endian, anything else = host byte order.
type Endian uint8

const (
	EndianBig    Endian = 0
	EndianLittle Endian = 1
	EndianNative Endian = 2
)

func (e Endian) String() string {
	switch e {
	case EndianBig:
		return "big"
	case EndianLittle:
		return "little"
	default:
		return "native"
	}
}

// Mask is a 32-bit column inclusion set: bit i (LSB-first) set means field i
// participates in an encode. MaskAll is the "no restriction" sentinel and the
// value an omitted mask resolves to in every binding flavor.
type Mask uint32

const MaskAll Mask = 0xFFFFFFFF

// Includes reports whether field i participates under the mask.
func (m Mask) Includes(i int) bool {
	if i < 0 || i > 31 {
		return false
	}
	return m&(1<<uint(i)) != 0
}

// DefaultDelimiter separates text fields when a request leaves the
// delimiter unset.
const DefaultDelimiter byte = ','

// Request is an immutable description of one conversion operation. A zero
// Mask means "unset" and resolves to MaskAll; a zero Delimiter resolves to
// DefaultDelimiter. Exactly one of Data and SourcePath carries the input.
type Request struct {
	// Data is the raw input: binary table bytes for Decode/Export,
	// delimiter-separated text bytes for Encode.
	Data []byte

	// SourcePath names an input file read by the engine when Data is nil.
	SourcePath string

	// HashPath names the engine's field-name lookup table. Optional;
	// interpreted entirely by the engine.
	HashPath string

	// OutputPath is the spreadsheet destination. Export only.
	OutputPath string

	Endian    Endian
	Delimiter byte
	Mask      Mask

	// Signed selects signed interpretation of integer fields whose binary
	// representation does not itself encode sign. Text rendering only; it
	// never changes binary layout.
	Signed bool
}

// Normalized returns a copy with the optional fields resolved to their
// documented sentinels. Every binding flavor calls this before the engine
// sees the request, so omitted and explicit defaults are indistinguishable.
func (r Request) Normalized() Request {
	if r.Mask == 0 {
		r.Mask = MaskAll
	}
	if r.Delimiter == 0 {
		r.Delimiter = DefaultDelimiter
	}
	return r
}

// Engine is the conversion collaborator behind the boundary. Implementations
// perform the actual binary/text/spreadsheet transformation; this module only
// moves requests in and owned buffers out.
//
// All three methods are synchronous. A nil error with a nil byte slice is
// never returned: success with no data is an empty, non-nil slice. Export
// returns the spreadsheet bytes; committing them to Request.OutputPath is the
// caller's (the catalog's) job.
type Engine interface {
	// Decode converts binary table bytes into delimiter-separated text.
	Decode(ctx context.Context, req Request) ([]byte, error)

	// Encode converts delimiter-separated text into binary table bytes,
	// restricted to the fields selected by req.Mask.
	Encode(ctx context.Context, req Request) ([]byte, error)

	// Export converts binary table bytes into a spreadsheet document.
	Export(ctx context.Context, req Request) ([]byte, error)
}

// Memory is read/write access to a guest's linear memory.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	WriteU32(offset uint32, value uint32) error
}

// Allocator allocates regions inside a guest's linear memory.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
	Free(ptr, size uint32)
}
