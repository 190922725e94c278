package hostapi

import (
	"context"

	"go.uber.org/zap"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/buffer"
	"github.com/wippyai/bcsv-bridge/catalog"
)

// Namespace is the module name guests import the catalog surface under.
const Namespace = "bcsv:bridge/catalog"

// Sentinel return values at the host-function boundary. Handles start at 1,
// so 0 doubles as the failure handle; lengths and read counts use the
// all-ones pattern because 0 is a legal empty result.
const (
	InvalidHandle = uint32(0)
	InvalidLen    = ^uint32(0)
	ReadFailed    = ^uint32(0)
)

// Export status codes, mirroring the int32 convention of the C surface.
const (
	StatusOK     = uint32(0)
	StatusFailed = uint32(1)
)

// Service implements the catalog surface for wasm guests. Results stay
// host-side as table entries; the guest sees integer handles and copies
// bytes out through BufferRead. Dropping a handle is the guest's half of
// the ownership contract, and Close sweeps whatever the guest leaked.
type Service struct {
	catalog *catalog.Catalog
	table   *buffer.Table
}

// NewService builds a Service around an engine. The handle table is owned
// by the Service and torn down by Close.
func NewService(engine bcsvbridge.Engine) *Service {
	return &Service{
		catalog: catalog.New(engine),
		table:   buffer.NewTable(),
	}
}

// Table exposes the handle table, mainly so callers can observe buffer
// lifecycle events.
func (s *Service) Table() *buffer.Table {
	return s.table
}

// Close releases every live buffer and rejects further inserts.
func (s *Service) Close() {
	s.table.Close()
}

// Decode renders a binary table read from guest memory and parks the text
// in the table. Returns InvalidHandle when the read or the conversion
// fails.
func (s *Service) Decode(ctx context.Context, mem bcsvbridge.Memory, dataPtr, dataLen, namesPtr, namesLen, signed, endian, delim uint32) uint32 {
	data, err := mem.Read(dataPtr, dataLen)
	if err != nil {
		Logger().Warn("decode input out of bounds", zap.Error(err))
		return InvalidHandle
	}
	names, err := mem.Read(namesPtr, namesLen)
	if err != nil {
		Logger().Warn("decode names out of bounds", zap.Error(err))
		return InvalidHandle
	}

	buf := s.catalog.Decode(ctx, bcsvbridge.Request{
		Data:      append([]byte{}, data...),
		HashPath:  string(names),
		Signed:    signed != 0,
		Endian:    bcsvbridge.Endian(endian),
		Delimiter: byte(delim),
	})
	return uint32(s.table.Insert(buf))
}

// Encode parses text read from guest memory into a binary table.
func (s *Service) Encode(ctx context.Context, mem bcsvbridge.Memory, textPtr, textLen, endian, delim, mask uint32) uint32 {
	text, err := mem.Read(textPtr, textLen)
	if err != nil {
		Logger().Warn("encode input out of bounds", zap.Error(err))
		return InvalidHandle
	}

	buf := s.catalog.Encode(ctx, bcsvbridge.Request{
		Data:      append([]byte{}, text...),
		Endian:    bcsvbridge.Endian(endian),
		Delimiter: byte(delim),
		Mask:      bcsvbridge.Mask(mask),
	})
	return uint32(s.table.Insert(buf))
}

// Export converts a binary table to a workbook and commits it to the path
// named in guest memory. No handle comes back: the workbook lands on disk
// or the call reports StatusFailed.
func (s *Service) Export(ctx context.Context, mem bcsvbridge.Memory, dataPtr, dataLen, pathPtr, pathLen, signed, endian uint32) uint32 {
	data, err := mem.Read(dataPtr, dataLen)
	if err != nil {
		Logger().Warn("export input out of bounds", zap.Error(err))
		return StatusFailed
	}
	path, err := mem.Read(pathPtr, pathLen)
	if err != nil {
		Logger().Warn("export path out of bounds", zap.Error(err))
		return StatusFailed
	}

	if err := s.catalog.Export(ctx, bcsvbridge.Request{
		Data:       append([]byte{}, data...),
		OutputPath: string(path),
		Signed:     signed != 0,
		Endian:     bcsvbridge.Endian(endian),
	}); err != nil {
		Logger().Warn("export failed", zap.String("path", string(path)), zap.Error(err))
		return StatusFailed
	}
	return StatusOK
}

// BufferLen reports the byte length behind a handle, InvalidLen for a dead
// or foreign handle.
func (s *Service) BufferLen(handle uint32) uint32 {
	buf, ok := s.table.Get(buffer.Handle(handle))
	if !ok {
		return InvalidLen
	}
	return uint32(buf.Len())
}

// BufferRead copies up to dstLen bytes starting at offset into guest
// memory and returns the count written. ReadFailed flags a dead handle,
// an offset past the end, or an unwritable destination; a short read past
// the tail is not an error.
func (s *Service) BufferRead(mem bcsvbridge.Memory, handle, offset, dstPtr, dstLen uint32) uint32 {
	buf, ok := s.table.Get(buffer.Handle(handle))
	if !ok {
		return ReadFailed
	}
	view, err := buf.View()
	if err != nil {
		return ReadFailed
	}
	if offset > uint32(len(view)) {
		return ReadFailed
	}

	chunk := view[offset:]
	if uint32(len(chunk)) > dstLen {
		chunk = chunk[:dstLen]
	}
	if err := mem.Write(dstPtr, chunk); err != nil {
		Logger().Warn("buffer read destination out of bounds", zap.Error(err))
		return ReadFailed
	}
	return uint32(len(chunk))
}

// BufferDrop releases the buffer behind a handle. Dead and foreign handles
// are no-ops, so a confused guest cannot double-free.
func (s *Service) BufferDrop(handle uint32) uint32 {
	if s.table.Drop(buffer.Handle(handle)) {
		return 1
	}
	return 0
}
