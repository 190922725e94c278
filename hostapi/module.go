package hostapi

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/errors"
)

// Host function names under Namespace. Kebab-case, matching the WIT
// spelling of the surface.
const (
	funcDecode     = "decode"
	funcEncode     = "encode"
	funcExport     = "export"
	funcBufferLen  = "buffer-len"
	funcBufferRead = "buffer-read"
	funcBufferDrop = "buffer-drop"
)

// Instantiate registers the catalog surface as a host module on a wazero
// runtime. Guests instantiated on the same runtime afterwards resolve
// imports from Namespace against it.
func (s *Service) Instantiate(ctx context.Context, r wazero.Runtime) error {
	builder := r.NewHostModuleBuilder(Namespace)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, dataPtr, dataLen, namesPtr, namesLen, signed, endian, delim uint32) uint32 {
			return s.Decode(ctx, callerMemory{m.Memory()}, dataPtr, dataLen, namesPtr, namesLen, signed, endian, delim)
		}).
		Export(funcDecode)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, textPtr, textLen, endian, delim, mask uint32) uint32 {
			return s.Encode(ctx, callerMemory{m.Memory()}, textPtr, textLen, endian, delim, mask)
		}).
		Export(funcEncode)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, dataPtr, dataLen, pathPtr, pathLen, signed, endian uint32) uint32 {
			return s.Export(ctx, callerMemory{m.Memory()}, dataPtr, dataLen, pathPtr, pathLen, signed, endian)
		}).
		Export(funcExport)

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, handle uint32) uint32 {
			return s.BufferLen(handle)
		}).
		Export(funcBufferLen)

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, handle, offset, dstPtr, dstLen uint32) uint32 {
			return s.BufferRead(callerMemory{m.Memory()}, handle, offset, dstPtr, dstLen)
		}).
		Export(funcBufferRead)

	builder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, handle uint32) uint32 {
			return s.BufferDrop(handle)
		}).
		Export(funcBufferDrop)

	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Registration(errors.PhaseHost, Namespace, "instantiate", err)
	}
	return nil
}

// callerMemory adapts the calling guest's linear memory to
// bcsvbridge.Memory, bounds failures included.
type callerMemory struct {
	mem api.Memory
}

var _ bcsvbridge.Memory = callerMemory{}

func (m callerMemory) Read(offset, length uint32) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	view, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"guest", "read"}, offset, length)
	}
	return view, nil
}

func (m callerMemory) Write(offset uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseHost, []string{"guest", "write"}, offset, uint32(len(data)))
	}
	return nil
}

func (m callerMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHost, []string{"guest", "read_u32"}, offset, 4)
	}
	return v, nil
}

func (m callerMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseHost, []string{"guest", "write_u32"}, offset, 4)
	}
	return nil
}
