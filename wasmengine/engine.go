package wasmengine

import (
	"context"
	stderrors "errors"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/errors"
)

// Guest export names, snake_case projections of the ABI contract.
const (
	exportMemory   = "memory"
	exportAlloc    = "alloc"
	exportDealloc  = "dealloc"
	exportToCSV    = "bcsv_to_csv"
	exportToBCSV   = "csv_to_bcsv"
	exportToXLSX   = "bcsv_to_xlsx"
	outPairSize    = 8 // {ptr u32, len u32}, little-endian
	moduleNickname = "bcsv-engine"
)

// Config holds configuration for engine creation.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KB pages. 0 means the
	// wazero default.
	MemoryLimitPages uint32

	// Contract overrides the default ABI contract the guest is verified
	// against. Leave empty for DefaultContract.
	Contract string
}

// Engine drives a wasm build of the conversion engine through wazero and
// adapts it to the bcsvbridge.Engine interface.
//
// Requests are marshaled into guest linear memory with the guest's own
// allocator; results come back as a {ptr, len} pair written to an
// out-parameter region, with the null pointer as the failure signal. The
// host copies the result out and frees every region it caused to be
// allocated, so a completed call leaves no live allocations behind in the
// guest.
//
// One Engine serializes its calls: a wazero module instance is not safe
// for concurrent invocation. Independent callers wanting parallelism run
// independent Engines.
type Engine struct {
	mu        sync.Mutex
	runtime   wazero.Runtime
	module    api.Module
	mem       *guestMemory
	allocator *guestAllocator
	toCSV     api.Function
	toBCSV    api.Function
	toXLSX    api.Function
	closed    bool
}

// New loads a wasm engine build with default configuration.
func New(ctx context.Context, wasmBytes []byte) (*Engine, error) {
	return NewWithConfig(ctx, wasmBytes, nil)
}

// NewWithConfig loads a wasm engine build. The module is compiled, checked
// against the ABI contract, and instantiated once; the instance lives until
// Close.
func NewWithConfig(ctx context.Context, wasmBytes []byte, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	contract := DefaultContract
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Contract != "" {
			contract = cfg.Contract
		}
	}

	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		r.Close(ctx)
		return nil, errors.Load("compile engine module", err)
	}

	if err := verifyContract(compiled, contract); err != nil {
		r.Close(ctx)
		return nil, err
	}

	module, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(moduleNickname).
		WithStartFunctions())
	if err != nil {
		r.Close(ctx)
		return nil, errors.Instantiation(err)
	}

	mem := module.Memory()
	if mem == nil {
		r.Close(ctx)
		return nil, errors.NotFound(errors.PhaseLoad, "export", exportMemory)
	}

	eng := &Engine{
		runtime: r,
		module:  module,
		mem:     &guestMemory{mem: mem},
		allocator: &guestAllocator{
			alloc:   module.ExportedFunction(exportAlloc),
			dealloc: module.ExportedFunction(exportDealloc),
		},
		toCSV:  module.ExportedFunction(exportToCSV),
		toBCSV: module.ExportedFunction(exportToBCSV),
		toXLSX: module.ExportedFunction(exportToXLSX),
	}

	Logger().Debug("engine module loaded",
		zap.Uint32("memory_pages", mem.Size()/65536),
	)
	return eng, nil
}

// Close tears down the guest instance and its runtime.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.runtime.Close(ctx)
}

// Decode implements bcsvbridge.Engine.
func (e *Engine) Decode(ctx context.Context, req bcsvbridge.Request) ([]byte, error) {
	data, err := e.inputBytes(req, errors.PhaseDecode)
	if err != nil {
		return nil, err
	}
	return e.call(ctx, errors.PhaseDecode, exportToCSV, e.toCSV, data, req.HashPath, func(dataPtr, dataLen, namesPtr, namesLen uint64) []uint64 {
		return []uint64{dataPtr, dataLen, namesPtr, namesLen, boolArg(req.Signed), uint64(req.Endian), uint64(req.Delimiter)}
	})
}

// Encode implements bcsvbridge.Engine.
func (e *Engine) Encode(ctx context.Context, req bcsvbridge.Request) ([]byte, error) {
	data, err := e.inputBytes(req, errors.PhaseEncode)
	if err != nil {
		return nil, err
	}
	return e.call(ctx, errors.PhaseEncode, exportToBCSV, e.toBCSV, data, "", func(dataPtr, dataLen, _, _ uint64) []uint64 {
		return []uint64{dataPtr, dataLen, uint64(req.Endian), uint64(req.Delimiter), uint64(req.Mask)}
	})
}

// Export implements bcsvbridge.Engine. The guest returns the spreadsheet
// bytes; committing them to a path stays host-side.
func (e *Engine) Export(ctx context.Context, req bcsvbridge.Request) ([]byte, error) {
	data, err := e.inputBytes(req, errors.PhaseExport)
	if err != nil {
		return nil, err
	}
	return e.call(ctx, errors.PhaseExport, exportToXLSX, e.toXLSX, data, req.HashPath, func(dataPtr, dataLen, namesPtr, namesLen uint64) []uint64 {
		return []uint64{dataPtr, dataLen, namesPtr, namesLen, boolArg(req.Signed), uint64(req.Endian)}
	})
}

// call runs one guest operation: marshal arguments into guest memory,
// invoke, read the {ptr, len} result pair, copy the payload out, free
// everything.
func (e *Engine) call(ctx context.Context, phase errors.Phase, name string, fn api.Function, data []byte, names string, args func(dataPtr, dataLen, namesPtr, namesLen uint64) []uint64) ([]byte, error) {
	if fn == nil {
		return nil, errors.NotFound(phase, "export", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.InvalidInput(phase, "engine is closed")
	}

	ar := newArena()
	defer ar.freeAndRelease(e.allocator)

	outPtr, err := ar.alloc(e.allocator, outPairSize)
	if err != nil {
		return nil, rephase(err, phase)
	}
	// A guest that writes nothing must read back as the null pair.
	if err := e.mem.WriteU32(outPtr, 0); err != nil {
		return nil, rephase(err, phase)
	}
	if err := e.mem.WriteU32(outPtr+4, 0); err != nil {
		return nil, rephase(err, phase)
	}

	dataPtr, err := ar.write(e.allocator, e.mem, data)
	if err != nil {
		return nil, rephase(err, phase)
	}
	namesPtr, err := ar.write(e.allocator, e.mem, []byte(names))
	if err != nil {
		return nil, rephase(err, phase)
	}

	callArgs := append([]uint64{uint64(outPtr)},
		args(uint64(dataPtr), uint64(len(data)), uint64(namesPtr), uint64(len(names)))...)
	if _, err := fn.Call(ctx, callArgs...); err != nil {
		return nil, errors.EngineTrap(phase, err)
	}

	resPtr, err := e.mem.ReadU32(outPtr)
	if err != nil {
		return nil, rephase(err, phase)
	}
	resLen, err := e.mem.ReadU32(outPtr + 4)
	if err != nil {
		return nil, rephase(err, phase)
	}

	if resPtr == 0 {
		return nil, errors.EngineFailure(phase, "engine returned null buffer")
	}
	ar.adopt(resPtr, resLen)
	if resLen == 0 {
		return []byte{}, nil
	}

	view, err := e.mem.Read(resPtr, resLen)
	if err != nil {
		return nil, rephase(err, phase)
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

// inputBytes resolves the request input, reading SourcePath host-side: the
// guest is sandboxed and sees only memory.
func (e *Engine) inputBytes(req bcsvbridge.Request, phase errors.Phase) ([]byte, error) {
	if req.Data != nil {
		return req.Data, nil
	}
	if req.SourcePath == "" {
		return []byte{}, nil
	}
	data, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, errors.IO(phase, "read source", err)
	}
	return data, nil
}

func boolArg(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// rephase re-tags a structured error with the operation it happened during.
// The allocator and memory helpers are shared across operations and cannot
// know which one is running.
func rephase(err error, phase errors.Phase) error {
	var se *errors.Error
	if stderrors.As(err, &se) {
		tagged := *se
		tagged.Phase = phase
		return &tagged
	}
	return err
}
