// C binding surface for the conversion catalog, built as a c-shared
// library:
//
//	go build -buildmode=c-shared -o libbcsvbridge.so ./cbind
//
// The exported functions mirror bcsvbridge.h. Buffer-returning calls hand
// back a ManagedBuffer allocated on the C heap; the caller returns it
// through free_managed_buffer, and nothing else. NULL signals failure, a
// live pointer with len 0 signals an empty success.
//
// Until bcsv_bridge_init loads a wasm engine build, calls run against the
// built-in reference engine.
package main

/*
#include <stdint.h>
#include <stdlib.h>
#include <stdbool.h>

typedef struct ManagedBuffer {
	uint8_t   *buffer;
	uintptr_t  len;
} ManagedBuffer;
*/
import "C"

import (
	"context"
	"os"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/buffer"
	"github.com/wippyai/bcsv-bridge/catalog"
	"github.com/wippyai/bcsv-bridge/enginetest"
	"github.com/wippyai/bcsv-bridge/wasmengine"
)

const (
	statusOK     = 0
	statusFailed = 1
)

var (
	stateMu sync.Mutex
	cat     = catalog.New(enginetest.New())
	engine  *wasmengine.Engine

	buffers = newRegistry()
)

func currentCatalog() *catalog.Catalog {
	stateMu.Lock()
	defer stateMu.Unlock()
	return cat
}

//export bcsv_bridge_init
func bcsv_bridge_init(enginePath *C.char) C.int32_t {
	path := goString(enginePath)
	if path == "" {
		return statusFailed
	}

	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		catalog.Logger().Warn("engine module unreadable", zap.String("path", path), zap.Error(err))
		return statusFailed
	}

	ctx := context.Background()
	eng, err := wasmengine.New(ctx, wasmBytes)
	if err != nil {
		catalog.Logger().Warn("engine module rejected", zap.String("path", path), zap.Error(err))
		return statusFailed
	}

	stateMu.Lock()
	old := engine
	engine = eng
	cat = catalog.New(eng)
	stateMu.Unlock()

	if old != nil {
		old.Close(ctx)
	}
	return statusOK
}

//export bcsv_to_csv
func bcsv_to_csv(data *C.uint8_t, length C.uintptr_t, hashPath *C.char, isSigned C.bool, endian C.uint8_t, delim C.uint8_t) *C.ManagedBuffer {
	in, ok := goBytes(data, length)
	if !ok {
		return nil
	}
	buf := currentCatalog().Decode(context.Background(), bcsvbridge.Request{
		Data:      in,
		HashPath:  goString(hashPath),
		Signed:    bool(isSigned),
		Endian:    bcsvbridge.Endian(endian),
		Delimiter: byte(delim),
	})
	return exportBuffer(buf)
}

//export csv_to_bcsv
func csv_to_bcsv(path *C.char, endian C.uint8_t, delim C.uint8_t, mask C.uint32_t) *C.ManagedBuffer {
	buf := currentCatalog().Encode(context.Background(), bcsvbridge.Request{
		SourcePath: goString(path),
		Endian:     bcsvbridge.Endian(endian),
		Delimiter:  byte(delim),
		Mask:       bcsvbridge.Mask(mask),
	})
	return exportBuffer(buf)
}

//export bcsv_to_xlsx
func bcsv_to_xlsx(hashPath *C.char, outputPath *C.char, data *C.uint8_t, length C.uintptr_t, isSigned C.bool, endian C.uint8_t) C.int32_t {
	in, ok := goBytes(data, length)
	if !ok {
		return statusFailed
	}
	err := currentCatalog().Export(context.Background(), bcsvbridge.Request{
		Data:       in,
		HashPath:   goString(hashPath),
		OutputPath: goString(outputPath),
		Signed:     bool(isSigned),
		Endian:     bcsvbridge.Endian(endian),
	})
	if err != nil {
		return statusFailed
	}
	return statusOK
}

//export free_managed_buffer
func free_managed_buffer(mb *C.ManagedBuffer) {
	if mb == nil {
		return
	}
	if !buffers.forget(uintptr(unsafe.Pointer(mb))) {
		// double free or a pointer this library never produced
		return
	}
	if mb.buffer != nil {
		C.free(unsafe.Pointer(mb.buffer))
	}
	C.free(unsafe.Pointer(mb))
}

// exportBuffer moves an owned buffer onto the C heap and registers the
// resulting pointer. The Go-side buffer is released either way.
func exportBuffer(buf *buffer.Buffer) *C.ManagedBuffer {
	if buf == nil {
		return nil
	}
	defer buf.Release()

	view, err := buf.View()
	if err != nil {
		return nil
	}

	mb := (*C.ManagedBuffer)(C.malloc(C.sizeof_ManagedBuffer))
	if mb == nil {
		return nil
	}
	if len(view) == 0 {
		// empty success keeps a live buffer pointer so the caller can
		// tell it from failure
		mb.buffer = (*C.uint8_t)(C.malloc(1))
	} else {
		mb.buffer = (*C.uint8_t)(C.CBytes(view))
	}
	if mb.buffer == nil {
		C.free(unsafe.Pointer(mb))
		return nil
	}
	mb.len = C.uintptr_t(len(view))

	buffers.register(uintptr(unsafe.Pointer(mb)))
	return mb
}

func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

// goBytes copies a C region into Go memory. Lengths beyond the C.int
// range would silently truncate through C.GoBytes, so they are rejected
// instead.
func goBytes(data *C.uint8_t, length C.uintptr_t) ([]byte, bool) {
	if data == nil || length == 0 {
		return []byte{}, true
	}
	if !lengthFits(uint64(length)) {
		return nil, false
	}
	return C.GoBytes(unsafe.Pointer(data), C.int(length)), true
}
