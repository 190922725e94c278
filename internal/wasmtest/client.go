package wasmtest

// Type and function indexes inside the client module. Imported functions
// occupy the index space ahead of local ones.
const (
	clientTypeUnary  = iota // (i32) -> i32
	clientTypeDecode        // (i32 x7) -> i32
	clientTypeRead          // (i32 x4) -> i32
	clientTypeRun           // (i32 x3) -> i32
)

const (
	impDecode = iota
	impBufferLen
	impBufferRead
	impBufferDrop
	fnRun
)

const secImport = 2

// ClientModule emits a wasm guest that consumes the catalog host surface
// imported from namespace. It exports its memory and one driver:
//
//	run(dataPtr, dataLen, outPtr) -> i32
//
// run decodes the input region with default scalars (unsigned, big endian,
// comma), copies the whole result to outPtr via buffer-len and
// buffer-read, drops the handle, and returns the byte count. A failed
// decode returns -1 without touching outPtr.
func ClientModule(namespace string) []byte {
	var w writer
	w.bytes([]byte{0x00, 0x61, 0x73, 0x6D})
	w.bytes([]byte{0x01, 0x00, 0x00, 0x00})

	var types writer
	types.u32(4)
	writeFuncType(&types, 1, 1)
	writeFuncType(&types, 7, 1)
	writeFuncType(&types, 4, 1)
	writeFuncType(&types, 3, 1)
	w.section(secType, types.buf)

	var imports writer
	imports.u32(4)
	for _, imp := range []struct {
		field string
		typ   uint32
	}{
		{"decode", clientTypeDecode},
		{"buffer-len", clientTypeUnary},
		{"buffer-read", clientTypeRead},
		{"buffer-drop", clientTypeUnary},
	} {
		imports.name(namespace)
		imports.name(imp.field)
		imports.byte(kindFunc)
		imports.u32(imp.typ)
	}
	w.section(secImport, imports.buf)

	var funcs writer
	funcs.u32(1)
	funcs.u32(clientTypeRun)
	w.section(secFunc, funcs.buf)

	var mem writer
	mem.u32(1)
	mem.byte(0x00)
	mem.u32(1)
	w.section(secMemory, mem.buf)

	var exports writer
	exports.u32(2)
	exports.name("memory")
	exports.byte(kindMem)
	exports.u32(0)
	exports.name("run")
	exports.byte(kindFunc)
	exports.u32(fnRun)
	w.section(secExport, exports.buf)

	var code writer
	code.u32(1)
	code.bytes(runBody().encode())
	w.section(secCode, code.buf)

	return w.buf
}

// runBody drives one decode round trip. Params: 0 dataPtr, 1 dataLen,
// 2 outPtr. Locals: 3 handle, 4 count.
func runBody() *body {
	const (
		handle = 3
		count  = 4
	)

	b := newBody(2)

	// handle = decode(dataPtr, dataLen, 0, 0, unsigned, big endian, ',')
	b.localGet(0)
	b.localGet(1)
	b.i32Const(0)
	b.i32Const(0)
	b.i32Const(0)
	b.i32Const(0)
	b.i32Const(',')
	b.call(impDecode)
	b.localSet(handle)

	b.localGet(handle)
	b.i32Const(0)
	b.i32Eq()
	b.ifEmpty()
	{
		b.i32Const(-1)
		b.ret()
	}
	b.end()

	// count = buffer-read(handle, 0, outPtr, buffer-len(handle))
	b.localGet(handle)
	b.i32Const(0)
	b.localGet(2)
	b.localGet(handle)
	b.call(impBufferLen)
	b.call(impBufferRead)
	b.localSet(count)

	b.localGet(handle)
	b.call(impBufferDrop)
	b.drop()

	b.localGet(count)
	b.end()
	return b
}
