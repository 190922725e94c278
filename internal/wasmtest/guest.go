package wasmtest

// Magic input bytes recognized by the fake engine.
const (
	// FailByte as the first input byte makes every operation report
	// failure (the null result pair).
	FailByte = 0xFF

	// EmptyByte as the first input byte makes every operation report an
	// empty success (live pointer, zero length).
	EmptyByte = 0xFE
)

// Function and type indexes inside the generated module.
const (
	fnAlloc = iota
	fnDealloc
	fnToCSV
	fnToBCSV
	fnToXLSX
	fnCount
)

const (
	i32       = 0x7F
	funcType  = 0x60
	kindFunc  = 0x00
	kindMem   = 0x02
	heapBase  = 1024
	minPages  = 16
	secType   = 1
	secFunc   = 3
	secMemory = 5
	secGlobal = 6
	secExport = 7
	secCode   = 10
)

// EngineModule emits a wasm binary that satisfies the engine ABI contract
// with deterministic, inspectable behavior instead of a real codec:
//
//	alloc          bump allocator over linear memory
//	dealloc        no-op
//	bcsv_to_csv    result = [signed, endian, delim] + input bytes
//	csv_to_bcsv    result = [endian, delim, mask&0xFF] + input bytes
//	bcsv_to_xlsx   result = [signed, endian] + input bytes
//
// The scalar prefix makes parameter threading visible to the host; the
// FailByte and EmptyByte magics exercise the failure and empty-success
// paths. Every operation writes its {ptr, len} pair to the out parameter.
func EngineModule() []byte {
	var w writer
	w.bytes([]byte{0x00, 0x61, 0x73, 0x6D}) // \0asm
	w.bytes([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	// type section: one signature per function
	var types writer
	types.u32(fnCount)
	writeFuncType(&types, 1, 1) // alloc(size) -> ptr
	writeFuncType(&types, 2, 0) // dealloc(ptr, size)
	writeFuncType(&types, 8, 0) // bcsv_to_csv(out, data, len, names, nlen, signed, endian, delim)
	writeFuncType(&types, 6, 0) // csv_to_bcsv(out, text, len, endian, delim, mask)
	writeFuncType(&types, 7, 0) // bcsv_to_xlsx(out, data, len, names, nlen, signed, endian)
	w.section(secType, types.buf)

	// function section: func i uses type i
	var funcs writer
	funcs.u32(fnCount)
	for i := uint32(0); i < fnCount; i++ {
		funcs.u32(i)
	}
	w.section(secFunc, funcs.buf)

	// memory section
	var mem writer
	mem.u32(1)
	mem.byte(0x00) // min only
	mem.u32(minPages)
	w.section(secMemory, mem.buf)

	// global section: mutable heap pointer
	var globals writer
	globals.u32(1)
	globals.byte(i32)
	globals.byte(0x01) // mutable
	globals.byte(opI32Const)
	globals.s32(heapBase)
	globals.byte(opEnd)
	w.section(secGlobal, globals.buf)

	// export section
	var exports writer
	exports.u32(6)
	exports.name("memory")
	exports.byte(kindMem)
	exports.u32(0)
	for i, name := range []string{"alloc", "dealloc", "bcsv_to_csv", "csv_to_bcsv", "bcsv_to_xlsx"} {
		exports.name(name)
		exports.byte(kindFunc)
		exports.u32(uint32(i))
	}
	w.section(secExport, exports.buf)

	// code section
	var code writer
	code.u32(fnCount)
	code.bytes(allocBody().encode())
	code.bytes(deallocBody().encode())
	code.bytes(opBody(8, []uint32{5, 6, 7}).encode())
	code.bytes(opBody(6, []uint32{3, 4, 5}).encode())
	code.bytes(opBody(7, []uint32{5, 6}).encode())
	w.section(secCode, code.buf)

	return w.buf
}

func writeFuncType(w *writer, params, results uint32) {
	w.byte(funcType)
	w.u32(params)
	for i := uint32(0); i < params; i++ {
		w.byte(i32)
	}
	w.u32(results)
	for i := uint32(0); i < results; i++ {
		w.byte(i32)
	}
}

// allocBody bumps the heap global by the 8-byte-aligned size and returns
// the previous heap pointer. Local 1 holds the result.
func allocBody() *body {
	b := newBody(1)
	b.globalGet(0)
	b.localSet(1)
	b.globalGet(0)
	b.localGet(0)
	b.i32Add()
	b.i32Const(7)
	b.i32Add()
	b.i32Const(-8)
	b.i32And()
	b.globalSet(0)
	b.localGet(1)
	b.end()
	return b
}

func deallocBody() *body {
	b := newBody(0)
	b.end()
	return b
}

// opBody builds one conversion entry point. Params follow the contract:
// local 0 is the out pointer, 1 the input pointer, 2 the input length;
// prefixParams lists the scalar params echoed ahead of the copied input.
// The extra local (index numParams) holds the result pointer.
func opBody(numParams uint32, prefixParams []uint32) *body {
	dst := numParams
	prefix := int32(len(prefixParams))

	b := newBody(1)

	// magic-byte handling for inputs with data
	b.localGet(2)
	b.i32Const(0)
	b.i32GtU()
	b.ifEmpty()
	{
		// failure: write the null pair
		b.localGet(1)
		b.i32Load8U(0)
		b.i32Const(FailByte)
		b.i32Eq()
		b.ifEmpty()
		{
			b.localGet(0)
			b.i32Const(0)
			b.i32Store(0)
			b.localGet(0)
			b.i32Const(0)
			b.i32Store(4)
			b.ret()
		}
		b.end()

		// empty success: live pointer, zero length
		b.localGet(1)
		b.i32Load8U(0)
		b.i32Const(EmptyByte)
		b.i32Eq()
		b.ifEmpty()
		{
			b.i32Const(0)
			b.call(fnAlloc)
			b.localSet(dst)
			b.localGet(0)
			b.localGet(dst)
			b.i32Store(0)
			b.localGet(0)
			b.i32Const(0)
			b.i32Store(4)
			b.ret()
		}
		b.end()
	}
	b.end()

	// dst = alloc(len + prefix)
	b.localGet(2)
	b.i32Const(prefix)
	b.i32Add()
	b.call(fnAlloc)
	b.localSet(dst)

	// echo scalar params into the prefix
	for i, p := range prefixParams {
		b.localGet(dst)
		b.localGet(p)
		b.i32Store8(uint32(i))
	}

	// copy the input after the prefix
	b.localGet(dst)
	b.i32Const(prefix)
	b.i32Add()
	b.localGet(1)
	b.localGet(2)
	b.memoryCopy()

	// publish the result pair
	b.localGet(0)
	b.localGet(dst)
	b.i32Store(0)
	b.localGet(0)
	b.localGet(2)
	b.i32Const(prefix)
	b.i32Add()
	b.i32Store(4)
	b.end()
	return b
}
