package wasmtest

// Core instruction opcodes used by the fake engine bodies.
const (
	opIf        = 0x04
	opEnd       = 0x0B
	opReturn    = 0x0F
	opCall      = 0x10
	opDrop      = 0x1A
	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opI32Load8U = 0x2D
	opI32Store  = 0x36
	opI32Store8 = 0x3A
	opI32Const  = 0x41
	opI32Eq     = 0x46
	opI32GtU    = 0x4B
	opI32Add    = 0x6A
	opI32And    = 0x71
	opPrefixFC  = 0xFC

	blockTypeEmpty = 0x40
	memoryCopyOp   = 0x0A
)

// body assembles one function body's expression.
type body struct {
	writer
	locals uint32 // number of extra i32 locals
}

func newBody(locals uint32) *body {
	return &body{locals: locals}
}

func (b *body) localGet(i uint32)  { b.byte(opLocalGet); b.u32(i) }
func (b *body) localSet(i uint32)  { b.byte(opLocalSet); b.u32(i) }
func (b *body) globalGet(i uint32) { b.byte(opGlobalGet); b.u32(i) }
func (b *body) globalSet(i uint32) { b.byte(opGlobalSet); b.u32(i) }
func (b *body) i32Const(v int32)   { b.byte(opI32Const); b.s32(v) }
func (b *body) i32Add()            { b.byte(opI32Add) }
func (b *body) i32And()            { b.byte(opI32And) }
func (b *body) i32GtU()            { b.byte(opI32GtU) }
func (b *body) i32Eq()             { b.byte(opI32Eq) }
func (b *body) call(fn uint32)     { b.byte(opCall); b.u32(fn) }
func (b *body) ifEmpty()           { b.byte(opIf); b.byte(blockTypeEmpty) }
func (b *body) end()               { b.byte(opEnd) }
func (b *body) ret()               { b.byte(opReturn) }
func (b *body) drop()              { b.byte(opDrop) }

func (b *body) i32Load8U(offset uint32) {
	b.byte(opI32Load8U)
	b.u32(0) // align 2^0
	b.u32(offset)
}

func (b *body) i32Store(offset uint32) {
	b.byte(opI32Store)
	b.u32(2) // align 2^2
	b.u32(offset)
}

func (b *body) i32Store8(offset uint32) {
	b.byte(opI32Store8)
	b.u32(0)
	b.u32(offset)
}

func (b *body) memoryCopy() {
	b.byte(opPrefixFC)
	b.u32(memoryCopyOp)
	b.byte(0) // dst memory index
	b.byte(0) // src memory index
}

// encode returns the size-prefixed code entry: locals vector then the
// expression, which must already end with opEnd.
func (b *body) encode() []byte {
	var entry writer
	if b.locals > 0 {
		entry.u32(1)
		entry.u32(b.locals)
		entry.byte(0x7F) // i32
	} else {
		entry.u32(0)
	}
	entry.bytes(b.buf)

	var out writer
	out.u32(uint32(len(entry.buf)))
	out.bytes(entry.buf)
	return out.buf
}
