package wasmengine

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/catalog"
	"github.com/wippyai/bcsv-bridge/errors"
	"github.com/wippyai/bcsv-bridge/internal/wasmtest"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()

	eng, err := New(ctx, wasmtest.EngineModule())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { eng.Close(ctx) })
	return eng
}

func TestDecode_ThreadsParameters(t *testing.T) {
	eng := newEngine(t)

	out, err := eng.Decode(context.Background(), bcsvbridge.Request{
		Data:      []byte{1, 2, 3},
		Endian:    bcsvbridge.EndianLittle,
		Signed:    true,
		Delimiter: ';',
	})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// fake guest echoes [signed, endian, delim] then the input
	want := []byte{1, byte(bcsvbridge.EndianLittle), ';', 1, 2, 3}
	if !bytes.Equal(out, want) {
		t.Fatalf("Decode = % x, want % x", out, want)
	}
}

func TestEncode_ThreadsMask(t *testing.T) {
	eng := newEngine(t)

	out, err := eng.Encode(context.Background(), bcsvbridge.Request{
		Data:      []byte{9},
		Endian:    bcsvbridge.EndianBig,
		Delimiter: ',',
		Mask:      0x000000AB,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []byte{byte(bcsvbridge.EndianBig), ',', 0xAB, 9}
	if !bytes.Equal(out, want) {
		t.Fatalf("Encode = % x, want % x", out, want)
	}
}

func TestExport_ReturnsDocumentBytes(t *testing.T) {
	eng := newEngine(t)

	out, err := eng.Export(context.Background(), bcsvbridge.Request{
		Data:   []byte{7, 8},
		Endian: bcsvbridge.EndianBig,
		Signed: false,
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	want := []byte{0, byte(bcsvbridge.EndianBig), 7, 8}
	if !bytes.Equal(out, want) {
		t.Fatalf("Export = % x, want % x", out, want)
	}
}

func TestCall_NullPairIsFailure(t *testing.T) {
	eng := newEngine(t)

	_, err := eng.Decode(context.Background(), bcsvbridge.Request{
		Data: []byte{wasmtest.FailByte, 1, 2},
	})
	if err == nil {
		t.Fatal("null result pair must surface as an error")
	}
}

func TestCall_EmptySuccessIsNotFailure(t *testing.T) {
	eng := newEngine(t)

	out, err := eng.Decode(context.Background(), bcsvbridge.Request{
		Data: []byte{wasmtest.EmptyByte},
	})
	if err != nil {
		t.Fatalf("empty success must not error: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("empty success = %v, want non-nil empty", out)
	}
}

func TestCall_SequentialCallsDoNotInterfere(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		in := []byte{byte(i), byte(i + 1)}
		out, err := eng.Decode(ctx, bcsvbridge.Request{Data: in, Delimiter: ','})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !bytes.Equal(out[3:], in) {
			t.Fatalf("call %d payload = % x, want % x", i, out[3:], in)
		}
	}
}

func TestCall_MarshalFailureKeepsOperationPhase(t *testing.T) {
	eng := newEngine(t)

	// The test guest has a fixed 1MiB memory, so a larger input cannot be
	// marshaled. The failure happens in shared alloc/write plumbing but
	// must still report the operation that was running.
	_, err := eng.Decode(context.Background(), bcsvbridge.Request{
		Data: make([]byte, 2<<20),
	})
	if err == nil {
		t.Fatal("oversized input must fail to marshal")
	}
	var se *errors.Error
	if !stderrors.As(err, &se) {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if se.Phase != errors.PhaseDecode {
		t.Fatalf("Phase = %q, want %q", se.Phase, errors.PhaseDecode)
	}
}

func TestEngine_ClosedEngineFails(t *testing.T) {
	ctx := context.Background()
	eng, err := New(ctx, wasmtest.EngineModule())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := eng.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := eng.Decode(ctx, bcsvbridge.Request{Data: []byte{1}}); err == nil {
		t.Fatal("calls on a closed engine must fail")
	}
}

func TestEngine_RejectsGarbage(t *testing.T) {
	if _, err := New(context.Background(), []byte("not wasm")); err == nil {
		t.Fatal("garbage module must fail to load")
	}
}

func TestEngine_ThroughCatalog(t *testing.T) {
	eng := newEngine(t)
	cat := catalog.New(eng)
	ctx := context.Background()

	buf := cat.Decode(ctx, bcsvbridge.Request{Data: []byte{5, 6}})
	if buf == nil {
		t.Fatal("decode through catalog failed")
	}
	defer buf.Release()
	view, _ := buf.View()
	if !bytes.Equal(view[3:], []byte{5, 6}) {
		t.Fatalf("payload = % x", view)
	}

	if cat.Decode(ctx, bcsvbridge.Request{Data: []byte{wasmtest.FailByte}}) != nil {
		t.Fatal("guest failure must project to a nil buffer")
	}
}
