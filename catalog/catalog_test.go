package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/buffer"
	"github.com/wippyai/bcsv-bridge/enginetest"
)

// sampleTable is a 2x2 table in the reference engine's dialect, big-endian
// cells.
var sampleTable = []byte{2, 2, 0x00, 0x01, 0x01, 0x02, 0xFF, 0xFF, 0x9C, 0x40}

func sampleReq() bcsvbridge.Request {
	return bcsvbridge.Request{
		Data:   sampleTable,
		Endian: bcsvbridge.EndianBig,
	}
}

// panicEngine trips the non-throwing guarantee.
type panicEngine struct{}

func (panicEngine) Decode(context.Context, bcsvbridge.Request) ([]byte, error) { panic("decode blew up") }
func (panicEngine) Encode(context.Context, bcsvbridge.Request) ([]byte, error) { panic("encode blew up") }
func (panicEngine) Export(context.Context, bcsvbridge.Request) ([]byte, error) { panic("export blew up") }

// nilSliceEngine returns a nil slice for a successful call, which the
// catalog must canonicalize to an empty success.
type nilSliceEngine struct{}

func (nilSliceEngine) Decode(context.Context, bcsvbridge.Request) ([]byte, error) { return nil, nil }
func (nilSliceEngine) Encode(context.Context, bcsvbridge.Request) ([]byte, error) { return nil, nil }
func (nilSliceEngine) Export(context.Context, bcsvbridge.Request) ([]byte, error) { return nil, nil }

func TestDecode_OwnedBuffer(t *testing.T) {
	cat := New(enginetest.New())

	buf := cat.Decode(context.Background(), sampleReq())
	if buf == nil {
		t.Fatal("decode failed")
	}
	defer buf.Release()

	text, err := buf.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if !bytes.HasPrefix(text, []byte("col0,col1\n")) {
		t.Fatalf("decoded text = %q", text)
	}
}

func TestDecode_FailureIsNil(t *testing.T) {
	cat := New(enginetest.New())

	req := sampleReq()
	req.Data = []byte{9} // truncated
	if buf := cat.Decode(context.Background(), req); buf != nil {
		t.Fatal("malformed input must yield a nil buffer")
	}
}

func TestDecode_EmptySuccessVsFailure(t *testing.T) {
	cat := New(enginetest.New())
	ctx := context.Background()

	// zero-length input: non-nil, zero-length buffer
	req := sampleReq()
	req.Data = []byte{}
	buf := cat.Decode(ctx, req)
	if buf == nil {
		t.Fatal("empty input is an empty success, not a failure")
	}
	if buf.Len() != 0 {
		t.Fatalf("Len = %d, want 0", buf.Len())
	}
	buf.Release()

	// unreadable path: nil
	req = sampleReq()
	req.Data = nil
	req.SourcePath = filepath.Join(t.TempDir(), "missing.bcsv")
	if buf := cat.Decode(ctx, req); buf != nil {
		t.Fatal("unreadable path must yield a nil buffer")
	}
}

func TestEncode_MaskDefaultEquivalence(t *testing.T) {
	cat := New(enginetest.New())
	ctx := context.Background()

	text := cat.Decode(ctx, sampleReq())
	if text == nil {
		t.Fatal("decode failed")
	}
	defer text.Release()
	data, _ := text.View()

	omitted := cat.Encode(ctx, bcsvbridge.Request{Data: data, Endian: bcsvbridge.EndianBig})
	explicit := cat.Encode(ctx, bcsvbridge.Request{
		Data:   data,
		Endian: bcsvbridge.EndianBig,
		Mask:   bcsvbridge.MaskAll,
	})
	if omitted == nil || explicit == nil {
		t.Fatal("encode failed")
	}
	defer omitted.Release()
	defer explicit.Release()

	a, _ := omitted.View()
	b, _ := explicit.View()
	if !bytes.Equal(a, b) {
		t.Fatal("omitted mask must be byte-identical to the all-bits sentinel")
	}
}

func TestRoundTrip_ThroughCatalog(t *testing.T) {
	cat := New(enginetest.New())
	ctx := context.Background()
	sess := buffer.NewSession()
	defer sess.Close()

	text := sess.Track(cat.Decode(ctx, sampleReq()))
	if text == nil {
		t.Fatal("decode failed")
	}
	view, _ := text.View()

	back := sess.Track(cat.Encode(ctx, bcsvbridge.Request{
		Data:   view,
		Endian: bcsvbridge.EndianBig,
	}))
	if back == nil {
		t.Fatal("encode failed")
	}
	got, _ := back.View()
	if !bytes.Equal(got, sampleTable) {
		t.Fatalf("round trip drifted:\n  orig %x\n  back %x", sampleTable, got)
	}
}

func TestCatalog_PanickingEngineDoesNotThrow(t *testing.T) {
	cat := New(panicEngine{})
	ctx := context.Background()

	if buf := cat.Decode(ctx, sampleReq()); buf != nil {
		t.Fatal("panicking engine must surface as nil buffer")
	}
	if buf := cat.Encode(ctx, sampleReq()); buf != nil {
		t.Fatal("panicking engine must surface as nil buffer")
	}
	req := sampleReq()
	req.OutputPath = filepath.Join(t.TempDir(), "out.xlsx")
	if err := cat.Export(ctx, req); err == nil {
		t.Fatal("panicking engine must surface as export error")
	}
}

func TestCatalog_NilSliceSuccessCanonicalized(t *testing.T) {
	cat := New(nilSliceEngine{})

	buf := cat.Decode(context.Background(), sampleReq())
	if buf == nil {
		t.Fatal("nil-slice success must not become a failure")
	}
	defer buf.Release()
	view, err := buf.View()
	if err != nil || view == nil {
		t.Fatalf("View = %v, %v; want non-nil empty", view, err)
	}
}

func TestCatalog_NoEngine(t *testing.T) {
	cat := New(nil)
	if buf := cat.Decode(context.Background(), sampleReq()); buf != nil {
		t.Fatal("catalog without an engine must fail cleanly")
	}
}

func TestExport_WritesWorkbook(t *testing.T) {
	cat := New(enginetest.New())

	out := filepath.Join(t.TempDir(), "table.xlsx")
	req := sampleReq()
	req.OutputPath = out

	if err := cat.Export(context.Background(), req); err != nil {
		t.Fatalf("Export: %v", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("exported workbook must be non-empty")
	}
}

func TestExport_RequiresOutputPath(t *testing.T) {
	cat := New(enginetest.New())
	if err := cat.Export(context.Background(), sampleReq()); err == nil {
		t.Fatal("export without output path must fail")
	}
}

func TestExport_FailureLeavesNoPartialFile(t *testing.T) {
	cat := New(enginetest.New())

	dir := t.TempDir()
	out := filepath.Join(dir, "table.xlsx")
	req := sampleReq()
	req.Data = []byte{9} // malformed
	req.OutputPath = out

	if err := cat.Export(context.Background(), req); err == nil {
		t.Fatal("malformed input must fail export")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("failed export must leave nothing at the output path")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed export left stray files: %v", entries)
	}
}

func TestExport_NeverReturnsBuffer(t *testing.T) {
	// The export signature carries no buffer by construction; this pins the
	// side-effect contract: file on success, error and no file on failure.
	cat := New(enginetest.New())
	out := filepath.Join(t.TempDir(), "table.xlsx")
	req := sampleReq()
	req.OutputPath = out

	if err := cat.Export(context.Background(), req); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatal("output is not a spreadsheet container")
	}
}
