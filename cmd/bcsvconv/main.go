package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/catalog"
	"github.com/wippyai/bcsv-bridge/enginetest"
	"github.com/wippyai/bcsv-bridge/wasmengine"
)

func main() {
	var (
		op          = flag.String("op", "", "Operation: decode, encode or export")
		inFile      = flag.String("in", "", "Input file")
		outFile     = flag.String("out", "", "Output file (decode/encode default to stdout)")
		namesFile   = flag.String("names", "", "Column name file, one name per line")
		endianStr   = flag.String("endian", "big", "Byte order: big, little or native")
		delimStr    = flag.String("delim", ",", "Field delimiter")
		mask        = flag.Uint("mask", 0, "Column mask for encode, bit i keeps field i (0 keeps all)")
		signed      = flag.Bool("signed", false, "Render values as signed 16-bit")
		engineFile  = flag.String("engine", "", "Wasm engine build (default: built-in reference engine)")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			catalog.SetLogger(logger)
			wasmengine.SetLogger(logger)
			defer logger.Sync()
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*engineFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *op == "" || *inFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: bcsvconv -op decode|encode|export -in <file> [-out <file>] [options]")
		fmt.Fprintln(os.Stderr, "       bcsvconv -i  (interactive mode)")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*op, *inFile, *outFile, *namesFile, *endianStr, *delimStr, uint32(*mask), *signed, *engineFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(op, inFile, outFile, namesFile, endianStr, delimStr string, mask uint32, signed bool, engineFile string) error {
	ctx := context.Background()

	endian, err := parseEndian(endianStr)
	if err != nil {
		return err
	}
	delim, err := parseDelim(delimStr)
	if err != nil {
		return err
	}

	engine, cleanup, err := buildEngine(ctx, engineFile)
	if err != nil {
		return err
	}
	defer cleanup()
	cat := catalog.New(engine)

	req := bcsvbridge.Request{
		SourcePath: inFile,
		HashPath:   namesFile,
		OutputPath: outFile,
		Endian:     endian,
		Delimiter:  delim,
		Mask:       bcsvbridge.Mask(mask),
		Signed:     signed,
	}

	switch op {
	case "decode", "encode":
		convert := cat.Decode
		if op == "encode" {
			convert = cat.Encode
		}
		buf := convert(ctx, req)
		if buf == nil {
			return fmt.Errorf("%s failed", op)
		}
		defer buf.Release()

		view, err := buf.View()
		if err != nil {
			return err
		}
		if outFile == "" {
			_, err = os.Stdout.Write(view)
			return err
		}
		return os.WriteFile(outFile, view, 0o644)

	case "export":
		if outFile == "" {
			return fmt.Errorf("export needs -out")
		}
		return cat.Export(ctx, req)

	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

// buildEngine picks the conversion engine: a wasm build when one is named,
// the built-in reference engine otherwise.
func buildEngine(ctx context.Context, engineFile string) (bcsvbridge.Engine, func(), error) {
	if engineFile == "" {
		return enginetest.New(), func() {}, nil
	}
	wasmBytes, err := os.ReadFile(engineFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read engine: %w", err)
	}
	eng, err := wasmengine.New(ctx, wasmBytes)
	if err != nil {
		return nil, nil, err
	}
	return eng, func() { eng.Close(ctx) }, nil
}

func parseEndian(s string) (bcsvbridge.Endian, error) {
	switch strings.ToLower(s) {
	case "big", "be":
		return bcsvbridge.EndianBig, nil
	case "little", "le":
		return bcsvbridge.EndianLittle, nil
	case "native":
		return bcsvbridge.EndianNative, nil
	default:
		return 0, fmt.Errorf("unknown byte order %q", s)
	}
}

func parseDelim(s string) (byte, error) {
	switch {
	case s == "tab" || s == `\t`:
		return '\t', nil
	case len(s) == 1:
		return s[0], nil
	default:
		return 0, fmt.Errorf("delimiter must be one character or \"tab\"")
	}
}
