package enginetest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/errors"
)

// Engine is an in-process reference implementation of the conversion
// collaborator, for tests and embedders that have no wasm engine build.
//
// It speaks a deliberately small table dialect, not the production binary
// format: a header of column count and row count followed by one 16-bit
// cell per column per row, all in the request's byte order. What matters is
// that it honors the boundary semantics exactly: endianness threads through
// every operation, signedness changes only text rendering, the delimiter
// only separates text fields, the mask restricts encoding and never
// decoding, and empty input is an empty success.
type Engine struct{}

// New creates a reference engine.
func New() *Engine {
	return &Engine{}
}

// The header counts are single bytes so that only cell values, not table
// geometry, depend on the requested byte order.
const headerSize = 2 // colCount u8 + rowCount u8

// byteOrdering is satisfied by all three encoding/binary orders.
type byteOrdering interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func byteOrder(e bcsvbridge.Endian) byteOrdering {
	switch e {
	case bcsvbridge.EndianBig:
		return binary.BigEndian
	case bcsvbridge.EndianLittle:
		return binary.LittleEndian
	default:
		return binary.NativeEndian
	}
}

// Decode renders the binary table as delimiter-separated text: one header
// line of column names, then one line per row.
func (e *Engine) Decode(ctx context.Context, req bcsvbridge.Request) ([]byte, error) {
	names, rows, err := e.parse(req)
	if err != nil {
		return nil, err
	}
	if names == nil {
		return []byte{}, nil
	}

	var out bytes.Buffer
	delim := string(req.Delimiter)
	out.WriteString(strings.Join(names, delim))
	out.WriteByte('\n')
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if req.Signed {
				cells[i] = strconv.Itoa(int(int16(v)))
			} else {
				cells[i] = strconv.Itoa(int(v))
			}
		}
		out.WriteString(strings.Join(cells, delim))
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

// Encode parses delimiter-separated text back into the binary table,
// keeping only the columns req.Mask selects.
func (e *Engine) Encode(ctx context.Context, req bcsvbridge.Request) ([]byte, error) {
	text, err := e.input(req, errors.PhaseEncode)
	if err != nil {
		return nil, err
	}
	if len(text) == 0 {
		return []byte{}, nil
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(text))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.IO(errors.PhaseEncode, "scan text", err)
	}
	if len(lines) == 0 {
		return []byte{}, nil
	}

	delim := string(req.Delimiter)
	header := strings.Split(lines[0], delim)
	cols := len(header)

	included := make([]int, 0, cols)
	for i := 0; i < cols; i++ {
		if req.Mask == bcsvbridge.MaskAll || req.Mask.Includes(i) {
			included = append(included, i)
		}
	}

	if len(included) > 255 || len(lines)-1 > 255 {
		return nil, errors.Unsupported(errors.PhaseEncode, "table larger than 255x255")
	}

	order := byteOrder(req.Endian)
	out := make([]byte, 0, headerSize+2*len(included)*(len(lines)-1))
	out = append(out, byte(len(included)), byte(len(lines)-1))

	for lineNo, line := range lines[1:] {
		cells := strings.Split(line, delim)
		if len(cells) != cols {
			return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Detail("row %d has %d cells, header has %d", lineNo+1, len(cells), cols).
				Build()
		}
		for _, i := range included {
			cell, err := parseCell(strings.TrimSpace(cells[i]), req.Signed)
			if err != nil {
				return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
					Detail("row %d field %d: %v", lineNo+1, i, err).
					Build()
			}
			out = order.AppendUint16(out, cell)
		}
	}
	return out, nil
}

// parseCell parses one cell at 16-bit width so out-of-range values fail
// instead of wrapping. Signed tables accept [-32768, 32767], unsigned
// tables [0, 65535].
func parseCell(raw string, signed bool) (uint16, error) {
	if signed {
		v, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return 0, err
		}
		return uint16(v), nil
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// Export renders the binary table as a spreadsheet document and returns its
// bytes; committing them to a path is the catalog's job.
func (e *Engine) Export(ctx context.Context, req bcsvbridge.Request) ([]byte, error) {
	names, rows, err := e.parse(req)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, name := range names {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseExport, errors.KindInvalidData, err, "cell name")
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, errors.Wrap(errors.PhaseExport, errors.KindIO, err, "write header cell")
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseExport, errors.KindInvalidData, err, "cell name")
			}
			val := any(int(v))
			if req.Signed {
				val = int(int16(v))
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, errors.Wrap(errors.PhaseExport, errors.KindIO, err, "write cell")
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(errors.PhaseExport, errors.KindIO, err, "serialize workbook")
	}
	return buf.Bytes(), nil
}

// parse reads the binary table from the request. A zero-length input
// yields (nil, nil, nil): the empty table.
func (e *Engine) parse(req bcsvbridge.Request) (names []string, rows [][]uint16, err error) {
	data, err := e.input(req, errors.PhaseDecode)
	if err != nil {
		return nil, nil, err
	}
	if len(data) == 0 {
		return nil, nil, nil
	}
	if len(data) < headerSize {
		return nil, nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("truncated header: %d bytes", len(data)).
			Build()
	}

	order := byteOrder(req.Endian)
	cols := int(data[0])
	rowCount := int(data[1])
	want := headerSize + 2*cols*rowCount
	if len(data) != want {
		return nil, nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("table of %dx%d needs %d bytes, have %d", cols, rowCount, want, len(data)).
			Build()
	}

	names, err = e.columnNames(req, cols)
	if err != nil {
		return nil, nil, err
	}

	rows = make([][]uint16, rowCount)
	off := headerSize
	for r := 0; r < rowCount; r++ {
		row := make([]uint16, cols)
		for c := 0; c < cols; c++ {
			row[c] = order.Uint16(data[off : off+2])
			off += 2
		}
		rows[r] = row
	}
	return names, rows, nil
}

// columnNames resolves header names from the hash lookup file when one is
// given, falling back to positional names. An unreadable lookup file is a
// failure, mirroring the production engine.
func (e *Engine) columnNames(req bcsvbridge.Request, cols int) ([]string, error) {
	names := make([]string, cols)
	for i := range names {
		names[i] = fmt.Sprintf("col%d", i)
	}
	if req.HashPath == "" {
		return names, nil
	}

	raw, err := os.ReadFile(req.HashPath)
	if err != nil {
		return nil, errors.IO(errors.PhaseDecode, "read name table", err)
	}
	for i, line := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
		if i >= cols {
			break
		}
		if line != "" {
			names[i] = line
		}
	}
	return names, nil
}

// input resolves the request's input bytes, reading SourcePath when Data
// is absent.
func (e *Engine) input(req bcsvbridge.Request, phase errors.Phase) ([]byte, error) {
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
