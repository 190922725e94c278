package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/buffer"
	"github.com/wippyai/bcsv-bridge/errors"
)

// Catalog exposes the three conversion operations over an Engine with the
// boundary failure contract: Decode and Encode signal failure as a nil
// buffer, Export as an explicit error. Nothing thrown by the engine escapes
// a catalog call; panics are recovered and converted to the failure signal.
//
// A Catalog is stateless per call and safe for concurrent use if its Engine
// is.
type Catalog struct {
	engine bcsvbridge.Engine
}

// New creates a catalog over the given conversion engine.
func New(engine bcsvbridge.Engine) *Catalog {
	return &Catalog{engine: engine}
}

// Decode converts binary table bytes into delimiter-separated text. The
// returned buffer is exclusively owned by the caller; nil means the
// operation failed, a zero-length buffer means it succeeded with no data.
// The mask never participates in decoding.
func (c *Catalog) Decode(ctx context.Context, req bcsvbridge.Request) *buffer.Buffer {
	req = normalize(req)
	out, err := c.run(ctx, "decode", c.engine.Decode, req)
	if err != nil {
		Logger().Debug("decode failed", zap.Error(err))
		return nil
	}
	return buffer.New(out)
}

// Encode converts delimiter-separated text into binary table bytes,
// restricted to the fields req.Mask selects. An unset mask resolves to
// MaskAll, so omitting it and passing the sentinel produce identical
// output. Failure is a nil buffer.
func (c *Catalog) Encode(ctx context.Context, req bcsvbridge.Request) *buffer.Buffer {
	req = normalize(req)
	out, err := c.run(ctx, "encode", c.engine.Encode, req)
	if err != nil {
		Logger().Debug("encode failed", zap.Error(err))
		return nil
	}
	return buffer.New(out)
}

// Export converts binary table bytes into a spreadsheet at req.OutputPath.
// It returns no buffer; success means the file exists with the full
// document, failure means no partial file was left behind. The write is
// committed atomically via a temp file and rename.
func (c *Catalog) Export(ctx context.Context, req bcsvbridge.Request) error {
	req = normalize(req)
	if req.OutputPath == "" {
		return errors.InvalidInput(errors.PhaseExport, "output path is required")
	}

	data, err := c.run(ctx, "export", c.engine.Export, req)
	if err != nil {
		Logger().Debug("export failed", zap.Error(err))
		return err
	}
	if len(data) == 0 {
		return errors.EngineFailure(errors.PhaseExport, "engine produced an empty spreadsheet")
	}

	if err := commitFile(req.OutputPath, data); err != nil {
		Logger().Debug("export commit failed", zap.Error(err))
		return err
	}
	return nil
}

type engineOp func(context.Context, bcsvbridge.Request) ([]byte, error)

// run invokes one engine operation with the non-throwing guarantee: a
// panicking engine surfaces as an engine-trap error, never as a panic in
// the caller.
func (c *Catalog) run(ctx context.Context, op string, fn engineOp, req bcsvbridge.Request) (out []byte, err error) {
	if c.engine == nil {
		return nil, errors.New(phaseFor(op), errors.KindInvalidInput).
			Detail("catalog has no engine").
			Build()
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = errors.EngineTrap(phaseFor(op), fmt.Errorf("%v", r))
		}
	}()

	out, err = fn(ctx, req)
	if err != nil {
		return nil, errors.Wrap(phaseFor(op), errors.KindEngineFailure, err, op)
	}
	if out == nil {
		// Engines must not conflate empty success with a nil slice.
		out = []byte{}
	}
	return out, nil
}

func phaseFor(op string) errors.Phase {
	switch op {
	case "decode":
		return errors.PhaseDecode
	case "encode":
		return errors.PhaseEncode
	default:
		return errors.PhaseExport
	}
}

// normalize resolves the optional request fields to their sentinels and
// canonicalizes a missing input to zero-length bytes, matching how a
// null-pointer/zero-length pair arrives from a foreign caller.
func normalize(req bcsvbridge.Request) bcsvbridge.Request {
	req = req.Normalized()
	if req.Data == nil && req.SourcePath == "" {
		req.Data = []byte{}
	}
	return req
}
