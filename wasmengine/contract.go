package wasmengine

import (
	"regexp"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/bcsv-bridge/errors"
)

// DefaultContract is the ABI the engine guest must export, written as WIT
// function signatures. Kebab-case WIT names map to snake_case wasm export
// names. Every parameter lowers to a core i32: pointers and lengths are
// guest memory offsets, scalars ride in the low bits.
const DefaultContract = `
	alloc: func(size: u32) -> u32
	dealloc: func(ptr: u32, size: u32)
	bcsv-to-csv: func(out: u32, data: u32, data-len: u32, names: u32, names-len: u32, signed: u32, endian: u32, delim: u32)
	csv-to-bcsv: func(out: u32, text: u32, text-len: u32, endian: u32, delim: u32, mask: u32)
	bcsv-to-xlsx: func(out: u32, data: u32, data-len: u32, names: u32, names-len: u32, signed: u32, endian: u32)
`

type funcSignature struct {
	params  []wit.Type
	results []wit.Type
}

// funcPattern extracts "name: func(params) -> result" entries.
var funcPattern = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^\n;]+))?`)

// parseContract extracts function signatures from WIT text, keyed by the
// snake_case export name.
func parseContract(contract string) (map[string]*funcSignature, error) {
	funcs := make(map[string]*funcSignature)

	for _, match := range funcPattern.FindAllStringSubmatch(contract, -1) {
		name := strings.ReplaceAll(match[1], "-", "_")
		sig := &funcSignature{}

		if params := strings.TrimSpace(match[2]); params != "" {
			for _, p := range strings.Split(params, ",") {
				typStr := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typStr = p[idx+1:]
				}
				t, err := wit.ParseType(strings.TrimSpace(typStr))
				if err != nil {
					return nil, errors.ParseFailed("param type "+typStr, err)
				}
				sig.params = append(sig.params, t)
			}
		}

		if result := strings.TrimSpace(match[3]); result != "" {
			t, err := wit.ParseType(result)
			if err != nil {
				return nil, errors.ParseFailed("result type "+result, err)
			}
			sig.results = []wit.Type{t}
		}

		funcs[name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no functions found in contract")
	}
	return funcs, nil
}

// verifyContract checks the compiled guest against the contract: every
// contract function must be exported with matching parameter and result
// counts, all lowered to core i32. Failing fast here turns an ABI drift
// into a load error instead of a memory fault mid-call.
func verifyContract(compiled wazero.CompiledModule, contract string) error {
	funcs, err := parseContract(contract)
	if err != nil {
		return err
	}

	exports := compiled.ExportedFunctions()
	for name, sig := range funcs {
		def, ok := exports[name]
		if !ok {
			return errors.NotFound(errors.PhaseLoad, "engine export", name)
		}

		if len(def.ParamTypes()) != len(sig.params) {
			return errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Path(name).
				Detail("exports %d params, contract requires %d", len(def.ParamTypes()), len(sig.params)).
				Build()
		}
		for i, vt := range def.ParamTypes() {
			if vt != api.ValueTypeI32 {
				return errors.New(errors.PhaseLoad, errors.KindInvalidData).
					Path(name).
					Detail("param %d is %s, contract lowers every type to i32", i, api.ValueTypeName(vt)).
					Build()
			}
		}
		if len(def.ResultTypes()) != len(sig.results) {
			return errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Path(name).
				Detail("exports %d results, contract requires %d", len(def.ResultTypes()), len(sig.results)).
				Build()
		}
	}
	return nil
}
