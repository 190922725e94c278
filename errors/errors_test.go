package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindInvalidInput,
				Path:   []string{"decode", "delimiter"},
				Detail: "delimiter byte must be printable",
			},
			contains: []string{"[decode]", "invalid_input", "decode.delimiter", "delimiter byte must be printable"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseHost,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[host]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want it to contain %q", msg, want)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseExport, KindIO, cause, "write spreadsheet")

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestError_Is(t *testing.T) {
	a := UseAfterRelease("view")
	b := UseAfterRelease("len")
	c := InvalidInput(PhaseDecode, "whatever")

	if !errors.Is(a, b) {
		t.Error("errors with the same phase and kind should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different phase/kind should not match")
	}
}

func TestError_As(t *testing.T) {
	var target *Error
	wrapped := Wrap(PhaseEncode, KindEngineFailure, EngineFailure(PhaseEncode, "inner"), "outer")

	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should extract *Error")
	}
	if target.Phase != PhaseEncode {
		t.Errorf("extracted phase = %q, want %q", target.Phase, PhaseEncode)
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseHost, KindRegistration).
		Path("bcsv", "catalog", "decode").
		Detail("duplicate function %q", "decode").
		Value(uint32(7)).
		Build()

	if err.Phase != PhaseHost || err.Kind != KindRegistration {
		t.Errorf("builder lost phase/kind: %+v", err)
	}
	if got := err.Error(); !strings.Contains(got, "bcsv.catalog.decode") {
		t.Errorf("path missing from message: %q", got)
	}
	if err.Value != uint32(7) {
		t.Errorf("value = %v, want 7", err.Value)
	}
	if !strings.Contains(err.Detail, `"decode"`) {
		t.Errorf("formatted detail = %q", err.Detail)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"InvalidInput", InvalidInput(PhaseDecode, "x"), KindInvalidInput},
		{"NotFound", NotFound(PhaseLoad, "export", "bcsv_to_csv"), KindNotFound},
		{"AllocationFailed", AllocationFailed(PhaseEncode, 128), KindAllocation},
		{"OutOfBounds", OutOfBounds(PhaseHost, nil, 10, 5), KindOutOfBounds},
		{"EngineTrap", EngineTrap(PhaseDecode, errors.New("unreachable")), KindEngineTrap},
		{"EngineFailure", EngineFailure(PhaseEncode, "null result"), KindEngineFailure},
		{"UseAfterRelease", UseAfterRelease("view"), KindUseAfterRelease},
		{"Unsupported", Unsupported(PhaseHost, "async"), KindUnsupported},
		{"Instantiation", Instantiation(errors.New("boom")), KindInstantiation},
		{"Load", Load("compile", errors.New("bad magic")), KindInvalidData},
		{"ParseFailed", ParseFailed("WIT", errors.New("syntax")), KindInvalidData},
		{"IO", IO(PhaseExport, "rename", errors.New("EACCES")), KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", tt.err.Kind, tt.kind)
			}
			if tt.err.Error() == "" {
				t.Error("message should not be empty")
			}
		})
	}
}
