package session

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical encoding so equal reports encode to equal
// bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("session: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Report is the machine-readable outcome of a run or check.
type Report struct {
	Source          string       `cbor:"1,keyasint,omitempty"`
	Diagnostics     []Diagnostic `cbor:"2,keyasint"`
	HadStaticError  bool         `cbor:"3,keyasint"`
	HadRuntimeError bool         `cbor:"4,keyasint"`
	ExitCode        int          `cbor:"5,keyasint"`
	Session         string       `cbor:"6,keyasint,omitempty"`
}

// Report snapshots the session's diagnostics and flags. source names the
// program, usually its file path.
func (s *Session) Report(source string) *Report {
	diags := make([]Diagnostic, len(s.diagnostics))
	copy(diags, s.diagnostics)
	return &Report{
		Source:          source,
		Diagnostics:     diags,
		HadStaticError:  s.hadStaticError,
		HadRuntimeError: s.hadRuntimeError,
		ExitCode:        s.ExitCode(),
		Session:         s.id,
	}
}

// MarshalReport serializes a Report to CBOR bytes.
func MarshalReport(r *Report) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalReport deserializes a Report from CBOR bytes.
func UnmarshalReport(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("session: unmarshal report: %w", err)
	}
	return &r, nil
}

// WriteReport encodes r to the file at path.
func WriteReport(path string, r *Report) error {
	data, err := MarshalReport(r)
	if err != nil {
		return fmt.Errorf("session: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("session: write report: %w", err)
	}
	return nil
}

// ReadReport decodes the report stored at path.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session: read report: %w", err)
	}
	return UnmarshalReport(data)
}
