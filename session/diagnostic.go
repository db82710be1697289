package session

import (
	"fmt"

	"github.com/chazu/kestrel/ast"
)

// Kind names the pass that produced a diagnostic.
type Kind uint8

const (
	KindParse Kind = iota + 1
	KindResolve
	KindType
	KindRuntime
)

var kindNames = map[Kind]string{
	KindParse:   "parse",
	KindResolve: "resolve",
	KindType:    "type",
	KindRuntime: "runtime",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Static reports whether the diagnostic comes from a pass that runs before
// execution.
func (k Kind) Static() bool {
	return k != KindRuntime
}

// Diagnostic is one reported problem with its source position.
type Diagnostic struct {
	Kind    Kind   `cbor:"1,keyasint"`
	Line    int    `cbor:"2,keyasint"`
	Column  int    `cbor:"3,keyasint"`
	Lexeme  string `cbor:"4,keyasint,omitempty"`
	Message string `cbor:"5,keyasint"`
	AtEnd   bool   `cbor:"6,keyasint,omitempty"`
}

// newDiagnostic builds a diagnostic located at tok.
func newDiagnostic(kind Kind, tok ast.Token, message string) Diagnostic {
	return Diagnostic{
		Kind:    kind,
		Line:    tok.Line,
		Column:  tok.Column,
		Lexeme:  tok.Lexeme,
		Message: message,
		AtEnd:   tok.Kind == ast.TokenEOF,
	}
}

// String renders the diagnostic the way the CLI prints it.
func (d Diagnostic) String() string {
	switch {
	case d.Kind == KindRuntime:
		return fmt.Sprintf("%s\n[line %d]", d.Message, d.Line)
	case d.AtEnd:
		return fmt.Sprintf("[line %d] Error at end: %s", d.Line, d.Message)
	case d.Lexeme == "":
		return fmt.Sprintf("[line %d] Error: %s", d.Line, d.Message)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", d.Line, d.Lexeme, d.Message)
}
